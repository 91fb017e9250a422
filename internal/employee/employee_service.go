package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	employeeerrors "go-employee-directory/internal/employee/errors"
	"go-employee-directory/internal/events"
	"go-employee-directory/internal/messaging/kafka"
	"go-employee-directory/internal/photostore"
	"go-employee-directory/internal/secureid"
	"go-employee-directory/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const ListCacheKey = "employees:list"

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context) ([]EmployeeResponse, error)
	// Details resolves an opaque route token; an unreadable token is an
	// invalid-token failure, a readable token for a missing record is
	// not-found carrying the id.
	Details(ctx context.Context, token string) (EmployeeResponse, error)
	Create(ctx context.Context, req CreateEmployeeRequest, photo *photostore.Upload) (EmployeeResponse, error)
	GetForEdit(ctx context.Context, id int) (EmployeeEditResponse, error)
	Update(ctx context.Context, id int, req UpdateEmployeeRequest, photo *photostore.Upload) (EmployeeResponse, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	db        *sql.DB
	repo      Repository
	protector *secureid.Protector
	photos    photostore.Manager
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	protector *secureid.Protector,
	photos photostore.Manager,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, protector, photos, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	protector *secureid.Protector,
	photos photostore.Manager,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		protector: protector,
		photos:    photos,
		outbox:    outboxRepo,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

// begin opens a transaction and binds the repository to it. With no *sql.DB
// (in-memory mode) the plain repository is returned and commit/rollback are
// no-ops.
func (s *service) begin(ctx context.Context) (*sql.Tx, Repository, error) {
	if s.db == nil {
		return nil, s.repo, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	return tx, s.repo.WithTx(tx), nil
}

func commit(tx *sql.Tx) error {
	if tx == nil {
		return nil
	}
	return tx.Commit()
}

func rollback(tx *sql.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}

func (s *service) List(ctx context.Context) ([]EmployeeResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, ListCacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(ListCacheKey, func() (interface{}, error) {
		empls, err := s.repo.GetAllEmployees(ctx)
		if err != nil {
			s.logger.Error("list employees failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}

		resp, err := s.mapToListResponse(empls)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, ListCacheKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) Details(ctx context.Context, token string) (EmployeeResponse, error) {
	id, err := s.protector.Unprotect(token)
	if err != nil {
		s.logger.Warn("details requested with unreadable token",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeToken
	}

	empl, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		s.logger.Warn("employee details not found", zap.Int("employee_id", id))
		return EmployeeResponse{}, notFoundOr(err, id)
	}

	return s.mapToResponse(*empl)
}

func (s *service) Create(
	ctx context.Context,
	req CreateEmployeeRequest,
	photo *photostore.Upload,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
	)

	dept := Department(req.Department)
	if req.Department == "" {
		dept = DepartmentNone
	}
	if !dept.Valid() {
		return EmployeeResponse{}, employeeerrors.ErrInvalidDepartment
	}

	// Photo goes to storage before the record exists; a failed write aborts
	// the whole operation so the store is never left pointing at nothing.
	var photoPath string
	if photo != nil {
		name, err := s.photos.Store(*photo)
		if err != nil {
			s.logger.Error("create employee photo store failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, employeeerrors.ErrPhotoUploadFailed
		}
		photoPath = name
	}

	tx, qtx, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer rollback(tx)

	empl := &Employee{
		Name:       req.Name,
		Email:      req.Email,
		Department: dept,
		PhotoPath:  photoPath,
	}

	if err := qtx.Add(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil && tx != nil {
		event := events.EmployeeCreatedEvent{
			EventType:  "employee_created",
			RequestID:  rid,
			EmployeeID: empl.ID,
			Name:       empl.Name,
			Department: string(empl.Department),
			OccurredAt: time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "employee",
			AggregateID:   strconv.Itoa(empl.ID),
			EventType:     event.EventType,
			Topic:         events.EmployeeLifecycleTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.Int("employee_id", empl.ID),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := commit(tx); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateListCache(ctx)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.Int("employee_id", empl.ID),
	)

	return s.mapToResponse(*empl)
}

func (s *service) GetForEdit(ctx context.Context, id int) (EmployeeEditResponse, error) {
	empl, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		s.logger.Warn("edit load employee not found", zap.Int("employee_id", id))
		return EmployeeEditResponse{}, notFoundOr(err, id)
	}

	return EmployeeEditResponse{
		ID:                empl.ID,
		Name:              empl.Name,
		Email:             empl.Email,
		Department:        string(empl.Department),
		ExistingPhotoPath: empl.PhotoPath,
	}, nil
}

func (s *service) Update(
	ctx context.Context,
	id int,
	req UpdateEmployeeRequest,
	photo *photostore.Upload,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.Int("employee_id", id),
	)

	dept := Department(req.Department)
	if req.Department == "" {
		dept = DepartmentNone
	}
	if !dept.Valid() {
		return EmployeeResponse{}, employeeerrors.ErrInvalidDepartment
	}

	// The new photo is written up front, like Create; the old file is retired
	// only after the record update commits, so a failed update never leaves
	// the record referencing a deleted file.
	var newPhotoPath string
	if photo != nil {
		name, err := s.photos.Store(*photo)
		if err != nil {
			s.logger.Error("update employee photo store failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, employeeerrors.ErrPhotoUploadFailed
		}
		newPhotoPath = name
	}

	tx, qtx, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer rollback(tx)

	empl, err := qtx.GetEmployee(ctx, id)
	if err != nil {
		s.logger.Warn("update employee fetch existing failed", zap.Int("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, notFoundOr(err, id)
	}

	oldPhotoPath := empl.PhotoPath

	empl.Name = req.Name
	empl.Email = req.Email
	empl.Department = dept
	if newPhotoPath != "" {
		empl.PhotoPath = newPhotoPath
	}

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, notFoundOr(err, id)
	}

	if err := commit(tx); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	// Directory cleanliness only; the record already points at the new file.
	if newPhotoPath != "" && oldPhotoPath != "" && oldPhotoPath != newPhotoPath {
		if err := s.photos.Remove(oldPhotoPath); err != nil {
			s.logger.Warn("update employee old photo cleanup failed",
				zap.String("photo_path", oldPhotoPath),
				zap.Error(err),
			)
		}
	}

	s.invalidateListCache(ctx)

	s.logger.Info("update employee success", zap.Int("employee_id", id))

	return s.mapToResponse(*empl)
}

func (s *service) Delete(ctx context.Context, id int) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.Int("employee_id", id),
	)

	tx, qtx, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer rollback(tx)

	removed, err := qtx.Delete(ctx, id)
	if err != nil {
		s.logger.Warn("delete employee failed", zap.Int("employee_id", id), zap.Error(err))
		return notFoundOr(err, id)
	}

	if s.outbox != nil && tx != nil {
		event := events.EmployeeDeletedEvent{
			EventType:  "employee_deleted",
			RequestID:  rid,
			EmployeeID: removed.ID,
			OccurredAt: time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "employee",
			AggregateID:   strconv.Itoa(removed.ID),
			EventType:     event.EventType,
			Topic:         events.EmployeeLifecycleTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("delete employee outbox persist failed", zap.Error(err))
			return err
		}
	}

	if err := commit(tx); err != nil {
		s.logger.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	// Directory cleanliness only; the record is already gone.
	if removed.PhotoPath != "" {
		if err := s.photos.Remove(removed.PhotoPath); err != nil {
			s.logger.Warn("delete employee photo cleanup failed",
				zap.String("photo_path", removed.PhotoPath),
				zap.Error(err),
			)
		}
	}

	s.invalidateListCache(ctx)

	s.logger.Info("delete employee success", zap.Int("employee_id", id))
	return nil
}

func (s *service) invalidateListCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, ListCacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee list cache",
			zap.Error(err),
			zap.String("key", ListCacheKey),
		)
	}
}

func (s *service) mapToResponse(empl Employee) (EmployeeResponse, error) {
	token, err := s.protector.Protect(empl.ID)
	if err != nil {
		s.logger.Error("protect employee id failed", zap.Int("employee_id", empl.ID), zap.Error(err))
		return EmployeeResponse{}, err
	}

	return EmployeeResponse{
		ID:          empl.ID,
		Name:        empl.Name,
		Email:       empl.Email,
		Department:  string(empl.Department),
		PhotoPath:   empl.PhotoPath,
		EncryptedID: token,
	}, nil
}

func (s *service) mapToListResponse(empls []Employee) ([]EmployeeResponse, error) {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		resp, err := s.mapToResponse(e)
		if err != nil {
			return nil, err
		}
		res[i] = resp
	}
	return res, nil
}
