package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-employee-directory/internal/employee"
	employeeerrors "go-employee-directory/internal/employee/errors"
	"go-employee-directory/internal/messaging/kafka"
	"go-employee-directory/internal/photostore"
	"go-employee-directory/internal/secureid"

	employeeMock "go-employee-directory/internal/employee/mock"
	kafkaMock "go-employee-directory/internal/messaging/kafka/mock"
	photoMock "go-employee-directory/internal/photostore/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

const testMasterKey = "0123456789abcdef0123456789abcdef"

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   employee.Service
	repo      *employeeMock.MockRepository
	photos    *photoMock.MockManager
	outbox    *kafkaMock.MockOutboxRepository
	protector *secureid.Protector
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	repo := employeeMock.NewMockRepository(ctrl)
	photos := photoMock.NewMockManager(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)

	protector, err := secureid.New([]byte(testMasterKey), "employee-id-route")
	require.NoError(t, err)

	svc := employee.NewServiceWithOutbox(db, repo, protector, photos, outboxRepo, nil)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		photos:    photos,
		outbox:    outboxRepo,
		protector: protector,
	}
}

func TestEmployeeService_List(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("annotates every employee with a route token", func(t *testing.T) {
		deps.repo.EXPECT().GetAllEmployees(gomock.Any()).Return([]employee.Employee{
			{ID: 1, Name: "Mary", Email: "mary@pragimtech.com", Department: employee.DepartmentHR},
			{ID: 2, Name: "John", Email: "john@pragimtech.com", Department: employee.DepartmentIT},
		}, nil)

		resp, err := deps.service.List(ctx)
		assert.NoError(t, err)
		assert.Len(t, resp, 2)

		for _, e := range resp {
			id, err := deps.protector.Unprotect(e.EncryptedID)
			assert.NoError(t, err)
			assert.Equal(t, e.ID, id)
		}
	})
}

func TestEmployeeService_ListCache(t *testing.T) {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_ = sqlMock

	rdb, redisMock := redismock.NewClientMock()
	repo := employeeMock.NewMockRepository(ctrl)
	photos := photoMock.NewMockManager(ctrl)
	protector, err := secureid.New([]byte(testMasterKey), "employee-id-route")
	require.NoError(t, err)

	svc := employee.NewService(db, repo, protector, photos, rdb)
	ctx := context.Background()

	t.Run("cache miss fills redis", func(t *testing.T) {
		redisMock.ExpectGet(employee.ListCacheKey).RedisNil()
		redisMock.Regexp().ExpectSet(employee.ListCacheKey, `.*`, time.Hour).SetVal("OK")

		deps := []employee.Employee{
			{ID: 1, Name: "Mary", Email: "mary@pragimtech.com", Department: employee.DepartmentHR},
		}
		repo.EXPECT().GetAllEmployees(gomock.Any()).Return(deps, nil)

		resp, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		cached := []employee.EmployeeResponse{
			{ID: 3, Name: "Sam", Email: "sam@pragimtech.com", Department: "IT", EncryptedID: "opaque"},
		}
		payload, err := json.Marshal(cached)
		require.NoError(t, err)

		redisMock.ExpectGet(employee.ListCacheKey).SetVal(string(payload))

		resp, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.Equal(t, cached, resp)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_Details(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		token, err := deps.protector.Protect(7)
		require.NoError(t, err)

		deps.repo.EXPECT().GetEmployee(gomock.Any(), 7).Return(&employee.Employee{
			ID: 7, Name: "Sara", Email: "sara@pragimtech.com", Department: employee.DepartmentHR,
		}, nil)

		resp, err := deps.service.Details(ctx, token)
		assert.NoError(t, err)
		assert.Equal(t, 7, resp.ID)
		assert.Equal(t, "Sara", resp.Name)
		assert.NotEmpty(t, resp.EncryptedID)
	})

	t.Run("unreadable token", func(t *testing.T) {
		_, err := deps.service.Details(ctx, "not-a-valid-token")
		assert.Equal(t, employeeerrors.ErrInvalidEmployeeToken, err)
	})

	t.Run("readable token for a missing record carries the id", func(t *testing.T) {
		token, err := deps.protector.Protect(42)
		require.NoError(t, err)

		deps.repo.EXPECT().GetEmployee(gomock.Any(), 42).Return(nil, gorm.ErrRecordNotFound)

		_, err = deps.service.Details(ctx, token)
		assert.Equal(t, employeeerrors.NotFound(42), err)
	})
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success without photo", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, empl *employee.Employee) error {
				empl.ID = 6
				return nil
			},
		)

		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event kafka.OutboxEvent) error {
				assert.Equal(t, "employee_created", event.EventType)
				assert.Equal(t, "employee", event.AggregateType)
				assert.Equal(t, "6", event.AggregateID)
				assert.Equal(t, kafka.OutboxStatusPending, event.Status)
				return nil
			},
		)

		resp, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			Name:       "New Hire",
			Email:      "new@pragimtech.com",
			Department: "IT",
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, 6, resp.ID)
		assert.Equal(t, "IT", resp.Department)
		assert.NotEmpty(t, resp.EncryptedID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("empty department defaults to None", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, empl *employee.Employee) error {
				assert.Equal(t, employee.DepartmentNone, empl.Department)
				empl.ID = 6
				return nil
			},
		)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			Name:  "New Hire",
			Email: "new@pragimtech.com",
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, "None", resp.Department)
	})

	t.Run("photo is stored and its name persisted", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		upload := &photostore.Upload{Filename: "avatar.jpg"}
		deps.photos.EXPECT().Store(gomock.Any()).Return("uuid_avatar.jpg", nil)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, empl *employee.Employee) error {
				assert.Equal(t, "uuid_avatar.jpg", empl.PhotoPath)
				empl.ID = 6
				return nil
			},
		)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			Name:  "New Hire",
			Email: "new@pragimtech.com",
		}, upload)

		assert.NoError(t, err)
		assert.Equal(t, "uuid_avatar.jpg", resp.PhotoPath)
	})

	t.Run("failed photo write aborts before the record exists", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		upload := &photostore.Upload{Filename: "avatar.jpg"}
		deps.photos.EXPECT().Store(gomock.Any()).Return("", errors.New("disk full"))

		_, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			Name:  "New Hire",
			Email: "new@pragimtech.com",
		}, upload)

		assert.Equal(t, employeeerrors.ErrPhotoUploadFailed, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown department rejected", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			Name:       "New Hire",
			Email:      "new@pragimtech.com",
			Department: "Sales",
		}, nil)

		assert.Equal(t, employeeerrors.ErrInvalidDepartment, err)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("success keeps existing photo when none supplied", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		existing := &employee.Employee{
			ID: 3, Name: "Sam", Email: "sam@pragimtech.com",
			Department: employee.DepartmentIT, PhotoPath: "old.jpg",
		}

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().GetEmployee(gomock.Any(), 3).Return(existing, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, empl *employee.Employee) error {
				assert.Equal(t, "Sam Smith", empl.Name)
				assert.Equal(t, "old.jpg", empl.PhotoPath)
				return nil
			},
		)

		resp, err := deps.service.Update(ctx, 3, employee.UpdateEmployeeRequest{
			Name:       "Sam Smith",
			Email:      "sam@pragimtech.com",
			Department: "IT",
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, "old.jpg", resp.PhotoPath)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("new photo is persisted before the old file is retired", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		upload := &photostore.Upload{Filename: "new.jpg"}
		deps.photos.EXPECT().Store(gomock.Any()).Return("uuid_new.jpg", nil)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		existing := &employee.Employee{
			ID: 3, Name: "Sam", Email: "sam@pragimtech.com",
			Department: employee.DepartmentIT, PhotoPath: "old.jpg",
		}

		updated := false
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().GetEmployee(gomock.Any(), 3).Return(existing, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, empl *employee.Employee) error {
				assert.Equal(t, "uuid_new.jpg", empl.PhotoPath)
				updated = true
				return nil
			},
		)
		deps.photos.EXPECT().Remove("old.jpg").DoAndReturn(func(string) error {
			assert.True(t, updated, "old photo retired before the record was updated")
			return nil
		})

		resp, err := deps.service.Update(ctx, 3, employee.UpdateEmployeeRequest{
			Name:       "Sam",
			Email:      "sam@pragimtech.com",
			Department: "IT",
		}, upload)

		assert.NoError(t, err)
		assert.Equal(t, "uuid_new.jpg", resp.PhotoPath)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("failed persist leaves the old photo in place", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		upload := &photostore.Upload{Filename: "new.jpg"}
		deps.photos.EXPECT().Store(gomock.Any()).Return("uuid_new.jpg", nil)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		existing := &employee.Employee{
			ID: 3, Name: "Sam", Email: "sam@pragimtech.com",
			Department: employee.DepartmentIT, PhotoPath: "old.jpg",
		}

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().GetEmployee(gomock.Any(), 3).Return(existing, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errors.New("storage down"))

		// No Remove expectation: the record still references old.jpg, so
		// retiring it here would strand the record on a deleted file.
		_, err := deps.service.Update(ctx, 3, employee.UpdateEmployeeRequest{
			Name:       "Sam",
			Email:      "sam@pragimtech.com",
			Department: "IT",
		}, upload)

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("failed photo write aborts before the record is touched", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		upload := &photostore.Upload{Filename: "new.jpg"}
		deps.photos.EXPECT().Store(gomock.Any()).Return("", errors.New("disk full"))

		_, err := deps.service.Update(ctx, 3, employee.UpdateEmployeeRequest{
			Name:       "Sam",
			Email:      "sam@pragimtech.com",
			Department: "IT",
		}, upload)

		assert.Equal(t, employeeerrors.ErrPhotoUploadFailed, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("missing employee is an explicit not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().GetEmployee(gomock.Any(), 99).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Update(ctx, 99, employee.UpdateEmployeeRequest{
			Name:  "Ghost",
			Email: "ghost@pragimtech.com",
		}, nil)

		assert.Equal(t, employeeerrors.NotFound(99), err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success removes the photo after commit", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		removed := &employee.Employee{
			ID: 2, Name: "John", Email: "john@pragimtech.com",
			Department: employee.DepartmentIT, PhotoPath: "john.jpg",
		}

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Delete(gomock.Any(), 2).Return(removed, nil)

		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event kafka.OutboxEvent) error {
				assert.Equal(t, "employee_deleted", event.EventType)
				assert.Equal(t, "2", event.AggregateID)
				return nil
			},
		)

		deps.photos.EXPECT().Remove("john.jpg").Return(nil)

		err := deps.service.Delete(ctx, 2)
		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("missing employee is an explicit not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Delete(gomock.Any(), 404).Return(nil, gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, 404)
		assert.Equal(t, employeeerrors.NotFound(404), err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
