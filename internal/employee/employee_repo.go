package employee

import (
	"context"
	"database/sql"

	"go-employee-directory/internal/shared/counter"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	GetEmployee(ctx context.Context, id int) (*Employee, error)
	GetAllEmployees(ctx context.Context) ([]Employee, error)
	// Add assigns a fresh unique id to the employee before insertion.
	Add(ctx context.Context, empl *Employee) error
	// Update copies Name, Email, Department and (only when set) PhotoPath
	// onto the stored record. A missing id is gorm.ErrRecordNotFound, never a
	// silent no-op.
	Update(ctx context.Context, empl *Employee) error
	// Delete returns the removed employee, or gorm.ErrRecordNotFound.
	Delete(ctx context.Context, id int) (*Employee, error)
}

type repository struct {
	db      *gorm.DB
	counter counter.Repository
	tx      *sql.Tx
}

func NewRepository(db *gorm.DB, counterRepo counter.Repository) Repository {
	return &repository{db: db, counter: counterRepo}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db:      r.db,
		counter: r.counter,
		tx:      tx,
	}
}

func (r *repository) GetEmployee(ctx context.Context, id int) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) GetAllEmployees(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) Add(ctx context.Context, empl *Employee) error {
	next, err := r.counter.GetNextValue(ctx, "employee_id")
	if err != nil {
		return err
	}
	empl.ID = int(next)

	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	changes := map[string]any{
		"name":       empl.Name,
		"email":      empl.Email,
		"department": empl.Department,
	}
	if empl.PhotoPath != "" {
		changes["photo_path"] = empl.PhotoPath
	}

	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("id = ?", empl.ID).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) (*Employee, error) {
	empl, err := r.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return empl, nil
}
