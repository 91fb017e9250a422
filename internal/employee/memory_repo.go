package employee

import (
	"context"
	"database/sql"
	"sync"

	"gorm.io/gorm"
)

// memoryRepository is the seeded in-memory store variant used for demos and
// for running without a database. A single mutex serializes mutations so id
// allocation stays race-free; reads return copies, never internal pointers.
type memoryRepository struct {
	mu        sync.RWMutex
	employees []Employee
}

// NewMemoryRepository returns an in-memory repository pre-seeded with the
// canonical demo records.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		employees: []Employee{
			{ID: 1, Name: "Mary", Department: DepartmentHR, Email: "m@b.com"},
			{ID: 2, Name: "John", Department: DepartmentIT, Email: "j@b.com"},
			{ID: 3, Name: "Sam", Department: DepartmentPayroll, Email: "s@b.com"},
			{ID: 4, Name: "Sara", Department: DepartmentAdmin, Email: "s@b.com"},
			{ID: 5, Name: "Bob", Department: DepartmentNone, Email: "b@b.com"},
		},
	}
}

// NewEmptyMemoryRepository returns an in-memory repository with no records.
func NewEmptyMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) WithTx(tx *sql.Tx) Repository {
	// The in-memory variant has no transaction concept.
	return r
}

func (r *memoryRepository) GetEmployee(ctx context.Context, id int) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.employees {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepository) GetAllEmployees(ctx context.Context) ([]Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Employee, len(r.employees))
	copy(out, r.employees)
	return out, nil
}

func (r *memoryRepository) Add(ctx context.Context, empl *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxID := 0
	for _, e := range r.employees {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	empl.ID = maxID + 1
	r.employees = append(r.employees, *empl)
	return nil
}

func (r *memoryRepository) Update(ctx context.Context, empl *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.employees {
		if r.employees[i].ID == empl.ID {
			r.employees[i].Name = empl.Name
			r.employees[i].Email = empl.Email
			r.employees[i].Department = empl.Department
			if empl.PhotoPath != "" {
				r.employees[i].PhotoPath = empl.PhotoPath
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryRepository) Delete(ctx context.Context, id int) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.employees {
		if r.employees[i].ID == id {
			removed := r.employees[i]
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return &removed, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
