package employee

import (
	"time"
)

// Department is the closed set of departments an employee can belong to.
type Department string

const (
	DepartmentNone    Department = "None"
	DepartmentHR      Department = "HR"
	DepartmentIT      Department = "IT"
	DepartmentPayroll Department = "Payroll"
	DepartmentAdmin   Department = "Admin"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentNone, DepartmentHR, DepartmentIT, DepartmentPayroll, DepartmentAdmin:
		return true
	}
	return false
}

type Employee struct {
	ID         int        `gorm:"primaryKey"`
	Name       string     `gorm:"type:varchar(255);not null"`
	Email      string     `gorm:"type:varchar(255);not null"`
	Department Department `gorm:"type:varchar(20);not null;default:'None'"`
	// PhotoPath is the storage-relative filename of the uploaded photo, empty
	// when no photo was uploaded.
	PhotoPath string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
