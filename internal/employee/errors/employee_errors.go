package employeeerrors

import (
	"fmt"
	"net/http"

	"go-employee-directory/internal/shared/apperror"
)

var (
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	// ErrInvalidEmployeeToken means the opaque route token could not be
	// reversed at all; deliberately distinct from not-found.
	ErrInvalidEmployeeToken = apperror.New(
		apperror.CodeInvalidToken,
		"Invalid employee identifier",
		http.StatusBadRequest,
	)
	ErrInvalidDepartment = apperror.New(
		apperror.CodeInvalidInput,
		"Department must be one of: None, HR, IT, Payroll, Admin",
		http.StatusBadRequest,
	)
	ErrPhotoUploadFailed = apperror.New(
		apperror.CodeInternalError,
		"Photo upload failed",
		http.StatusInternalServerError,
	)
)

// NotFound reports a missing employee together with the id that was asked
// for, so the caller can say exactly what was not found.
func NotFound(id int) *apperror.AppError {
	return apperror.New(
		apperror.CodeNotFound,
		fmt.Sprintf("Employee with id = %d cannot be found", id),
		http.StatusNotFound,
	)
}
