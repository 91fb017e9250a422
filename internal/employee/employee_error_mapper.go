package employee

import (
	"errors"
	"strings"

	employeeerrors "go-employee-directory/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// mapRepositoryError translates persistence failures into the module's error
// vocabulary. Record-not-found is handled by callers that know the id; this
// mapper covers constraint violations and passes everything else through as a
// server error.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employee_email" {
			return employeeerrors.ErrEmployeeAlreadyExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_employee_email") {
		return employeeerrors.ErrEmployeeAlreadyExists
	}

	return err
}

// notFoundOr maps gorm.ErrRecordNotFound to the id-carrying not-found error
// and defers everything else to mapRepositoryError.
func notFoundOr(err error, id int) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.NotFound(id)
	}
	return mapRepositoryError(err)
}
