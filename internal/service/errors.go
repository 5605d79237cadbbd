package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// storeError passes typed errors through, maps unique violations to Conflict
// and wraps anything else as internal.
func storeError(err error, conflictCode, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if database.IsUniqueViolation(err) {
		return &apperr.Error{Kind: apperr.KindConflict, Code: conflictCode, Message: conflictMsg, Cause: err}
	}
	return apperr.Internal(err)
}

func internalErr(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Internal(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Page selects a window of a newest-first list.
type Page struct {
	Cursor *int64
	Limit  int
}

func (p Page) validate() error {
	if p.Limit < 1 || p.Limit > maxPageLimit {
		return apperr.InvalidOperation(apperr.CodeInvalidPageLimit, "limit must be between 1 and 50")
	}
	return nil
}

// nextCursor returns the id of the last row when the page is full.
func nextCursor(lastID int64, got, limit int) *int64 {
	if got < limit || got == 0 {
		return nil
	}
	return &lastID
}

func isUnique(err error) bool {
	return database.IsUniqueViolation(err)
}
