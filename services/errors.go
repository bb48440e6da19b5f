package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/models"
)

// Error kinds surfaced by every operation. Handlers map them to status codes
// with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrPartialFailure     = errors.New("partial failure")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrAlreadyMember = fmt.Errorf("%w: user is already an owner or member of this board", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email is already registered", ErrConflict)
)

// PartialFailureError reports a multi-step write that stopped part way. The
// steps before FailedStep are persisted and were not undone.
type PartialFailureError struct {
	Operation      string
	CompletedSteps int
	FailedStep     int
	Err            error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: partial failure, %d step(s) completed, step %d failed: %v",
		e.Operation, e.CompletedSteps, e.FailedStep, e.Err)
}

// Unwrap returns the storage error of the failed step
func (e *PartialFailureError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPartialFailure) hold
func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func partialFailure(op string, completed int, err error) error {
	return &PartialFailureError{
		Operation:      op,
		CompletedSteps: completed,
		FailedStep:     completed + 1,
		Err:            err,
	}
}

const documentValidationFailure = 121

// classify maps a storage or model error onto one of the error kinds.
// Errors that already carry a kind pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrStorageUnavailable, ErrPartialFailure, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var se mongo.ServerError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	case errors.Is(err, models.ErrInvalidDocument):
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	case errors.As(err, &se) && se.HasErrorCode(documentValidationFailure):
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	default:
		// timeouts, cancellations and network errors
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
}

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %w", ErrValidation, models.FieldErrors{{Field: field, Message: msg}})
}
