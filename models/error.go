package models

import (
	"errors"
	"strings"
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// PartialFailureResponse is written when a multi-step write stopped part way
type PartialFailureResponse struct {
	Kind           string `json:"kind"`
	Operation      string `json:"operation"`
	CompletedSteps int    `json:"completedSteps"`
	FailedStep     int    `json:"failedStep"`
	Error          string `json:"error"`
}

// HealthCheckResponse is the body returned by /health
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// ErrInvalidDocument is wrapped by every FieldErrors value
var ErrInvalidDocument = errors.New("invalid document")

// FieldError describes one rejected field
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors collects every rejected field of a document, like abortEarly=false
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+" "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidDocument
func (fe FieldErrors) Unwrap() error {
	return ErrInvalidDocument
}

