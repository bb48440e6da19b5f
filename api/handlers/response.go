package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/config"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// writeError maps the service error kinds onto status codes. A partial
// failure gets its own body so the client can tell it from a clean failure.
func writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	w.Header().Set("Content-Type", "application/json")

	var pf *services.PartialFailureError
	if errors.As(err, &pf) {
		logging.FromContext(r.Context()).Errorw(message,
			"operation", pf.Operation,
			"completedSteps", pf.CompletedSteps,
			"failedStep", pf.FailedStep,
			"error", pf.Err)
		writeJSON(w, http.StatusInternalServerError, models.PartialFailureResponse{
			Kind:           "partial_failure",
			Operation:      pf.Operation,
			CompletedSteps: pf.CompletedSteps,
			FailedStep:     pf.FailedStep,
			Error:          fmt.Sprint(pf.Err),
		})
		return
	}
	config.ErrorStatus(message, statusFor(err), w, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return false
	}
	return true
}

// requester is the user the auth middleware resolved
func requester(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, ok := api.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, "unauthorized", services.ErrUnauthorized)
	}
	return id, ok
}

// pathID parses a mux path variable as an object id
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	raw := mux.Vars(r)[name]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		writeError(w, r, fmt.Sprintf("invalid %s", name), fmt.Errorf("%w: %s %q is not a valid id", services.ErrValidation, name, raw))
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
