package handlers

import (
	"net/http"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

// Column exposes the column routes
type Column struct {
	Columns *services.ColumnService
}

// CreateColumnHandler appends a column to a board
func (c Column) CreateColumnHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	var in services.CreateColumnInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	column, err := c.Columns.CreateColumn(ctx, userID, in)
	if err != nil {
		writeError(w, r, "failed to create column", err)
		return
	}
	writeJSON(w, http.StatusCreated, column)
}

// UpdateColumnHandler renames a column or reorders its cards
func (c Column) UpdateColumnHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}
	var update models.ColumnUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	column, err := c.Columns.UpdateColumn(ctx, userID, columnID, update)
	if err != nil {
		writeError(w, r, "failed to update column", err)
		return
	}
	writeJSON(w, http.StatusOK, column)
}

// DeleteColumnHandler removes a column and its cards
func (c Column) DeleteColumnHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := c.Columns.DeleteColumn(ctx, userID, columnID)
	if err != nil {
		writeError(w, r, "failed to delete column", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
