package handlers

import (
	"net/http"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

// Board exposes the board routes and the card move
type Board struct {
	Boards *services.BoardService
	Moves  *services.MoveCoordinator
}

// BoardListHandler returns one page of the requester's boards, sorted by title
func (b Board) BoardListHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	page, err := b.Boards.ListBoards(ctx, userID, queryInt(r, "page"), queryInt(r, "itemsPerPage"))
	if err != nil {
		writeError(w, r, "failed to list boards", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateBoardHandler creates a board owned by the requester
func (b Board) CreateBoardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	var in services.CreateBoardInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	board, err := b.Boards.CreateBoard(ctx, userID, in)
	if err != nil {
		writeError(w, r, "failed to create board", err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// BoardHandler returns the nested board view
func (b Board) BoardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	detail, err := b.Boards.GetBoardDetail(ctx, userID, boardID)
	if err != nil {
		writeError(w, r, "failed to get board", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateBoardHandler edits the board fields or its column order
func (b Board) UpdateBoardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	var update models.BoardUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	board, err := b.Boards.UpdateBoard(ctx, userID, boardID, update)
	if err != nil {
		writeError(w, r, "failed to update board", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// MoveCardHandler moves a card to another column. The move is not bound to
// the request context so a client disconnect cannot stop it half way.
func (b Board) MoveCardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	var in services.MoveCardInput
	if !decodeBody(w, r, &in) {
		return
	}

	res, err := b.Moves.MoveCard(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, "failed to move card", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
