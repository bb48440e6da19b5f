package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// BoardService creates, lists, reads and edits boards
type BoardService struct {
	Repos *databases.Repositories
}

// CreateBoardInput is the client supplied part of a new board
type CreateBoardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// CreateBoard stores a new board owned by userID
func (s *BoardService) CreateBoard(ctx context.Context, userID primitive.ObjectID, in CreateBoardInput) (*models.Board, error) {
	title := sanitizePlain(in.Title)
	board := models.Board{
		Title:          title,
		Slug:           slugify(title),
		Description:    sanitizePlain(in.Description),
		Type:           in.Type,
		ColumnOrderIDs: models.OrderIDs{},
		OwnerIDs:       []primitive.ObjectID{userID},
		MemberIDs:      []primitive.ObjectID{},
		CreatedAt:      now(),
	}
	if err := board.Validate(); err != nil {
		return nil, classify("createBoard", err)
	}

	id, err := s.Repos.Boards.InsertOne(ctx, board)
	if err != nil {
		return nil, classify("createBoard", err)
	}
	board.ID = id
	logging.FromContext(ctx).Infow("board created", "boardId", id.Hex())
	return &board, nil
}

// GetBoardDetail returns the nested read model of a board the user can see.
// Missing, destroyed and foreign boards all come back as ErrNotFound.
func (s *BoardService) GetBoardDetail(ctx context.Context, userID, boardID primitive.ObjectID) (*models.BoardDetail, error) {
	agg, err := s.Repos.Boards.FindDetail(ctx, userID, boardID)
	if err != nil {
		return nil, classify("getBoardDetail", err)
	}
	detail := AssembleBoardDetail(ctx, *agg)
	return &detail, nil
}

// ListBoards returns one title-ordered page of the boards the user can see
func (s *BoardService) ListBoards(ctx context.Context, userID primitive.ObjectID, page, itemsPerPage int) (*models.BoardPage, error) {
	if page <= 0 {
		page = databases.DefaultPage
	}
	if itemsPerPage <= 0 {
		itemsPerPage = databases.DefaultItemsPerPage
	}
	boards, total, err := s.Repos.Boards.FindPage(ctx, userID, page, itemsPerPage)
	if err != nil {
		return nil, classify("listBoards", err)
	}
	if boards == nil {
		boards = []models.Board{}
	}
	return &models.BoardPage{Boards: boards, TotalBoards: total}, nil
}

// UpdateBoard edits the board fields. A new columnOrderIds must hold exactly
// the ids the board already lists.
func (s *BoardService) UpdateBoard(ctx context.Context, userID, boardID primitive.ObjectID, update models.BoardUpdate) (*models.Board, error) {
	board, err := s.Repos.Boards.FindAccessible(ctx, userID, boardID)
	if err != nil {
		return nil, classify("updateBoard", err)
	}

	update.Slug = nil
	if update.Title != nil {
		title := sanitizePlain(*update.Title)
		slug := slugify(title)
		update.Title = &title
		update.Slug = &slug
	}
	if update.Description != nil {
		d := sanitizePlain(*update.Description)
		update.Description = &d
	}
	if err := update.Validate(); err != nil {
		return nil, classify("updateBoard", err)
	}
	if update.ColumnOrderIDs != nil && !update.ColumnOrderIDs.IsPermutationOf(board.ColumnOrderIDs) {
		return nil, invalid("columnOrderIds", "must be a reordering of the board's columns")
	}

	updated, err := s.Repos.Boards.Update(ctx, boardID, update)
	if err != nil {
		return nil, classify("updateBoard", err)
	}
	return updated, nil
}
