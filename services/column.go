package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// ColumnService keeps board.columnOrderIds in step with the columns collection
type ColumnService struct {
	Repos *databases.Repositories
}

// CreateColumnInput is the client supplied part of a new column
type CreateColumnInput struct {
	BoardID primitive.ObjectID `json:"boardId"`
	Title   string             `json:"title"`
}

// DeleteColumnResult reports what a column deletion removed
type DeleteColumnResult struct {
	DeletedColumnID primitive.ObjectID `json:"deletedColumnId"`
	DeletedCards    int64              `json:"deletedCards"`
}

// CreateColumn inserts the column and then appends it to the board's
// columnOrderIds. If the append fails the column exists unreferenced and
// a PartialFailureError is returned.
func (s *ColumnService) CreateColumn(ctx context.Context, userID primitive.ObjectID, in CreateColumnInput) (*models.Column, error) {
	const op = "createColumn"
	if _, err := s.Repos.Boards.FindAccessible(ctx, userID, in.BoardID); err != nil {
		return nil, classify(op, err)
	}

	column := models.Column{
		BoardID:      in.BoardID,
		Title:        sanitizePlain(in.Title),
		CardOrderIDs: models.OrderIDs{},
		CreatedAt:    now(),
	}
	if err := column.Validate(); err != nil {
		return nil, classify(op, err)
	}

	id, err := s.Repos.Columns.InsertOne(ctx, column)
	if err != nil {
		return nil, classify(op, err)
	}
	column.ID = id

	if _, err := s.Repos.Boards.PushColumnOrderID(ctx, in.BoardID, id); err != nil {
		logging.FromContext(ctx).Errorw("column inserted but not added to board order",
			"boardId", in.BoardID.Hex(), "columnId", id.Hex(), "error", err)
		partialFailures.WithLabelValues(op).Inc()
		return nil, partialFailure(op, 1, err)
	}
	return &column, nil
}

// UpdateColumn edits the title or reorders the cards inside the column. A new
// cardOrderIds must hold exactly the ids the column already lists.
func (s *ColumnService) UpdateColumn(ctx context.Context, userID, columnID primitive.ObjectID, update models.ColumnUpdate) (*models.Column, error) {
	const op = "updateColumn"
	column, err := s.accessibleColumn(ctx, userID, columnID)
	if err != nil {
		return nil, classify(op, err)
	}

	if update.Title != nil {
		title := sanitizePlain(*update.Title)
		update.Title = &title
	}
	if err := update.Validate(); err != nil {
		return nil, classify(op, err)
	}
	if update.CardOrderIDs != nil && !update.CardOrderIDs.IsPermutationOf(column.CardOrderIDs) {
		return nil, invalid("cardOrderIds", "must be a reordering of the column's cards")
	}

	updated, err := s.Repos.Columns.Update(ctx, columnID, update)
	if err != nil {
		return nil, classify(op, err)
	}
	return updated, nil
}

// DeleteColumn removes the column, drops it from the board's columnOrderIds
// and deletes every card in it, in that order.
func (s *ColumnService) DeleteColumn(ctx context.Context, userID, columnID primitive.ObjectID) (*DeleteColumnResult, error) {
	const op = "deleteColumn"
	column, err := s.accessibleColumn(ctx, userID, columnID)
	if err != nil {
		return nil, classify(op, err)
	}
	log := logging.FromContext(ctx).With("boardId", column.BoardID.Hex(), "columnId", columnID.Hex())

	if _, err := s.Repos.Columns.DeleteOne(ctx, columnID); err != nil {
		return nil, classify(op, err)
	}
	if _, err := s.Repos.Boards.PullColumnOrderID(ctx, column.BoardID, columnID); err != nil {
		log.Errorw("column deleted but still listed on board", "error", err)
		partialFailures.WithLabelValues(op).Inc()
		return nil, partialFailure(op, 1, err)
	}
	n, err := s.Repos.Cards.DeleteManyByColumnID(ctx, columnID)
	if err != nil {
		log.Errorw("column deleted but its cards remain", "error", err)
		partialFailures.WithLabelValues(op).Inc()
		return nil, partialFailure(op, 2, err)
	}
	log.Infow("column deleted", "deletedCards", n)
	return &DeleteColumnResult{DeletedColumnID: columnID, DeletedCards: n}, nil
}

func (s *ColumnService) accessibleColumn(ctx context.Context, userID, columnID primitive.ObjectID) (*models.Column, error) {
	column, err := s.Repos.Columns.FindOne(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repos.Boards.FindAccessible(ctx, userID, column.BoardID); err != nil {
		return nil, err
	}
	return column, nil
}
