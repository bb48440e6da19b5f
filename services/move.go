package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// DefaultMoveTimeout bounds a whole move once its first write is issued
const DefaultMoveTimeout = 30 * time.Second

// MoveCardInput is the client's view of a move: the card, and the full
// order of both columns after the move.
type MoveCardInput struct {
	CurrentCardID    primitive.ObjectID `json:"currentCardId"`
	PrevColumnID     primitive.ObjectID `json:"prevColumnId"`
	PrevCardOrderIDs models.OrderIDs    `json:"prevCardOrderIds"`
	NextColumnID     primitive.ObjectID `json:"nextColumnId"`
	NextCardOrderIDs models.OrderIDs    `json:"nextCardOrderIds"`
}

// MoveResult acknowledges a completed move
type MoveResult struct {
	MoveID       primitive.ObjectID `json:"moveId"`
	UpdateResult string             `json:"updateResult"`
}

// MoveCoordinator moves a card between columns as a recorded three step saga.
// The writes are not transactional. Every step is an idempotent overwrite, so
// repeating a failed move with the same input finishes it.
type MoveCoordinator struct {
	Repos   *databases.Repositories
	Timeout time.Duration
}

// MoveCard checks the input against stored state, then writes the source
// order, the destination order and the card's columnId in that order. A write
// failure after the first step returns a PartialFailureError and leaves the
// saga FAILED for the reconciler.
func (m *MoveCoordinator) MoveCard(ctx context.Context, userID primitive.ObjectID, in MoveCardInput) (*MoveResult, error) {
	const op = "moveCard"
	card, err := m.check(ctx, userID, in)
	if err != nil {
		return nil, classify(op, err)
	}
	if in.PrevColumnID == in.NextColumnID {
		// a reorder inside one column, the destination order wins
		in.PrevCardOrderIDs = in.NextCardOrderIDs
	}

	move := models.CardMove{
		CardID:           in.CurrentCardID,
		BoardID:          card.BoardID,
		RequesterID:      userID,
		PrevColumnID:     in.PrevColumnID,
		PrevCardOrderIDs: in.PrevCardOrderIDs.Clone(),
		NextColumnID:     in.NextColumnID,
		NextCardOrderIDs: in.NextCardOrderIDs.Clone(),
		Status:           models.CardMoveStarted,
		CreatedAt:        now(),
	}
	move.UpdatedAt = move.CreatedAt
	moveID, err := m.Repos.CardMoves.InsertOne(ctx, move)
	if err != nil {
		cardMoves.WithLabelValues("rejected").Inc()
		return nil, classify(op, err)
	}

	// the request may go away, the saga may not stop half way
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultMoveTimeout
	}
	sagaCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	log := logging.FromContext(ctx).With("moveId", moveID.Hex(), "cardId", in.CurrentCardID.Hex(),
		"prevColumnId", in.PrevColumnID.Hex(), "nextColumnId", in.NextColumnID.Hex())

	steps := []func(context.Context) error{
		func(ctx context.Context) error {
			_, err := m.Repos.Columns.SetCardOrderIDs(ctx, in.PrevColumnID, in.PrevCardOrderIDs)
			return err
		},
		func(ctx context.Context) error {
			_, err := m.Repos.Columns.SetCardOrderIDs(ctx, in.NextColumnID, in.NextCardOrderIDs)
			return err
		},
		func(ctx context.Context) error {
			_, err := m.Repos.Cards.SetColumnID(ctx, in.CurrentCardID, in.NextColumnID)
			return err
		},
	}

	for i, step := range steps {
		if err := step(sagaCtx); err != nil {
			log.Errorw("card move step failed", "step", i+1, "completedSteps", i, "error", err)
			m.record(sagaCtx, log, moveID, i, models.CardMoveFailed, err.Error())
			cardMoves.WithLabelValues("failed").Inc()
			if i == 0 {
				return nil, classify(op, err)
			}
			partialFailures.WithLabelValues(op).Inc()
			return nil, partialFailure(op, i, err)
		}
		log.Debugw("card move step done", "step", i+1)
		status := models.CardMoveStarted
		if i+1 == len(steps) {
			status = models.CardMoveCompleted
		}
		m.record(sagaCtx, log, moveID, i+1, status, "")
	}

	cardMoves.WithLabelValues("completed").Inc()
	log.Infow("card moved")
	return &MoveResult{MoveID: moveID, UpdateResult: "Successfully!"}, nil
}

// record advances the saga document. It never fails the move.
func (m *MoveCoordinator) record(ctx context.Context, log *zap.SugaredLogger, moveID primitive.ObjectID, completed int, status, errMsg string) {
	if err := m.Repos.CardMoves.Record(ctx, moveID, completed, status, errMsg); err != nil {
		log.Warnw("could not record card move progress", "completedSteps", completed, "status", status, "error", err)
	}
}

// check runs every read-only precondition of a move
func (m *MoveCoordinator) check(ctx context.Context, userID primitive.ObjectID, in MoveCardInput) (*models.Card, error) {
	if in.CurrentCardID.IsZero() || in.PrevColumnID.IsZero() || in.NextColumnID.IsZero() {
		return nil, invalid("currentCardId", "card and both column ids are required")
	}
	if in.PrevCardOrderIDs.HasDuplicates() {
		return nil, invalid("prevCardOrderIds", "must not contain duplicates")
	}
	if in.NextCardOrderIDs.HasDuplicates() {
		return nil, invalid("nextCardOrderIds", "must not contain duplicates")
	}
	if !in.NextCardOrderIDs.Contains(in.CurrentCardID) {
		return nil, invalid("nextCardOrderIds", "must contain the moved card")
	}
	if in.PrevColumnID != in.NextColumnID && in.PrevCardOrderIDs.Contains(in.CurrentCardID) {
		return nil, invalid("prevCardOrderIds", "must not contain the moved card")
	}

	card, err := m.Repos.Cards.FindOne(ctx, in.CurrentCardID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Repos.Boards.FindAccessible(ctx, userID, card.BoardID); err != nil {
		return nil, err
	}
	if card.ColumnID != in.PrevColumnID && card.ColumnID != in.NextColumnID {
		return nil, invalid("prevColumnId", "card is not in either column")
	}

	for _, id := range []primitive.ObjectID{in.PrevColumnID, in.NextColumnID} {
		column, err := m.Repos.Columns.FindOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if column.BoardID != card.BoardID {
			return nil, invalid("nextColumnId", "column does not belong to the card's board")
		}
	}
	return card, nil
}
