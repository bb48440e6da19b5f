package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// Reconciler rebuilds order arrays from the child documents' parent ids and
// finishes card moves that stopped part way.
type Reconciler struct {
	Repos *databases.Repositories
}

// ReconcileReport lists what one board pass rewrote
type ReconcileReport struct {
	BoardID             primitive.ObjectID   `json:"boardId"`
	ColumnOrderRepaired bool                 `json:"columnOrderRepaired"`
	RepairedColumns     []primitive.ObjectID `json:"repairedColumns"`
	DeletedOrphanCards  int64                `json:"deletedOrphanCards"`
}

// Changed reports whether the pass wrote anything
func (r ReconcileReport) Changed() bool {
	return r.ColumnOrderRepaired || len(r.RepairedColumns) > 0 || r.DeletedOrphanCards > 0
}

// ReconcileBoard makes columnOrderIds list exactly the board's live columns
// and every cardOrderIds list exactly the column's live cards. Listed ids keep
// their relative order, dead and repeated ids are dropped and unlisted ids are
// appended oldest first. Cards whose column no longer exists are deleted.
// Only arrays that differ are written.
func (r *Reconciler) ReconcileBoard(ctx context.Context, boardID primitive.ObjectID) (*ReconcileReport, error) {
	const op = "reconcileBoard"
	board, err := r.Repos.Boards.FindOne(ctx, boardID)
	if err != nil {
		return nil, classify(op, err)
	}
	columns, err := r.Repos.Columns.FindByBoard(ctx, boardID)
	if err != nil {
		return nil, classify(op, err)
	}
	cards, err := r.Repos.Cards.FindByBoard(ctx, boardID)
	if err != nil {
		return nil, classify(op, err)
	}

	report := &ReconcileReport{BoardID: boardID, RepairedColumns: []primitive.ObjectID{}}
	log := logging.FromContext(ctx).With("boardId", boardID.Hex())

	columnIDs := make([]child, 0, len(columns))
	live := make(map[primitive.ObjectID]bool, len(columns))
	for _, c := range columns {
		columnIDs = append(columnIDs, child{id: c.ID, createdAt: c.CreatedAt})
		live[c.ID] = true
	}
	if want := rebuild(board.ColumnOrderIDs, columnIDs); !want.Equal(board.ColumnOrderIDs) {
		if _, err := r.Repos.Boards.SetColumnOrderIDs(ctx, boardID, want); err != nil {
			return nil, classify(op, err)
		}
		log.Infow("column order repaired", "before", len(board.ColumnOrderIDs), "after", len(want))
		reconcileRepairs.WithLabelValues("column_order").Inc()
		report.ColumnOrderRepaired = true
	}

	byColumn := make(map[primitive.ObjectID][]child, len(columns))
	orphanColumns := make(map[primitive.ObjectID]bool)
	for _, c := range cards {
		if !live[c.ColumnID] {
			orphanColumns[c.ColumnID] = true
			continue
		}
		byColumn[c.ColumnID] = append(byColumn[c.ColumnID], child{id: c.ID, createdAt: c.CreatedAt})
	}
	for id := range orphanColumns {
		n, err := r.Repos.Cards.DeleteManyByColumnID(ctx, id)
		if err != nil {
			return nil, classify(op, err)
		}
		log.Infow("orphan cards deleted", "columnId", id.Hex(), "count", n)
		reconcileRepairs.WithLabelValues("orphan_cards").Add(float64(n))
		report.DeletedOrphanCards += n
	}

	for _, c := range columns {
		want := rebuild(c.CardOrderIDs, byColumn[c.ID])
		if want.Equal(c.CardOrderIDs) {
			continue
		}
		if _, err := r.Repos.Columns.SetCardOrderIDs(ctx, c.ID, want); err != nil {
			return nil, classify(op, err)
		}
		log.Infow("card order repaired", "columnId", c.ID.Hex(), "before", len(c.CardOrderIDs), "after", len(want))
		reconcileRepairs.WithLabelValues("card_order").Inc()
		report.RepairedColumns = append(report.RepairedColumns, c.ID)
	}
	return report, nil
}

// ReconcileAll runs ReconcileBoard over every live board. A failing board
// does not stop the pass, its error is joined into the result.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]ReconcileReport, error) {
	ids, err := r.Repos.Boards.FindIDs(ctx)
	if err != nil {
		return nil, classify("reconcileAll", err)
	}
	var (
		reports []ReconcileReport
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, classify("reconcileAll", err))
			break
		}
		report, err := r.ReconcileBoard(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("board %s: %w", id.Hex(), err))
			continue
		}
		if report.Changed() {
			reports = append(reports, *report)
		}
	}
	return reports, errors.Join(errs...)
}

// ResolveMoves finishes every card move still STARTED or FAILED that was
// last touched before the cutoff. A move that got both order arrays written
// has its card's columnId rolled forward, then the board is reconciled and
// the move marked RECONCILED. A move that is no longer the card's latest, or
// whose card has since left the source column, is never rolled forward and
// is marked SUPERSEDED instead. It returns how many moves were resolved.
func (r *Reconciler) ResolveMoves(ctx context.Context, before time.Time) (int, error) {
	const op = "resolveMoves"
	moves, err := r.Repos.CardMoves.FindUnresolved(ctx, before)
	if err != nil {
		return 0, classify(op, err)
	}

	resolved := 0
	var errs []error
	for _, move := range moves {
		log := logging.FromContext(ctx).With("moveId", move.ID.Hex(), "cardId", move.CardID.Hex(),
			"completedSteps", move.CompletedSteps, "status", move.Status)

		status, err := r.resolveCard(ctx, move)
		if err != nil {
			log.Errorw("could not roll card move forward", "error", err)
			errs = append(errs, classify(op, err))
			continue
		}
		if _, err := r.ReconcileBoard(ctx, move.BoardID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Errorw("could not reconcile board of card move", "error", err)
			errs = append(errs, err)
			continue
		}
		if err := r.Repos.CardMoves.Record(ctx, move.ID, move.CompletedSteps, status, move.Error); err != nil {
			errs = append(errs, classify(op, err))
			continue
		}
		reconcileRepairs.WithLabelValues("card_move").Inc()
		log.Infow("card move resolved", "resolution", status)
		resolved++
	}
	return resolved, errors.Join(errs...)
}

// resolveCard rolls the card of a half-written move into its destination
// when that is still what the user last asked for, and returns the status
// the move ends in.
func (r *Reconciler) resolveCard(ctx context.Context, move models.CardMove) (string, error) {
	latest, err := r.Repos.CardMoves.FindLatestByCard(ctx, move.CardID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}
	if latest != nil && latest.ID != move.ID {
		return models.CardMoveSuperseded, nil
	}
	if move.CompletedSteps < 2 {
		return models.CardMoveReconciled, nil
	}

	card, err := r.Repos.Cards.FindOne(ctx, move.CardID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CardMoveReconciled, nil
	}
	if err != nil {
		return "", err
	}
	switch card.ColumnID {
	case move.NextColumnID:
		return models.CardMoveReconciled, nil
	case move.PrevColumnID:
		_, err := r.Repos.Cards.SetColumnID(ctx, move.CardID, move.NextColumnID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return "", err
		}
		return models.CardMoveReconciled, nil
	}
	return models.CardMoveSuperseded, nil
}

type child struct {
	id        primitive.ObjectID
	createdAt time.Time
}

// rebuild keeps the valid ids of current in order, then appends the
// children current does not list, oldest first
func rebuild(current models.OrderIDs, children []child) models.OrderIDs {
	valid := make(map[primitive.ObjectID]bool, len(children))
	for _, c := range children {
		valid[c.id] = true
	}

	out := make(models.OrderIDs, 0, len(children))
	seen := make(map[primitive.ObjectID]bool, len(children))
	for _, id := range current {
		if valid[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}

	missing := make([]child, 0)
	for _, c := range children {
		if !seen[c.id] {
			missing = append(missing, c)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool { return missing[i].createdAt.Before(missing[j].createdAt) })
	for _, c := range missing {
		out = append(out, c.id)
	}
	return out
}
