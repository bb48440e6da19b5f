package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

func TestReconcileBoardRepairsOrderArrays(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1@example.com")
	b := f.board(t, u1, "Board")
	c1 := f.column(t, u1, b, "First")
	c2 := f.column(t, u1, b, "Second")
	a := f.card(t, u1, b, c1, "Card A")
	bb := f.card(t, u1, b, c1, "Card B")
	dead := primitive.NewObjectID()

	// duplicate, dead and missing ids
	_, err := f.repos.Boards.SetColumnOrderIDs(f.ctx, b, models.OrderIDs{c2, dead, c2})
	require.NoError(t, err)
	_, err = f.repos.Columns.SetCardOrderIDs(f.ctx, c1, models.OrderIDs{bb})
	require.NoError(t, err)

	report, err := f.svc.Reconciler.ReconcileBoard(f.ctx, b)
	require.NoError(t, err)
	assert.True(t, report.ColumnOrderRepaired)
	assert.Equal(t, []primitive.ObjectID{c1}, report.RepairedColumns)

	assert.Equal(t, models.OrderIDs{c2, c1}, f.columnOrder(t, b))
	assert.Equal(t, models.OrderIDs{bb, a}, f.cardOrder(t, c1))
	assertOrderInvariants(t, f, b)

	again, err := f.svc.Reconciler.ReconcileBoard(f.ctx, b)
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestReconcileBoardDeletesOrphanCards(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1@example.com")
	b := f.board(t, u1, "Board")
	c1 := f.column(t, u1, b, "Doomed")
	orphan := f.card(t, u1, b, c1, "Orphan")

	_, err := f.repos.Columns.DeleteOne(f.ctx, c1)
	require.NoError(t, err)

	report, err := f.svc.Reconciler.ReconcileBoard(f.ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.DeletedOrphanCards)
	assert.Empty(t, f.columnOrder(t, b))
	_, err = f.repos.Cards.FindOne(f.ctx, orphan)
	assert.Error(t, err)
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1@example.com")
	clean := f.board(t, u1, "Clean")
	f.column(t, u1, clean, "Column")
	broken := f.board(t, u1, "Broken")
	col := f.column(t, u1, broken, "Column")
	_, err := f.repos.Boards.SetColumnOrderIDs(f.ctx, broken, models.OrderIDs{})
	require.NoError(t, err)

	reports, err := f.svc.Reconciler.ReconcileAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, broken, reports[0].BoardID)
	assert.Equal(t, models.OrderIDs{col}, f.columnOrder(t, broken))
}

func TestResolveMoves(t *testing.T) {
	tests := []struct {
		name        string
		fail        func(r *databases.Repositories, c2 primitive.ObjectID)
		wantSteps   int
		wantColumn  func(c1, c2 primitive.ObjectID) primitive.ObjectID
		wantC1Order func(card1, card2 primitive.ObjectID) models.OrderIDs
	}{
		{
			name: "stopped after the source write",
			fail: func(r *databases.Repositories, c2 primitive.ObjectID) {
				r.Columns = failingColumns{ColumnDatabase: r.Columns, failSetOn: c2}
			},
			wantSteps:   1,
			wantColumn:  func(c1, _ primitive.ObjectID) primitive.ObjectID { return c1 },
			wantC1Order: func(card1, card2 primitive.ObjectID) models.OrderIDs { return models.OrderIDs{card2, card1} },
		},
		{
			name: "stopped before the card write",
			fail: func(r *databases.Repositories, _ primitive.ObjectID) {
				r.Cards = failingCards{CardDatabase: r.Cards}
			},
			wantSteps:   2,
			wantColumn:  func(_, c2 primitive.ObjectID) primitive.ObjectID { return c2 },
			wantC1Order: func(_, card2 primitive.ObjectID) models.OrderIDs { return models.OrderIDs{card2} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			u1 := f.user(t, "u1@example.com")
			b := f.board(t, u1, "Board")
			c1 := f.column(t, u1, b, "Source")
			c2 := f.column(t, u1, b, "Target")
			card1 := f.card(t, u1, b, c1, "Card One")
			card2 := f.card(t, u1, b, c1, "Card Two")

			broken := f.rewire(func(r *databases.Repositories) { tt.fail(r, c2) })
			_, err := broken.Moves.MoveCard(f.ctx, u1, services.MoveCardInput{
				CurrentCardID:    card1,
				PrevColumnID:     c1,
				PrevCardOrderIDs: models.OrderIDs{card2},
				NextColumnID:     c2,
				NextCardOrderIDs: models.OrderIDs{card1},
			})
			require.ErrorIs(t, err, services.ErrPartialFailure)
			moves := f.store.Moves()
			require.Len(t, moves, 1)
			require.Equal(t, tt.wantSteps, moves[0].CompletedSteps)

			// still inside the grace period
			n, err := f.svc.Reconciler.ResolveMoves(f.ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = f.svc.Reconciler.ResolveMoves(f.ctx, time.Now().Add(time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			assert.Equal(t, tt.wantColumn(c1, c2), f.columnOf(t, card1))
			assert.Equal(t, tt.wantC1Order(card1, card2), f.cardOrder(t, c1))
			assertOrderInvariants(t, f, b)

			move, ok := f.store.Move(moves[0].ID)
			require.True(t, ok)
			assert.Equal(t, models.CardMoveReconciled, move.Status)

			n, err = f.svc.Reconciler.ResolveMoves(f.ctx, time.Now().Add(time.Minute))
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestResolveMovesKeepsLaterMove(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1@example.com")
	b := f.board(t, u1, "Board")
	c1 := f.column(t, u1, b, "Source")
	c2 := f.column(t, u1, b, "Abandoned")
	c3 := f.column(t, u1, b, "Chosen")
	card1 := f.card(t, u1, b, c1, "Card One")

	broken := f.rewire(func(r *databases.Repositories) { r.Cards = failingCards{CardDatabase: r.Cards} })
	_, err := broken.Moves.MoveCard(f.ctx, u1, services.MoveCardInput{
		CurrentCardID:    card1,
		PrevColumnID:     c1,
		PrevCardOrderIDs: models.OrderIDs{},
		NextColumnID:     c2,
		NextCardOrderIDs: models.OrderIDs{card1},
	})
	require.ErrorIs(t, err, services.ErrPartialFailure)

	// the user retries into a different column
	_, err = f.svc.Moves.MoveCard(f.ctx, u1, services.MoveCardInput{
		CurrentCardID:    card1,
		PrevColumnID:     c1,
		PrevCardOrderIDs: models.OrderIDs{},
		NextColumnID:     c3,
		NextCardOrderIDs: models.OrderIDs{card1},
	})
	require.NoError(t, err)

	n, err := f.svc.Reconciler.ResolveMoves(f.ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, c3, f.columnOf(t, card1))
	assert.Equal(t, models.OrderIDs{card1}, f.cardOrder(t, c3))
	assert.Empty(t, f.cardOrder(t, c2))
	assertOrderInvariants(t, f, b)

	moves := f.store.Moves()
	require.Len(t, moves, 2)
	assert.Equal(t, models.CardMoveSuperseded, moves[0].Status)
	assert.Equal(t, models.CardMoveCompleted, moves[1].Status)
}
