package memdb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
)

type moveDoc models.CardMove

func (d moveDoc) clone() moveDoc {
	out := d
	out.PrevCardOrderIDs = d.PrevCardOrderIDs.Clone()
	out.NextCardOrderIDs = d.NextCardOrderIDs.Clone()
	return out
}

type cardMoveRepo struct {
	s *Store
}

var _ databases.CardMoveDatabase = (*cardMoveRepo)(nil)

func (r *cardMoveRepo) InsertOne(ctx context.Context, move models.CardMove) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	move.ID = newID(move.ID)
	if _, ok := r.s.moves.docs[move.ID]; ok {
		return primitive.NilObjectID, duplicateKey("card_moves._id")
	}
	r.s.moves.insert(r.s, move.ID, moveDoc(move))
	return move.ID, nil
}

func (r *cardMoveRepo) Record(ctx context.Context, moveID primitive.ObjectID, completedSteps int, status, errMsg string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.moves.get(moveID)
	if !ok {
		// an update that matches nothing is not an error in mongo either
		return nil
	}
	doc.CompletedSteps = completedSteps
	doc.Status = status
	doc.Error = errMsg
	doc.UpdatedAt = now()
	r.s.moves.replace(moveID, doc)
	return nil
}

func (r *cardMoveRepo) FindUnresolved(ctx context.Context, before time.Time) ([]models.CardMove, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.CardMove
	for _, m := range r.s.moves.list(func(m moveDoc) bool {
		return (m.Status == models.CardMoveStarted || m.Status == models.CardMoveFailed) && m.UpdatedAt.Before(before)
	}) {
		out = append(out, models.CardMove(m))
	}
	return out, nil
}

func (r *cardMoveRepo) FindLatestByCard(ctx context.Context, cardID primitive.ObjectID) (*models.CardMove, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *models.CardMove
	for _, m := range r.s.moves.list(func(m moveDoc) bool { return m.CardID == cardID }) {
		// insertion order breaks createdAt ties
		if latest == nil || !m.CreatedAt.Before(latest.CreatedAt) {
			move := models.CardMove(m)
			latest = &move
		}
	}
	if latest == nil {
		return nil, mongo.ErrNoDocuments
	}
	return latest, nil
}

// Move returns a stored saga record
func (s *Store) Move(moveID primitive.ObjectID) (models.CardMove, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.moves.get(moveID)
	return models.CardMove(m), ok
}

// Moves returns every saga record in insertion order
func (s *Store) Moves() []models.CardMove {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CardMove
	for _, m := range s.moves.list(nil) {
		out = append(out, models.CardMove(m))
	}
	return out
}

type lockDoc models.SchedulerLock

type lockRepo struct {
	s *Store
}

var _ databases.SchedulerLockDatabase = (*lockRepo)(nil)

func (r *lockRepo) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	if err := alive(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := now()
	if l, ok := r.s.locks[name]; ok && l.Owner != owner && !l.ExpiresAt.Before(t) {
		return false, nil
	}
	r.s.locks[name] = lockDoc{Name: name, Owner: owner, ExpiresAt: t.Add(ttl)}
	return true, nil
}

func (r *lockRepo) ReleaseLock(ctx context.Context, name, owner string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l, ok := r.s.locks[name]; ok && l.Owner == owner {
		delete(r.s.locks, name)
	}
	return nil
}
