package memdb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
)

type cardDoc models.Card

func (d cardDoc) clone() cardDoc { return cardDoc(models.Card(d).Clone()) }

type cardRepo struct {
	s *Store
}

var _ databases.CardDatabase = (*cardRepo)(nil)

func (r *cardRepo) InsertOne(ctx context.Context, card models.Card) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	card.ID = newID(card.ID)
	if _, ok := r.s.cards.docs[card.ID]; ok {
		return primitive.NilObjectID, duplicateKey("cards._id")
	}
	r.s.cards.insert(r.s, card.ID, cardDoc(card))
	return card.ID, nil
}

func (r *cardRepo) FindOne(ctx context.Context, cardID primitive.ObjectID) (*models.Card, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.cards.get(cardID)
	if !ok || doc.Destroy {
		return nil, mongo.ErrNoDocuments
	}
	card := models.Card(doc)
	return &card, nil
}

func (r *cardRepo) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Card, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Card
	for _, c := range r.s.cards.list(func(c cardDoc) bool { return c.BoardID == boardID && !c.Destroy }) {
		out = append(out, models.Card(c))
	}
	return out, nil
}

func (r *cardRepo) Update(ctx context.Context, cardID primitive.ObjectID, update models.CardUpdate) (*models.Card, error) {
	return r.modify(ctx, cardID, func(c *models.Card) {
		if update.Title != nil {
			c.Title = *update.Title
		}
		if update.Description != nil {
			c.Description = *update.Description
		}
		if update.Cover != nil {
			v := *update.Cover
			c.Cover = &v
		}
	})
}

func (r *cardRepo) SetColumnID(ctx context.Context, cardID, columnID primitive.ObjectID) (*models.Card, error) {
	return r.modify(ctx, cardID, func(c *models.Card) {
		c.ColumnID = columnID
	})
}

func (r *cardRepo) PushComment(ctx context.Context, cardID primitive.ObjectID, comment models.Comment) (*models.Card, error) {
	return r.modify(ctx, cardID, func(c *models.Card) {
		c.Comments = append([]models.Comment{comment}, c.Comments...)
	})
}

func (r *cardRepo) UpdateMembers(ctx context.Context, cardID, userID primitive.ObjectID, action string) (*models.Card, error) {
	return r.modify(ctx, cardID, func(c *models.Card) {
		kept := make([]primitive.ObjectID, 0, len(c.MemberIDs)+1)
		for _, id := range c.MemberIDs {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if action != models.CardMemberRemove {
			if len(kept) != len(c.MemberIDs) {
				return
			}
			kept = append(kept, userID)
		}
		c.MemberIDs = kept
	})
}

func (r *cardRepo) DeleteOne(ctx context.Context, cardID primitive.ObjectID) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.cards.remove(cardID) {
		return 1, nil
	}
	return 0, nil
}

func (r *cardRepo) DeleteManyByColumnID(ctx context.Context, columnID primitive.ObjectID) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, c := range r.s.cards.list(func(c cardDoc) bool { return c.ColumnID == columnID }) {
		if r.s.cards.remove(c.ID) {
			n++
		}
	}
	return n, nil
}

func (r *cardRepo) modify(ctx context.Context, cardID primitive.ObjectID, fn func(*models.Card)) (*models.Card, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.cards.get(cardID)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	card := models.Card(doc)
	fn(&card)
	t := now()
	card.UpdatedAt = &t
	r.s.cards.replace(cardID, cardDoc(card))
	return &card, nil
}
