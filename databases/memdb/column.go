package memdb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
)

type columnDoc models.Column

func (d columnDoc) clone() columnDoc { return columnDoc(models.Column(d).Clone()) }

type columnRepo struct {
	s *Store
}

var _ databases.ColumnDatabase = (*columnRepo)(nil)

func (r *columnRepo) InsertOne(ctx context.Context, column models.Column) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	column.ID = newID(column.ID)
	if _, ok := r.s.columns.docs[column.ID]; ok {
		return primitive.NilObjectID, duplicateKey("columns._id")
	}
	r.s.columns.insert(r.s, column.ID, columnDoc(column))
	return column.ID, nil
}

func (r *columnRepo) FindOne(ctx context.Context, columnID primitive.ObjectID) (*models.Column, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.columns.get(columnID)
	if !ok || doc.Destroy {
		return nil, mongo.ErrNoDocuments
	}
	column := models.Column(doc)
	return &column, nil
}

func (r *columnRepo) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Column
	for _, c := range r.s.columns.list(func(c columnDoc) bool { return c.BoardID == boardID && !c.Destroy }) {
		out = append(out, models.Column(c))
	}
	return out, nil
}

func (r *columnRepo) Update(ctx context.Context, columnID primitive.ObjectID, update models.ColumnUpdate) (*models.Column, error) {
	return r.modify(ctx, columnID, func(c *models.Column) {
		if update.Title != nil {
			c.Title = *update.Title
		}
		if update.CardOrderIDs != nil {
			c.CardOrderIDs = update.CardOrderIDs.Clone()
		}
	})
}

func (r *columnRepo) PushCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error) {
	return r.modify(ctx, columnID, func(c *models.Column) {
		c.CardOrderIDs = append(c.CardOrderIDs, cardID)
	})
}

func (r *columnRepo) PullCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error) {
	return r.modify(ctx, columnID, func(c *models.Column) {
		c.CardOrderIDs = c.CardOrderIDs.Without(cardID)
	})
}

func (r *columnRepo) SetCardOrderIDs(ctx context.Context, columnID primitive.ObjectID, ids models.OrderIDs) (*models.Column, error) {
	return r.modify(ctx, columnID, func(c *models.Column) {
		c.CardOrderIDs = ids.Clone()
	})
}

func (r *columnRepo) DeleteOne(ctx context.Context, columnID primitive.ObjectID) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.columns.remove(columnID) {
		return 1, nil
	}
	return 0, nil
}

func (r *columnRepo) modify(ctx context.Context, columnID primitive.ObjectID, fn func(*models.Column)) (*models.Column, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.columns.get(columnID)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	column := models.Column(doc)
	fn(&column)
	t := now()
	column.UpdatedAt = &t
	r.s.columns.replace(columnID, columnDoc(column))
	return &column, nil
}
