package memdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
)

type boardDoc models.Board

func (d boardDoc) clone() boardDoc { return boardDoc(models.Board(d).Clone()) }

type boardRepo struct {
	s *Store
}

var _ databases.BoardDatabase = (*boardRepo)(nil)

func (r *boardRepo) InsertOne(ctx context.Context, board models.Board) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	board.ID = newID(board.ID)
	if _, ok := r.s.boards.docs[board.ID]; ok {
		return primitive.NilObjectID, duplicateKey("boards._id")
	}
	r.s.boards.insert(r.s, board.ID, boardDoc(board))
	return board.ID, nil
}

func (r *boardRepo) FindOne(ctx context.Context, boardID primitive.ObjectID) (*models.Board, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.boards.get(boardID)
	if !ok || doc.Destroy {
		return nil, mongo.ErrNoDocuments
	}
	board := models.Board(doc)
	return &board, nil
}

func (r *boardRepo) FindAccessible(ctx context.Context, userID, boardID primitive.ObjectID) (*models.Board, error) {
	board, err := r.FindOne(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnerOrMember(userID) {
		return nil, mongo.ErrNoDocuments
	}
	return board, nil
}

func (r *boardRepo) FindDetail(ctx context.Context, userID, boardID primitive.ObjectID) (*models.BoardAggregate, error) {
	board, err := r.FindAccessible(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	agg := &models.BoardAggregate{Board: *board}
	for _, c := range r.s.columns.list(func(c columnDoc) bool { return c.BoardID == boardID && !c.Destroy }) {
		agg.Columns = append(agg.Columns, models.Column(c))
	}
	for _, c := range r.s.cards.list(func(c cardDoc) bool { return c.BoardID == boardID && !c.Destroy }) {
		agg.Cards = append(agg.Cards, models.Card(c))
	}
	agg.Owners = r.s.summaries(board.OwnerIDs)
	agg.Members = r.s.summaries(board.MemberIDs)
	return agg, nil
}

// summaries resolves ids to users, skipping ids with no user like a $lookup does
func (s *Store) summaries(ids []primitive.ObjectID) []models.UserSummary {
	out := []models.UserSummary{}
	for _, id := range ids {
		if u, ok := s.users.get(id); ok {
			out = append(out, models.User(u).Summary())
		}
	}
	return out
}

func (r *boardRepo) FindPage(ctx context.Context, userID primitive.ObjectID, page, itemsPerPage int) ([]models.Board, int64, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = databases.DefaultPage
	}
	if itemsPerPage <= 0 {
		itemsPerPage = databases.DefaultItemsPerPage
	}

	r.s.mu.RLock()
	docs := r.s.boards.list(func(b boardDoc) bool {
		return !b.Destroy && models.Board(b).IsOwnerOrMember(userID)
	})
	r.s.mu.RUnlock()

	// collate.Collator keeps a buffer and is not safe for concurrent use
	col := collate.New(language.English)
	sort.SliceStable(docs, func(i, j int) bool {
		return col.CompareString(docs[i].Title, docs[j].Title) < 0
	})

	total := int64(len(docs))
	start := (page - 1) * itemsPerPage
	boards := []models.Board{}
	for i := start; i < len(docs) && i < start+itemsPerPage; i++ {
		boards = append(boards, models.Board(docs[i]))
	}
	return boards, total, nil
}

func (r *boardRepo) FindIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []primitive.ObjectID
	for _, b := range r.s.boards.list(func(b boardDoc) bool { return !b.Destroy }) {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func (r *boardRepo) Update(ctx context.Context, boardID primitive.ObjectID, update models.BoardUpdate) (*models.Board, error) {
	return r.modify(ctx, boardID, func(b *models.Board) {
		if update.Title != nil {
			b.Title = *update.Title
		}
		if update.Slug != nil {
			b.Slug = *update.Slug
		}
		if update.Description != nil {
			b.Description = *update.Description
		}
		if update.Type != nil {
			b.Type = *update.Type
		}
		if update.ColumnOrderIDs != nil {
			b.ColumnOrderIDs = update.ColumnOrderIDs.Clone()
		}
	})
}

func (r *boardRepo) PushColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error) {
	return r.modify(ctx, boardID, func(b *models.Board) {
		b.ColumnOrderIDs = append(b.ColumnOrderIDs, columnID)
	})
}

func (r *boardRepo) PullColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error) {
	return r.modify(ctx, boardID, func(b *models.Board) {
		b.ColumnOrderIDs = b.ColumnOrderIDs.Without(columnID)
	})
}

func (r *boardRepo) SetColumnOrderIDs(ctx context.Context, boardID primitive.ObjectID, ids models.OrderIDs) (*models.Board, error) {
	return r.modify(ctx, boardID, func(b *models.Board) {
		b.ColumnOrderIDs = ids.Clone()
	})
}

func (r *boardRepo) AddMember(ctx context.Context, boardID, userID primitive.ObjectID) (*models.Board, error) {
	return r.modify(ctx, boardID, func(b *models.Board) {
		for _, id := range b.MemberIDs {
			if id == userID {
				return
			}
		}
		b.MemberIDs = append(b.MemberIDs, userID)
	})
}

func (r *boardRepo) modify(ctx context.Context, boardID primitive.ObjectID, fn func(*models.Board)) (*models.Board, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.boards.get(boardID)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	board := models.Board(doc)
	fn(&board)
	t := now()
	board.UpdatedAt = &t
	r.s.boards.replace(boardID, boardDoc(board))
	return &board, nil
}
