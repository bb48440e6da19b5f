package databases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/taskboard-api/models"
)

// fakeCollection answers Aggregate with a canned cursor and records the call
type fakeCollection struct {
	CollectionHelper
	pipeline interface{}
	opts     []*options.AggregateOptions
	cursor   CursorHelper
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (CursorHelper, error) {
	f.pipeline = pipeline
	f.opts = opts
	return f.cursor, nil
}

type fakeDatabase struct {
	DatabaseHelper
	coll CollectionHelper
}

func (f *fakeDatabase) Collection(string) CollectionHelper { return f.coll }

type fakeCursor struct {
	fill func(results interface{})
}

func (f *fakeCursor) All(ctx context.Context, results interface{}) error {
	f.fill(results)
	return nil
}

func (f *fakeCursor) Close(context.Context) error { return nil }

func TestMongoPaginate(t *testing.T) {
	p := newMongoPaginate(0, 0)
	assert.Equal(t, int64(DefaultItemsPerPage), p.limit)
	assert.Equal(t, int64(DefaultPage), p.page)
	assert.Equal(t, int64(0), p.skip())

	p = newMongoPaginate(12, 3)
	assert.Equal(t, int64(24), p.skip())
	assert.Equal(t, bson.A{bson.M{"$skip": int64(24)}, bson.M{"$limit": int64(12)}}, p.stages())
}

func TestBoardDatabase_FindPage(t *testing.T) {
	boardA := models.Board{ID: primitive.NewObjectID(), Title: "alpha"}
	boardB := models.Board{ID: primitive.NewObjectID(), Title: "Beta"}
	coll := &fakeCollection{cursor: &fakeCursor{fill: func(results interface{}) {
		out := results.(*[]boardPageResult)
		res := boardPageResult{Boards: []models.Board{boardA, boardB}}
		res.Total = append(res.Total, struct {
			Count int64 `bson:"countedAllBoards"`
		}{Count: 14})
		*out = []boardPageResult{res}
	}}}
	db := NewBoardDatabase(&fakeDatabase{coll: coll})

	boards, total, err := db.FindPage(context.Background(), primitive.NewObjectID(), 2, -1)

	assert.NoError(t, err)
	assert.Equal(t, int64(14), total)
	assert.Equal(t, []models.Board{boardA, boardB}, boards)
	if assert.Len(t, coll.opts, 1) {
		assert.Equal(t, "en", coll.opts[0].Collation.Locale)
	}
}

func TestBoardDatabase_FindPageEmpty(t *testing.T) {
	coll := &fakeCollection{cursor: &fakeCursor{fill: func(results interface{}) {
		out := results.(*[]boardPageResult)
		*out = []boardPageResult{{}}
	}}}
	db := NewBoardDatabase(&fakeDatabase{coll: coll})

	boards, total, err := db.FindPage(context.Background(), primitive.NewObjectID(), 5, 12)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.NotNil(t, boards)
	assert.Empty(t, boards)
}

func TestAccessFilter(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, bson.M{"$or": bson.A{bson.M{"ownerIds": id}, bson.M{"memberIds": id}}}, accessFilter(id))
}
