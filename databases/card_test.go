package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/databases/mocks"
	"github.com/linesmerrill/taskboard-api/models"
)

func TestCardDatabase_UpdateMembers(t *testing.T) {
	cardID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	tests := []struct {
		name   string
		action string
		op     string
	}{
		{name: "add", action: models.CardMemberAdd, op: "$addToSet"},
		{name: "remove", action: models.CardMemberRemove, op: "$pull"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper := &mocks.DatabaseHelper{}
			collectionHelper := &mocks.CollectionHelper{}
			srHelper := &mocks.SingleResultHelper{}

			srHelper.On("Decode", mock.Anything).Return(nil)
			collectionHelper.On("FindOneAndUpdate",
				context.Background(),
				bson.M{"_id": cardID},
				mock.MatchedBy(func(update bson.M) bool {
					members, ok := update[tt.op].(bson.M)
					return ok && members["memberIds"] == userID
				}),
				mock.Anything,
			).Return(srHelper)
			dbHelper.On("Collection", "cards").Return(collectionHelper)

			_, err := databases.NewCardDatabase(dbHelper).UpdateMembers(context.Background(), cardID, userID, tt.action)

			assert.NoError(t, err)
			collectionHelper.AssertExpectations(t)
		})
	}
}

func TestCardDatabase_PushCommentPrepends(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	cardID := primitive.NewObjectID()
	comment := models.Comment{UserID: primitive.NewObjectID(), UserEmail: "a@b.co", Content: "hi"}

	srHelper.On("Decode", mock.Anything).Return(nil)
	collectionHelper.On("FindOneAndUpdate",
		context.Background(),
		bson.M{"_id": cardID},
		mock.MatchedBy(func(update bson.M) bool {
			push, ok := update["$push"].(bson.M)
			if !ok {
				return false
			}
			each, ok := push["comments"].(bson.M)
			return ok && each["$position"] == 0
		}),
		mock.Anything,
	).Return(srHelper)
	dbHelper.On("Collection", "cards").Return(collectionHelper)

	_, err := databases.NewCardDatabase(dbHelper).PushComment(context.Background(), cardID, comment)

	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}

func TestCardDatabase_DeleteManyByColumnIDFiltersOnColumn(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	columnID := primitive.NewObjectID()
	collectionHelper.On("DeleteMany", context.Background(), bson.M{"columnId": columnID}).Return(int64(3), nil)
	dbHelper.On("Collection", "cards").Return(collectionHelper)

	n, err := databases.NewCardDatabase(dbHelper).DeleteManyByColumnID(context.Background(), columnID)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCardDatabase_FindByBoard(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	boardID := primitive.NewObjectID()
	cardID := primitive.NewObjectID()
	cursor.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Card)
		*arg = []models.Card{{ID: cardID, BoardID: boardID}}
	})
	cursor.On("Close", context.Background()).Return(nil)
	collectionHelper.On("Find", context.Background(), bson.M{"boardId": boardID, "_destroy": false}).Return(cursor, nil)
	dbHelper.On("Collection", "cards").Return(collectionHelper)

	cards, err := databases.NewCardDatabase(dbHelper).FindByBoard(context.Background(), boardID)

	assert.NoError(t, err)
	assert.Equal(t, []models.Card{{ID: cardID, BoardID: boardID}}, cards)
}

func TestColumnDatabase_SetCardOrderIDs(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	columnID := primitive.NewObjectID()
	ids := models.OrderIDs{primitive.NewObjectID(), primitive.NewObjectID()}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Column)
		(*arg).ID = columnID
		(*arg).CardOrderIDs = ids
	})
	collectionHelper.On("FindOneAndUpdate",
		context.Background(),
		bson.M{"_id": columnID},
		mock.MatchedBy(func(update bson.M) bool {
			set, ok := update["$set"].(bson.M)
			if !ok {
				return false
			}
			got, ok := set["cardOrderIds"].(models.OrderIDs)
			return ok && got.Equal(ids)
		}),
		mock.Anything,
	).Return(srHelper)
	dbHelper.On("Collection", "columns").Return(collectionHelper)

	column, err := databases.NewColumnDatabase(dbHelper).SetCardOrderIDs(context.Background(), columnID, ids)

	assert.NoError(t, err)
	assert.Equal(t, ids, column.CardOrderIDs)
}

func TestColumnDatabase_DeleteOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	columnID := primitive.NewObjectID()
	collectionHelper.On("DeleteOne", context.Background(), bson.M{"_id": columnID}).Return(int64(1), nil)
	dbHelper.On("Collection", "columns").Return(collectionHelper)

	n, err := databases.NewColumnDatabase(dbHelper).DeleteOne(context.Background(), columnID)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
