package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/databases/mocks"
	"github.com/linesmerrill/taskboard-api/models"
)

func TestInvitationDatabase_UpdateStatusIsConditional(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	invitationID := primitive.NewObjectID()
	srHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOneAndUpdate",
		context.Background(),
		bson.M{"_id": invitationID, "_destroy": false, "boardInvitation.status": models.InvitationPending},
		mock.Anything,
		mock.Anything,
	).Return(srHelper)
	dbHelper.On("Collection", "invitations").Return(collectionHelper)

	inv, err := databases.NewInvitationDatabase(dbHelper).UpdateStatus(context.Background(), invitationID, models.InvitationPending, models.InvitationAccepted)

	assert.Nil(t, inv)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	collectionHelper.AssertExpectations(t)
}

func TestInvitationDatabase_FindByInviteeEmpty(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", context.Background(), mock.Anything).Return(nil)
	cursor.On("Close", context.Background()).Return(nil)
	collectionHelper.On("Aggregate", context.Background(), mock.Anything).Return(cursor, nil)
	dbHelper.On("Collection", "invitations").Return(collectionHelper)

	views, err := databases.NewInvitationDatabase(dbHelper).FindByInvitee(context.Background(), primitive.NewObjectID())

	assert.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestCardMoveDatabase_Record(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	moveID := primitive.NewObjectID()
	collectionHelper.On("UpdateOne",
		context.Background(),
		bson.M{"_id": moveID},
		mock.MatchedBy(func(update bson.M) bool {
			set, ok := update["$set"].(bson.M)
			return ok && set["completedSteps"] == 2 && set["status"] == models.CardMoveFailed
		}),
	).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	dbHelper.On("Collection", "card_moves").Return(collectionHelper)

	err := databases.NewCardMoveDatabase(dbHelper).Record(context.Background(), moveID, 2, models.CardMoveFailed, "boom")

	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}

func TestCardMoveDatabase_FindUnresolvedError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("Find", context.Background(), mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "card_moves").Return(collectionHelper)

	moves, err := databases.NewCardMoveDatabase(dbHelper).FindUnresolved(context.Background(), time.Now())

	assert.Nil(t, moves)
	assert.EqualError(t, err, "mocked-error")
}

func TestSchedulerLockDatabase_TryAcquireLock(t *testing.T) {
	held := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

	tests := []struct {
		name      string
		decodeErr error
		owner     string
		want      bool
		wantErr   bool
	}{
		{name: "acquired", owner: "web.1", want: true},
		{name: "held elsewhere", decodeErr: held, want: false},
		{name: "storage error", decodeErr: errors.New("mocked-error"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper := &mocks.DatabaseHelper{}
			collectionHelper := &mocks.CollectionHelper{}
			srHelper := &mocks.SingleResultHelper{}

			call := srHelper.On("Decode", mock.Anything).Return(tt.decodeErr)
			if tt.decodeErr == nil {
				call.Run(func(args mock.Arguments) {
					arg := args.Get(0).(**models.SchedulerLock)
					(*arg).Owner = tt.owner
				})
			}
			collectionHelper.On("FindOneAndUpdate", context.Background(), mock.Anything, mock.Anything, mock.Anything).Return(srHelper)
			dbHelper.On("Collection", "scheduler_locks").Return(collectionHelper)

			got, err := databases.NewSchedulerLockDatabase(dbHelper).TryAcquireLock(context.Background(), "reconcile", "web.1", time.Minute)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedulerLockDatabase_ReleaseLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteOne", context.Background(), bson.M{"_id": "reconcile", "owner": "web.1"}).Return(int64(1), nil)
	dbHelper.On("Collection", "scheduler_locks").Return(collectionHelper)

	err := databases.NewSchedulerLockDatabase(dbHelper).ReleaseLock(context.Background(), "reconcile", "web.1")

	assert.NoError(t, err)
}

func TestCardMoveDatabase_FindLatestByCard(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}
	srHelperErr := &mocks.SingleResultHelper{}

	cardID, moveID, unmoved := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.CardMove)
		(*arg).ID = moveID
		(*arg).CardID = cardID
	})
	srHelperErr.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOne", context.Background(), bson.M{"cardId": cardID}, mock.Anything).Return(srHelper)
	collectionHelper.On("FindOne", context.Background(), bson.M{"cardId": unmoved}, mock.Anything).Return(srHelperErr)
	dbHelper.On("Collection", "card_moves").Return(collectionHelper)

	moves := databases.NewCardMoveDatabase(dbHelper)

	move, err := moves.FindLatestByCard(context.Background(), cardID)
	assert.NoError(t, err)
	assert.Equal(t, moveID, move.ID)

	move, err = moves.FindLatestByCard(context.Background(), unmoved)
	assert.Nil(t, move)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
