package databases

// go generate: mockery --name CardMoveDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/taskboard-api/models"
)

const cardMovesName = "card_moves"

// CardMoveDatabase contains the methods to use with the card move log
type CardMoveDatabase interface {
	InsertOne(ctx context.Context, move models.CardMove) (primitive.ObjectID, error)
	Record(ctx context.Context, moveID primitive.ObjectID, completedSteps int, status, errMsg string) error
	FindUnresolved(ctx context.Context, before time.Time) ([]models.CardMove, error)
	FindLatestByCard(ctx context.Context, cardID primitive.ObjectID) (*models.CardMove, error)
}

type cardMoveDatabase struct {
	db DatabaseHelper
}

// NewCardMoveDatabase initializes a new instance of card move database with the provided db connection
func NewCardMoveDatabase(db DatabaseHelper) CardMoveDatabase {
	return &cardMoveDatabase{
		db: db,
	}
}

func (c *cardMoveDatabase) InsertOne(ctx context.Context, move models.CardMove) (primitive.ObjectID, error) {
	res, err := c.db.Collection(cardMovesName).InsertOne(ctx, move)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

// Record stores the progress of a move
func (c *cardMoveDatabase) Record(ctx context.Context, moveID primitive.ObjectID, completedSteps int, status, errMsg string) error {
	_, err := c.db.Collection(cardMovesName).UpdateOne(ctx, bson.M{"_id": moveID}, bson.M{"$set": bson.M{
		"completedSteps": completedSteps,
		"status":         status,
		"error":          errMsg,
		"updatedAt":      now(),
	}})
	return err
}

// FindUnresolved returns moves that were started or failed before the given
// time and were never completed or reconciled, oldest first.
func (c *cardMoveDatabase) FindUnresolved(ctx context.Context, before time.Time) ([]models.CardMove, error) {
	filter := bson.M{
		"status":    bson.M{"$in": bson.A{models.CardMoveStarted, models.CardMoveFailed}},
		"updatedAt": bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := c.db.Collection(cardMovesName).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var moves []models.CardMove
	if err := cursor.All(ctx, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// FindLatestByCard returns the most recently started move of a card
func (c *cardMoveDatabase) FindLatestByCard(ctx context.Context, cardID primitive.ObjectID) (*models.CardMove, error) {
	move := &models.CardMove{}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	err := c.db.Collection(cardMovesName).FindOne(ctx, bson.M{"cardId": cardID}, opts).Decode(&move)
	if err != nil {
		return nil, err
	}
	return move, nil
}
