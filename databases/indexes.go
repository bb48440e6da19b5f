package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexes lists the secondary indexes each collection needs. The unique
// email index is what turns a racing second registration into a duplicate
// key error.
var indexes = map[string][]mongo.IndexModel{
	usersName: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	boardsName: {
		{Keys: bson.D{{Key: "ownerIds", Value: 1}, {Key: "_destroy", Value: 1}}},
		{Keys: bson.D{{Key: "memberIds", Value: 1}, {Key: "_destroy", Value: 1}}},
	},
	columnsName: {
		{Keys: bson.D{{Key: "boardId", Value: 1}}},
	},
	cardsName: {
		{Keys: bson.D{{Key: "boardId", Value: 1}}},
		{Keys: bson.D{{Key: "columnId", Value: 1}}},
	},
	invitationsName: {
		{Keys: bson.D{{Key: "inviteeId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	cardMovesName: {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: 1}}},
		{Keys: bson.D{{Key: "cardId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
}

// EnsureIndexes creates any missing index. Existing indexes with the same
// keys and options are left alone by the server.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for name, models := range indexes {
		if err := db.Collection(name).CreateIndexes(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
