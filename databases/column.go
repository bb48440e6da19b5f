package databases

// go generate: mockery --name ColumnDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

const columnsName = "columns"

// ColumnDatabase contains the methods to use with the column database
type ColumnDatabase interface {
	InsertOne(ctx context.Context, column models.Column) (primitive.ObjectID, error)
	FindOne(ctx context.Context, columnID primitive.ObjectID) (*models.Column, error)
	FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error)
	Update(ctx context.Context, columnID primitive.ObjectID, update models.ColumnUpdate) (*models.Column, error)
	PushCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error)
	PullCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error)
	SetCardOrderIDs(ctx context.Context, columnID primitive.ObjectID, ids models.OrderIDs) (*models.Column, error)
	DeleteOne(ctx context.Context, columnID primitive.ObjectID) (int64, error)
}

type columnDatabase struct {
	db DatabaseHelper
}

// NewColumnDatabase initializes a new instance of column database with the provided db connection
func NewColumnDatabase(db DatabaseHelper) ColumnDatabase {
	return &columnDatabase{
		db: db,
	}
}

func (c *columnDatabase) InsertOne(ctx context.Context, column models.Column) (primitive.ObjectID, error) {
	res, err := c.db.Collection(columnsName).InsertOne(ctx, column)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

func (c *columnDatabase) FindOne(ctx context.Context, columnID primitive.ObjectID) (*models.Column, error) {
	column := &models.Column{}
	err := c.db.Collection(columnsName).FindOne(ctx, bson.M{"_id": columnID, "_destroy": false}).Decode(&column)
	if err != nil {
		return nil, err
	}
	return column, nil
}

func (c *columnDatabase) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error) {
	cursor, err := c.db.Collection(columnsName).Find(ctx, bson.M{"boardId": boardID, "_destroy": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var columns []models.Column
	if err := cursor.All(ctx, &columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func (c *columnDatabase) Update(ctx context.Context, columnID primitive.ObjectID, update models.ColumnUpdate) (*models.Column, error) {
	set := bson.M{"updatedAt": now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.CardOrderIDs != nil {
		set["cardOrderIds"] = update.CardOrderIDs
	}
	return c.findOneAndUpdate(ctx, columnID, bson.M{"$set": set})
}

func (c *columnDatabase) PushCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error) {
	return c.findOneAndUpdate(ctx, columnID, bson.M{
		"$push": bson.M{"cardOrderIds": cardID},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (c *columnDatabase) PullCardOrderID(ctx context.Context, columnID, cardID primitive.ObjectID) (*models.Column, error) {
	return c.findOneAndUpdate(ctx, columnID, bson.M{
		"$pull": bson.M{"cardOrderIds": cardID},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (c *columnDatabase) SetCardOrderIDs(ctx context.Context, columnID primitive.ObjectID, ids models.OrderIDs) (*models.Column, error) {
	return c.findOneAndUpdate(ctx, columnID, bson.M{
		"$set": bson.M{"cardOrderIds": ids.Clone(), "updatedAt": now()},
	})
}

func (c *columnDatabase) DeleteOne(ctx context.Context, columnID primitive.ObjectID) (int64, error) {
	return c.db.Collection(columnsName).DeleteOne(ctx, bson.M{"_id": columnID})
}

func (c *columnDatabase) findOneAndUpdate(ctx context.Context, columnID primitive.ObjectID, update bson.M) (*models.Column, error) {
	column := &models.Column{}
	err := c.db.Collection(columnsName).FindOneAndUpdate(ctx, bson.M{"_id": columnID}, update, returnAfter()).Decode(&column)
	if err != nil {
		return nil, err
	}
	return column, nil
}
