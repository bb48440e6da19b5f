package databases

// go generate: mockery --name CardDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

const cardsName = "cards"

// CardDatabase contains the methods to use with the card database
type CardDatabase interface {
	InsertOne(ctx context.Context, card models.Card) (primitive.ObjectID, error)
	FindOne(ctx context.Context, cardID primitive.ObjectID) (*models.Card, error)
	FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Card, error)
	Update(ctx context.Context, cardID primitive.ObjectID, update models.CardUpdate) (*models.Card, error)
	SetColumnID(ctx context.Context, cardID, columnID primitive.ObjectID) (*models.Card, error)
	PushComment(ctx context.Context, cardID primitive.ObjectID, comment models.Comment) (*models.Card, error)
	UpdateMembers(ctx context.Context, cardID, userID primitive.ObjectID, action string) (*models.Card, error)
	DeleteOne(ctx context.Context, cardID primitive.ObjectID) (int64, error)
	DeleteManyByColumnID(ctx context.Context, columnID primitive.ObjectID) (int64, error)
}

type cardDatabase struct {
	db DatabaseHelper
}

// NewCardDatabase initializes a new instance of card database with the provided db connection
func NewCardDatabase(db DatabaseHelper) CardDatabase {
	return &cardDatabase{
		db: db,
	}
}

func (c *cardDatabase) InsertOne(ctx context.Context, card models.Card) (primitive.ObjectID, error) {
	res, err := c.db.Collection(cardsName).InsertOne(ctx, card)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

func (c *cardDatabase) FindOne(ctx context.Context, cardID primitive.ObjectID) (*models.Card, error) {
	card := &models.Card{}
	err := c.db.Collection(cardsName).FindOne(ctx, bson.M{"_id": cardID, "_destroy": false}).Decode(&card)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (c *cardDatabase) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Card, error) {
	cursor, err := c.db.Collection(cardsName).Find(ctx, bson.M{"boardId": boardID, "_destroy": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cards []models.Card
	if err := cursor.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *cardDatabase) Update(ctx context.Context, cardID primitive.ObjectID, update models.CardUpdate) (*models.Card, error) {
	set := bson.M{"updatedAt": now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Cover != nil {
		set["cover"] = *update.Cover
	}
	return c.findOneAndUpdate(ctx, cardID, bson.M{"$set": set})
}

func (c *cardDatabase) SetColumnID(ctx context.Context, cardID, columnID primitive.ObjectID) (*models.Card, error) {
	return c.findOneAndUpdate(ctx, cardID, bson.M{
		"$set": bson.M{"columnId": columnID, "updatedAt": now()},
	})
}

// PushComment inserts the comment at the head of the list
func (c *cardDatabase) PushComment(ctx context.Context, cardID primitive.ObjectID, comment models.Comment) (*models.Card, error) {
	return c.findOneAndUpdate(ctx, cardID, bson.M{
		"$push": bson.M{"comments": bson.M{"$each": bson.A{comment}, "$position": 0}},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (c *cardDatabase) UpdateMembers(ctx context.Context, cardID, userID primitive.ObjectID, action string) (*models.Card, error) {
	op := "$addToSet"
	if action == models.CardMemberRemove {
		op = "$pull"
	}
	return c.findOneAndUpdate(ctx, cardID, bson.M{
		op:     bson.M{"memberIds": userID},
		"$set": bson.M{"updatedAt": now()},
	})
}

func (c *cardDatabase) DeleteOne(ctx context.Context, cardID primitive.ObjectID) (int64, error) {
	return c.db.Collection(cardsName).DeleteOne(ctx, bson.M{"_id": cardID})
}

// DeleteManyByColumnID removes every card whose columnId is columnID
func (c *cardDatabase) DeleteManyByColumnID(ctx context.Context, columnID primitive.ObjectID) (int64, error) {
	return c.db.Collection(cardsName).DeleteMany(ctx, bson.M{"columnId": columnID})
}

func (c *cardDatabase) findOneAndUpdate(ctx context.Context, cardID primitive.ObjectID, update bson.M) (*models.Card, error) {
	card := &models.Card{}
	err := c.db.Collection(cardsName).FindOneAndUpdate(ctx, bson.M{"_id": cardID}, update, returnAfter()).Decode(&card)
	if err != nil {
		return nil, err
	}
	return card, nil
}
