package databases

// go generate: mockery --name InvitationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/models"
)

const invitationsName = "invitations"

// InvitationDatabase contains the methods to use with the invitation database
type InvitationDatabase interface {
	InsertOne(ctx context.Context, invitation models.Invitation) (primitive.ObjectID, error)
	FindOne(ctx context.Context, invitationID primitive.ObjectID) (*models.Invitation, error)
	FindByInvitee(ctx context.Context, inviteeID primitive.ObjectID) ([]models.InvitationView, error)
	UpdateStatus(ctx context.Context, invitationID primitive.ObjectID, from, to string) (*models.Invitation, error)
}

type invitationDatabase struct {
	db DatabaseHelper
}

// NewInvitationDatabase initializes a new instance of invitation database with the provided db connection
func NewInvitationDatabase(db DatabaseHelper) InvitationDatabase {
	return &invitationDatabase{
		db: db,
	}
}

func (i *invitationDatabase) InsertOne(ctx context.Context, invitation models.Invitation) (primitive.ObjectID, error) {
	res, err := i.db.Collection(invitationsName).InsertOne(ctx, invitation)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

func (i *invitationDatabase) FindOne(ctx context.Context, invitationID primitive.ObjectID) (*models.Invitation, error) {
	invitation := &models.Invitation{}
	err := i.db.Collection(invitationsName).FindOne(ctx, bson.M{"_id": invitationID, "_destroy": false}).Decode(&invitation)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// FindByInvitee lists the live invitations addressed to inviteeID with the
// inviter, invitee and board resolved to single objects, newest first.
func (i *invitationDatabase) FindByInvitee(ctx context.Context, inviteeID primitive.ObjectID) ([]models.InvitationView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$and": bson.A{
			bson.M{"inviteeId": inviteeID},
			bson.M{"_destroy": false},
		}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersName,
			"localField":   "inviterId",
			"foreignField": "_id",
			"as":           "inviter",
			"pipeline":     bson.A{publicUserProjection},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersName,
			"localField":   "inviteeId",
			"foreignField": "_id",
			"as":           "invitee",
			"pipeline":     bson.A{publicUserProjection},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         boardsName,
			"localField":   "boardInvitation.boardId",
			"foreignField": "_id",
			"as":           "board",
			"pipeline":     bson.A{bson.M{"$project": bson.M{"title": 1, "slug": 1, "type": 1}}},
		}}},
		{{Key: "$set", Value: bson.M{
			"inviter": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$inviter", 0}}, bson.M{}}},
			"invitee": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$invitee", 0}}, bson.M{}}},
			"board":   bson.M{"$arrayElemAt": bson.A{"$board", 0}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cursor, err := i.db.Collection(invitationsName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var views []models.InvitationView
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	if views == nil {
		views = []models.InvitationView{}
	}
	return views, nil
}

// UpdateStatus moves a board invitation from one status to another. The
// filter includes the expected current status, so a concurrent responder
// that already moved it gets mongo.ErrNoDocuments.
func (i *invitationDatabase) UpdateStatus(ctx context.Context, invitationID primitive.ObjectID, from, to string) (*models.Invitation, error) {
	filter := bson.M{
		"_id":                    invitationID,
		"_destroy":               false,
		"boardInvitation.status": from,
	}
	update := bson.M{"$set": bson.M{
		"boardInvitation.status": to,
		"updatedAt":              now(),
	}}
	invitation := &models.Invitation{}
	err := i.db.Collection(invitationsName).FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&invitation)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}
