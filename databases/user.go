package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

const usersName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	InsertOne(ctx context.Context, user models.User) (primitive.ObjectID, error)
	FindOne(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Activate(ctx context.Context, email, verifyToken string) (*models.User, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) InsertOne(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	res, err := u.db.Collection(usersName).InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

func (u *userDatabase) FindOne(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(usersName).FindOne(ctx, bson.M{"_id": userID, "_destroy": false}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(usersName).FindOne(ctx, bson.M{"email": email, "_destroy": false}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Activate marks an inactive account active when the verify token matches
// and clears the token, so a link works only once
func (u *userDatabase) Activate(ctx context.Context, email, verifyToken string) (*models.User, error) {
	filter := bson.M{
		"email":       email,
		"verifyToken": verifyToken,
		"isActive":    false,
		"_destroy":    false,
	}
	update := bson.M{"$set": bson.M{
		"isActive":    true,
		"verifyToken": "",
		"updatedAt":   now(),
	}}
	user := &models.User{}
	err := u.db.Collection(usersName).FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}
