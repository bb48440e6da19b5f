package databases

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default paging values for list endpoints
const (
	DefaultPage         = 1
	DefaultItemsPerPage = 12
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = DefaultItemsPerPage
	}
	if page <= 0 {
		page = DefaultPage
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) skip() int64 {
	return mp.page*mp.limit - mp.limit
}

// stages returns the $skip/$limit pair used inside a $facet
func (mp *mongoPaginate) stages() bson.A {
	return bson.A{
		bson.M{"$skip": mp.skip()},
		bson.M{"$limit": mp.limit},
	}
}

// accessFilter matches documents where userID is an owner or a member
func accessFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"ownerIds": userID},
		bson.M{"memberIds": userID},
	}}
}

// publicUserProjection drops credential fields from joined user documents
var publicUserProjection = bson.M{"$project": bson.M{"password": 0, "verifyToken": 0}}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func insertedObjectID(res InsertOneResultHelper) (primitive.ObjectID, error) {
	id, ok := res.Decode().(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.Decode())
	}
	return id, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
