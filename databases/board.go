package databases

// go generate: mockery --name BoardDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/taskboard-api/models"
)

const boardsName = "boards"

// BoardDatabase contains the methods to use with the board database
type BoardDatabase interface {
	InsertOne(ctx context.Context, board models.Board) (primitive.ObjectID, error)
	FindOne(ctx context.Context, boardID primitive.ObjectID) (*models.Board, error)
	FindAccessible(ctx context.Context, userID, boardID primitive.ObjectID) (*models.Board, error)
	FindDetail(ctx context.Context, userID, boardID primitive.ObjectID) (*models.BoardAggregate, error)
	FindPage(ctx context.Context, userID primitive.ObjectID, page, itemsPerPage int) ([]models.Board, int64, error)
	FindIDs(ctx context.Context) ([]primitive.ObjectID, error)
	Update(ctx context.Context, boardID primitive.ObjectID, update models.BoardUpdate) (*models.Board, error)
	PushColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error)
	PullColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error)
	SetColumnOrderIDs(ctx context.Context, boardID primitive.ObjectID, ids models.OrderIDs) (*models.Board, error)
	AddMember(ctx context.Context, boardID, userID primitive.ObjectID) (*models.Board, error)
}

type boardDatabase struct {
	db DatabaseHelper
}

// NewBoardDatabase initializes a new instance of board database with the provided db connection
func NewBoardDatabase(db DatabaseHelper) BoardDatabase {
	return &boardDatabase{
		db: db,
	}
}

func (b *boardDatabase) InsertOne(ctx context.Context, board models.Board) (primitive.ObjectID, error) {
	res, err := b.db.Collection(boardsName).InsertOne(ctx, board)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(res)
}

func (b *boardDatabase) FindOne(ctx context.Context, boardID primitive.ObjectID) (*models.Board, error) {
	board := &models.Board{}
	err := b.db.Collection(boardsName).FindOne(ctx, bson.M{"_id": boardID, "_destroy": false}).Decode(&board)
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (b *boardDatabase) FindAccessible(ctx context.Context, userID, boardID primitive.ObjectID) (*models.Board, error) {
	filter := bson.M{"$and": bson.A{
		bson.M{"_id": boardID},
		bson.M{"_destroy": false},
		accessFilter(userID),
	}}
	board := &models.Board{}
	err := b.db.Collection(boardsName).FindOne(ctx, filter).Decode(&board)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// FindDetail joins the board with its live columns, live cards, owners and
// members in a single aggregation. Authorization is part of the $match, so
// a board the user cannot see comes back as mongo.ErrNoDocuments.
func (b *boardDatabase) FindDetail(ctx context.Context, userID, boardID primitive.ObjectID) (*models.BoardAggregate, error) {
	liveOnly := bson.A{bson.M{"$match": bson.M{"_destroy": false}}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$and": bson.A{
			bson.M{"_id": boardID},
			bson.M{"_destroy": false},
			accessFilter(userID),
		}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         columnsName,
			"localField":   "_id",
			"foreignField": "boardId",
			"as":           "columns",
			"pipeline":     liveOnly,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         cardsName,
			"localField":   "_id",
			"foreignField": "boardId",
			"as":           "cards",
			"pipeline":     liveOnly,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersName,
			"localField":   "ownerIds",
			"foreignField": "_id",
			"as":           "owners",
			"pipeline":     bson.A{publicUserProjection},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersName,
			"localField":   "memberIds",
			"foreignField": "_id",
			"as":           "members",
			"pipeline":     bson.A{publicUserProjection},
		}}},
	}

	cursor, err := b.db.Collection(boardsName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.BoardAggregate
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &results[0], nil
}

type boardPageResult struct {
	Boards []models.Board `bson:"queryBoards"`
	Total  []struct {
		Count int64 `bson:"countedAllBoards"`
	} `bson:"queryTotalBoards"`
}

// FindPage returns one title-sorted page of the boards visible to userID and
// the total count of that same filtered set. The en collation sorts "a"
// before "B", which plain binary ordering does not.
func (b *boardDatabase) FindPage(ctx context.Context, userID primitive.ObjectID, page, itemsPerPage int) ([]models.Board, int64, error) {
	p := newMongoPaginate(itemsPerPage, page)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$and": bson.A{
			bson.M{"_destroy": false},
			accessFilter(userID),
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "title", Value: 1}}}},
		{{Key: "$facet", Value: bson.M{
			"queryBoards":      p.stages(),
			"queryTotalBoards": bson.A{bson.M{"$count": "countedAllBoards"}},
		}}},
	}
	opts := options.Aggregate().SetCollation(&options.Collation{Locale: "en"})

	cursor, err := b.db.Collection(boardsName).Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []boardPageResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	if len(results) == 0 {
		return []models.Board{}, 0, nil
	}
	res := results[0]
	var total int64
	if len(res.Total) > 0 {
		total = res.Total[0].Count
	}
	if res.Boards == nil {
		res.Boards = []models.Board{}
	}
	return res.Boards, total, nil
}

func (b *boardDatabase) FindIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := b.db.Collection(boardsName).Find(ctx, bson.M{"_destroy": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (b *boardDatabase) Update(ctx context.Context, boardID primitive.ObjectID, update models.BoardUpdate) (*models.Board, error) {
	set := bson.M{"updatedAt": now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Slug != nil {
		set["slug"] = *update.Slug
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Type != nil {
		set["type"] = *update.Type
	}
	if update.ColumnOrderIDs != nil {
		set["columnOrderIds"] = update.ColumnOrderIDs
	}
	return b.findOneAndUpdate(ctx, boardID, bson.M{"$set": set})
}

func (b *boardDatabase) PushColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error) {
	return b.findOneAndUpdate(ctx, boardID, bson.M{
		"$push": bson.M{"columnOrderIds": columnID},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (b *boardDatabase) PullColumnOrderID(ctx context.Context, boardID, columnID primitive.ObjectID) (*models.Board, error) {
	return b.findOneAndUpdate(ctx, boardID, bson.M{
		"$pull": bson.M{"columnOrderIds": columnID},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (b *boardDatabase) SetColumnOrderIDs(ctx context.Context, boardID primitive.ObjectID, ids models.OrderIDs) (*models.Board, error) {
	return b.findOneAndUpdate(ctx, boardID, bson.M{
		"$set": bson.M{"columnOrderIds": ids.Clone(), "updatedAt": now()},
	})
}

func (b *boardDatabase) AddMember(ctx context.Context, boardID, userID primitive.ObjectID) (*models.Board, error) {
	return b.findOneAndUpdate(ctx, boardID, bson.M{
		"$addToSet": bson.M{"memberIds": userID},
		"$set":      bson.M{"updatedAt": now()},
	})
}

func (b *boardDatabase) findOneAndUpdate(ctx context.Context, boardID primitive.ObjectID, update bson.M) (*models.Board, error) {
	board := &models.Board{}
	err := b.db.Collection(boardsName).FindOneAndUpdate(ctx, bson.M{"_id": boardID}, update, returnAfter()).Decode(&board)
	if err != nil {
		return nil, err
	}
	return board, nil
}
