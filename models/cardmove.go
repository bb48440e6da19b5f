package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CardMoveSteps is the number of writes in a card move
const CardMoveSteps = 3

// Card move saga states
const (
	CardMoveStarted    = "STARTED"
	CardMoveCompleted  = "COMPLETED"
	CardMoveFailed     = "FAILED"
	CardMoveReconciled = "RECONCILED"
	CardMoveSuperseded = "SUPERSEDED"
)

// CardMove holds the structure for the card_moves collection in mongo. One
// document is written per move and records how many of the three writes
// have landed, so an interrupted move can be found and repaired.
type CardMove struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	CardID           primitive.ObjectID `json:"cardId" bson:"cardId"`
	BoardID          primitive.ObjectID `json:"boardId" bson:"boardId"`
	RequesterID      primitive.ObjectID `json:"requesterId" bson:"requesterId"`
	PrevColumnID     primitive.ObjectID `json:"prevColumnId" bson:"prevColumnId"`
	PrevCardOrderIDs OrderIDs           `json:"prevCardOrderIds" bson:"prevCardOrderIds"`
	NextColumnID     primitive.ObjectID `json:"nextColumnId" bson:"nextColumnId"`
	NextCardOrderIDs OrderIDs           `json:"nextCardOrderIds" bson:"nextCardOrderIds"`
	CompletedSteps   int                `json:"completedSteps" bson:"completedSteps"`
	Status           string             `json:"status" bson:"status"`
	Error            string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SchedulerLock holds the structure for the scheduler_locks collection in mongo
type SchedulerLock struct {
	Name      string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
