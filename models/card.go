package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Card member actions
const (
	CardMemberAdd    = "ADD"
	CardMemberRemove = "REMOVE"
)

// Card holds the structure for the cards collection in mongo
type Card struct {
	ID          primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	BoardID     primitive.ObjectID   `json:"boardId" bson:"boardId" validate:"required"`
	ColumnID    primitive.ObjectID   `json:"columnId" bson:"columnId" validate:"required"`
	Title       string               `json:"title" bson:"title" validate:"required,trimmed,min=3,max=50"`
	Description string               `json:"description" bson:"description"`
	Cover       *string              `json:"cover" bson:"cover"`
	MemberIDs   []primitive.ObjectID `json:"memberIds" bson:"memberIds"`
	Comments    []Comment            `json:"comments" bson:"comments"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   *time.Time           `json:"updatedAt" bson:"updatedAt"`
	Destroy     bool                 `json:"_destroy" bson:"_destroy"`
}

// Comment is embedded in a card. Comments are only ever prepended.
type Comment struct {
	UserID          primitive.ObjectID `json:"userId" bson:"userId" validate:"required"`
	UserEmail       string             `json:"userEmail" bson:"userEmail" validate:"email"`
	UserAvatar      string             `json:"userAvatar" bson:"userAvatar"`
	UserDisplayName string             `json:"userDisplayName" bson:"userDisplayName"`
	Content         string             `json:"content" bson:"content" validate:"required"`
	CommentedAt     time.Time          `json:"commentedAt" bson:"commentedAt"`
}

// Validate checks the card before insert
func (c Card) Validate() error {
	return check(c)
}

// Clone returns a deep copy
func (c Card) Clone() Card {
	out := c
	out.MemberIDs = cloneIDs(c.MemberIDs)
	out.Comments = append([]Comment{}, c.Comments...)
	if c.Cover != nil {
		v := *c.Cover
		out.Cover = &v
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Validate checks a comment before it is pushed
func (c Comment) Validate() error {
	return check(c)
}

// CardUpdate carries the mutable card fields, nil means unchanged
type CardUpdate struct {
	Title       *string `json:"title" validate:"omitnil,required,trimmed,min=3,max=50"`
	Description *string `json:"description"`
	Cover       *string `json:"cover"`
}

// Validate checks only the fields being set
func (u CardUpdate) Validate() error {
	return check(u)
}
