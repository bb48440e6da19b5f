package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Column holds the structure for the columns collection in mongo
type Column struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BoardID      primitive.ObjectID `json:"boardId" bson:"boardId" validate:"required"`
	Title        string             `json:"title" bson:"title" validate:"required,trimmed,min=3,max=50"`
	CardOrderIDs OrderIDs           `json:"cardOrderIds" bson:"cardOrderIds" validate:"unique"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    *time.Time         `json:"updatedAt" bson:"updatedAt"`
	Destroy      bool               `json:"_destroy" bson:"_destroy"`
}

// Validate checks the column before insert
func (c Column) Validate() error {
	if err := check(c); err != nil {
		return err
	}
	if len(c.CardOrderIDs) != 0 {
		return FieldErrors{{Field: "cardOrderIds", Message: "must be empty for a new column"}}
	}
	return nil
}

// Clone returns a deep copy
func (c Column) Clone() Column {
	out := c
	out.CardOrderIDs = c.CardOrderIDs.Clone()
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// ColumnUpdate carries the mutable column fields, nil means unchanged
type ColumnUpdate struct {
	Title        *string  `json:"title" validate:"omitnil,required,trimmed,min=3,max=50"`
	CardOrderIDs OrderIDs `json:"cardOrderIds" validate:"unique"`
}

// Validate checks only the fields being set
func (u ColumnUpdate) Validate() error {
	return check(u)
}
