package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Board visibility
const (
	BoardTypePublic  = "public"
	BoardTypePrivate = "private"
)

// Board holds the structure for the boards collection in mongo
type Board struct {
	ID             primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title          string               `json:"title" bson:"title" validate:"required,trimmed,min=3,max=50"`
	Slug           string               `json:"slug" bson:"slug" validate:"required,trimmed,min=3"`
	Description    string               `json:"description" bson:"description" validate:"required,trimmed,min=3,max=255"`
	Type           string               `json:"type" bson:"type" validate:"oneof=public private"`
	ColumnOrderIDs OrderIDs             `json:"columnOrderIds" bson:"columnOrderIds" validate:"unique"`
	OwnerIDs       []primitive.ObjectID `json:"ownerIds" bson:"ownerIds" validate:"min=1"`
	MemberIDs      []primitive.ObjectID `json:"memberIds" bson:"memberIds"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      *time.Time           `json:"updatedAt" bson:"updatedAt"`
	Destroy        bool                 `json:"_destroy" bson:"_destroy"`
}

// Validate checks the board before insert
func (b Board) Validate() error {
	return check(b)
}

// IsOwnerOrMember reports whether userID can see the board
func (b Board) IsOwnerOrMember(userID primitive.ObjectID) bool {
	for _, id := range b.OwnerIDs {
		if id == userID {
			return true
		}
	}
	for _, id := range b.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (b Board) Clone() Board {
	out := b
	out.ColumnOrderIDs = b.ColumnOrderIDs.Clone()
	out.OwnerIDs = cloneIDs(b.OwnerIDs)
	out.MemberIDs = cloneIDs(b.MemberIDs)
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// BoardUpdate carries the mutable board fields, nil means unchanged. Slug
// is always derived from the title and cannot be sent by clients.
type BoardUpdate struct {
	Title          *string  `json:"title" validate:"omitnil,required,trimmed,min=3,max=50"`
	Slug           *string  `json:"-" validate:"omitnil,required,trimmed,min=3"`
	Description    *string  `json:"description" validate:"omitnil,required,trimmed,min=3,max=255"`
	Type           *string  `json:"type" validate:"omitnil,oneof=public private"`
	ColumnOrderIDs OrderIDs `json:"columnOrderIds" validate:"unique"`
}

// Validate checks only the fields being set
func (u BoardUpdate) Validate() error {
	return check(u)
}

// BoardAggregate is the raw joined board as produced by the details lookup.
// Cards is the flat card list of the board and never leaves the service layer.
type BoardAggregate struct {
	Board   `bson:",inline"`
	Columns []Column      `bson:"columns"`
	Cards   []Card        `bson:"cards"`
	Owners  []UserSummary `bson:"owners"`
	Members []UserSummary `bson:"members"`
}

// Clone returns a deep copy of the aggregate
func (a BoardAggregate) Clone() BoardAggregate {
	out := BoardAggregate{Board: a.Board.Clone()}
	out.Columns = make([]Column, len(a.Columns))
	for i, c := range a.Columns {
		out.Columns[i] = c.Clone()
	}
	out.Cards = make([]Card, len(a.Cards))
	for i, c := range a.Cards {
		out.Cards[i] = c.Clone()
	}
	out.Owners = append([]UserSummary{}, a.Owners...)
	out.Members = append([]UserSummary{}, a.Members...)
	return out
}

// BoardDetail is the nested read model returned to clients
type BoardDetail struct {
	Board
	Columns []ColumnDetail `json:"columns"`
	Owners  []UserSummary  `json:"owners"`
	Members []UserSummary  `json:"members"`
}

// ColumnDetail is a column with its cards in display order
type ColumnDetail struct {
	Column
	Cards []Card `json:"cards"`
}

// BoardPage is one page of the boards listing
type BoardPage struct {
	Boards      []Board `json:"boards"`
	TotalBoards int64   `json:"totalBoards"`
}

// BoardSummary is the part of a board shown alongside invitations
type BoardSummary struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Title string             `json:"title" bson:"title"`
	Slug  string             `json:"slug" bson:"slug"`
	Type  string             `json:"type" bson:"type"`
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}
