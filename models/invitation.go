package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationTypeBoard is the only invitation type so far
const InvitationTypeBoard = "BOARD_INVITATION"

// Board invitation states. PENDING is the only non-terminal state.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRejected = "REJECTED"
)

// Invitation holds the structure for the invitations collection in mongo
type Invitation struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	InviterID       primitive.ObjectID `json:"inviterId" bson:"inviterId" validate:"required"`
	InviteeID       primitive.ObjectID `json:"inviteeId" bson:"inviteeId" validate:"required"`
	Type            string             `json:"type" bson:"type" validate:"oneof=BOARD_INVITATION"`
	BoardInvitation *BoardInvitation   `json:"boardInvitation,omitempty" bson:"boardInvitation,omitempty" validate:"required"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       *time.Time         `json:"updatedAt" bson:"updatedAt"`
	Destroy         bool               `json:"_destroy" bson:"_destroy"`
}

// BoardInvitation is embedded in board invitations
type BoardInvitation struct {
	BoardID primitive.ObjectID `json:"boardId" bson:"boardId" validate:"required"`
	Status  string             `json:"status" bson:"status" validate:"oneof=PENDING ACCEPTED REJECTED"`
}

// IsTerminalInvitationStatus reports whether no further transition is allowed
func IsTerminalInvitationStatus(status string) bool {
	return status == InvitationAccepted || status == InvitationRejected
}

// Validate checks the invitation before insert
func (i Invitation) Validate() error {
	return check(i)
}

// InvitationView is an invitation with its parties resolved for display
type InvitationView struct {
	Invitation `bson:",inline"`
	Inviter    UserSummary   `json:"inviter" bson:"inviter"`
	Invitee    UserSummary   `json:"invitee" bson:"invitee"`
	Board      *BoardSummary `json:"board,omitempty" bson:"board,omitempty"`
}
