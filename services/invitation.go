package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// InvitationService runs the board invitation state machine:
// PENDING moves once to ACCEPTED or REJECTED and never again.
type InvitationService struct {
	Repos    *databases.Repositories
	Notifier Notifier
}

// CreateBoardInvitationInput is the client supplied part of an invitation
type CreateBoardInvitationInput struct {
	InviteeEmail string             `json:"inviteeEmail"`
	BoardID      primitive.ObjectID `json:"boardId"`
}

// CreateBoardInvitation stores a PENDING invitation and tells the notifier
func (s *InvitationService) CreateBoardInvitation(ctx context.Context, inviterID primitive.ObjectID, in CreateBoardInvitationInput) (*models.InvitationView, error) {
	const op = "createBoardInvitation"
	inviter, err := s.Repos.Users.FindOne(ctx, inviterID)
	if err != nil {
		return nil, classify(op, err)
	}
	invitee, err := s.Repos.Users.FindByEmail(ctx, strings.TrimSpace(in.InviteeEmail))
	if err != nil {
		return nil, classify(op, err)
	}
	board, err := s.Repos.Boards.FindAccessible(ctx, inviterID, in.BoardID)
	if err != nil {
		return nil, classify(op, err)
	}
	if invitee.ID == inviter.ID {
		return nil, invalid("inviteeEmail", "cannot invite yourself")
	}

	invitation := models.Invitation{
		InviterID: inviter.ID,
		InviteeID: invitee.ID,
		Type:      models.InvitationTypeBoard,
		BoardInvitation: &models.BoardInvitation{
			BoardID: board.ID,
			Status:  models.InvitationPending,
		},
		CreatedAt: now(),
	}
	if err := invitation.Validate(); err != nil {
		return nil, classify(op, err)
	}
	id, err := s.Repos.Invitations.InsertOne(ctx, invitation)
	if err != nil {
		return nil, classify(op, err)
	}
	invitation.ID = id
	invitationTransitions.WithLabelValues(models.InvitationPending).Inc()

	view := models.InvitationView{
		Invitation: invitation,
		Inviter:    inviter.Summary(),
		Invitee:    invitee.Summary(),
		Board: &models.BoardSummary{
			ID:    board.ID,
			Title: board.Title,
			Slug:  board.Slug,
			Type:  board.Type,
		},
	}

	log := logging.FromContext(ctx).With("invitationId", id.Hex(), "boardId", board.ID.Hex())
	if err := s.Notifier.InvitationCreated(ctx, view); err != nil {
		log.Warnw("invitation notification failed", "error", err)
	}
	log.Infow("board invitation created", "inviteeId", invitee.ID.Hex())
	return &view, nil
}

// ListInvitations returns the invitations addressed to the user, newest first
func (s *InvitationService) ListInvitations(ctx context.Context, userID primitive.ObjectID) ([]models.InvitationView, error) {
	views, err := s.Repos.Invitations.FindByInvitee(ctx, userID)
	if err != nil {
		return nil, classify("listInvitations", err)
	}
	if views == nil {
		views = []models.InvitationView{}
	}
	return views, nil
}

// RespondToInvitation accepts or rejects a PENDING invitation. Accepting
// adds the responder to the board's members after the status is written.
func (s *InvitationService) RespondToInvitation(ctx context.Context, responderID, invitationID primitive.ObjectID, status string) (*models.Invitation, error) {
	const op = "respondToInvitation"
	if status != models.InvitationAccepted && status != models.InvitationRejected {
		return nil, invalid("status", "must be one of ACCEPTED, REJECTED")
	}

	invitation, err := s.Repos.Invitations.FindOne(ctx, invitationID)
	if err != nil {
		return nil, classify(op, err)
	}
	if invitation.InviteeID != responderID || invitation.BoardInvitation == nil {
		return nil, classify(op, mongo.ErrNoDocuments)
	}
	board, err := s.Repos.Boards.FindOne(ctx, invitation.BoardInvitation.BoardID)
	if err != nil {
		return nil, classify(op, err)
	}
	if models.IsTerminalInvitationStatus(invitation.BoardInvitation.Status) {
		return nil, fmt.Errorf("%s: %w: invitation is already %s", op, ErrConflict, invitation.BoardInvitation.Status)
	}
	if status == models.InvitationAccepted && board.IsOwnerOrMember(responderID) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyMember)
	}

	updated, err := s.Repos.Invitations.UpdateStatus(ctx, invitationID, models.InvitationPending, status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// someone else answered between the read and the write
		return nil, fmt.Errorf("%s: %w: invitation is no longer pending", op, ErrConflict)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	invitationTransitions.WithLabelValues(status).Inc()

	log := logging.FromContext(ctx).With("invitationId", invitationID.Hex(), "boardId", board.ID.Hex())
	if status == models.InvitationAccepted {
		if _, err := s.Repos.Boards.AddMember(ctx, board.ID, responderID); err != nil {
			log.Errorw("invitation accepted but membership not written", "error", err)
			partialFailures.WithLabelValues(op).Inc()
			return nil, partialFailure(op, 1, err)
		}
	}
	log.Infow("invitation answered", "status", status)
	return updated, nil
}
