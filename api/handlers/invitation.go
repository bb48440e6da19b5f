package handlers

import (
	"net/http"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/services"
)

// Invitation exposes the board invitation routes
type Invitation struct {
	Invitations *services.InvitationService
}

type respondRequest struct {
	Status string `json:"status"`
}

// CreateBoardInvitationHandler invites a registered user to a board
func (i Invitation) CreateBoardInvitationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	var in services.CreateBoardInvitationInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invitation, err := i.Invitations.CreateBoardInvitation(ctx, userID, in)
	if err != nil {
		writeError(w, r, "failed to create invitation", err)
		return
	}
	writeJSON(w, http.StatusCreated, invitation)
}

// InvitationListHandler returns the invitations addressed to the requester
func (i Invitation) InvitationListHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invitations, err := i.Invitations.ListInvitations(ctx, userID)
	if err != nil {
		writeError(w, r, "failed to list invitations", err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

// RespondToInvitationHandler accepts or rejects a pending invitation
func (i Invitation) RespondToInvitationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	var in respondRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invitation, err := i.Invitations.RespondToInvitation(ctx, userID, invitationID, in.Status)
	if err != nil {
		writeError(w, r, "failed to respond to invitation", err)
		return
	}
	writeJSON(w, http.StatusOK, invitation)
}
