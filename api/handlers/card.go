package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

// Card exposes the card routes
type Card struct {
	Cards *services.CardService
}

type commentRequest struct {
	Content string `json:"content"`
}

type cardMemberRequest struct {
	UserID primitive.ObjectID `json:"userId"`
	Action string             `json:"action"`
}

// CreateCardHandler appends a card to a column
func (c Card) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	var in services.CreateCardInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	card, err := c.Cards.CreateCard(ctx, userID, in)
	if err != nil {
		writeError(w, r, "failed to create card", err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCardHandler edits the title, description or cover
func (c Card) UpdateCardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	var update models.CardUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	card, err := c.Cards.UpdateCard(ctx, userID, cardID, update)
	if err != nil {
		writeError(w, r, "failed to update card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCardHandler removes a card from its column
func (c Card) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Cards.DeleteCard(ctx, userID, cardID); err != nil {
		writeError(w, r, "failed to delete card", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deletedCardId": cardID.Hex()})
}

// AddCommentHandler puts a comment at the top of the card's comment list
func (c Card) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	var in commentRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	card, err := c.Cards.AddComment(ctx, userID, cardID, in.Content)
	if err != nil {
		writeError(w, r, "failed to add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCardMembersHandler adds or removes one card member
func (c Card) UpdateCardMembersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	var in cardMemberRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	card, err := c.Cards.UpdateCardMembers(ctx, userID, cardID, in.UserID, in.Action)
	if err != nil {
		writeError(w, r, "failed to update card members", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
