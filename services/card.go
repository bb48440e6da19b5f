package services

import (
	"context"
	"net/url"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// CardService keeps column.cardOrderIds in step with the cards collection and
// edits the card fields
type CardService struct {
	Repos *databases.Repositories
}

// CreateCardInput is the client supplied part of a new card
type CreateCardInput struct {
	BoardID     primitive.ObjectID `json:"boardId"`
	ColumnID    primitive.ObjectID `json:"columnId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
}

// CreateCard inserts the card and appends it to its column's cardOrderIds
func (s *CardService) CreateCard(ctx context.Context, userID primitive.ObjectID, in CreateCardInput) (*models.Card, error) {
	const op = "createCard"
	if _, err := s.Repos.Boards.FindAccessible(ctx, userID, in.BoardID); err != nil {
		return nil, classify(op, err)
	}
	column, err := s.Repos.Columns.FindOne(ctx, in.ColumnID)
	if err != nil {
		return nil, classify(op, err)
	}
	if column.BoardID != in.BoardID {
		return nil, invalid("columnId", "does not belong to the board")
	}

	card := models.Card{
		BoardID:     in.BoardID,
		ColumnID:    in.ColumnID,
		Title:       sanitizePlain(in.Title),
		Description: sanitizeRich(in.Description),
		MemberIDs:   []primitive.ObjectID{},
		Comments:    []models.Comment{},
		CreatedAt:   now(),
	}
	if err := card.Validate(); err != nil {
		return nil, classify(op, err)
	}

	id, err := s.Repos.Cards.InsertOne(ctx, card)
	if err != nil {
		return nil, classify(op, err)
	}
	card.ID = id

	if _, err := s.Repos.Columns.PushCardOrderID(ctx, in.ColumnID, id); err != nil {
		logging.FromContext(ctx).Errorw("card inserted but not added to column order",
			"columnId", in.ColumnID.Hex(), "cardId", id.Hex(), "error", err)
		partialFailures.WithLabelValues(op).Inc()
		return nil, partialFailure(op, 1, err)
	}
	return &card, nil
}

// UpdateCard edits the title, description or cover of a card
func (s *CardService) UpdateCard(ctx context.Context, userID, cardID primitive.ObjectID, update models.CardUpdate) (*models.Card, error) {
	const op = "updateCard"
	if _, err := s.accessibleCard(ctx, userID, cardID); err != nil {
		return nil, classify(op, err)
	}

	if update.Title != nil {
		title := sanitizePlain(*update.Title)
		update.Title = &title
	}
	if update.Description != nil {
		d := sanitizeRich(*update.Description)
		update.Description = &d
	}
	if update.Cover != nil && *update.Cover != "" {
		u, err := url.Parse(*update.Cover)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return nil, invalid("cover", "must be an http(s) URL")
		}
	}
	if err := update.Validate(); err != nil {
		return nil, classify(op, err)
	}

	updated, err := s.Repos.Cards.Update(ctx, cardID, update)
	if err != nil {
		return nil, classify(op, err)
	}
	return updated, nil
}

// DeleteCard removes the card and drops it from its column's cardOrderIds
func (s *CardService) DeleteCard(ctx context.Context, userID, cardID primitive.ObjectID) error {
	const op = "deleteCard"
	card, err := s.accessibleCard(ctx, userID, cardID)
	if err != nil {
		return classify(op, err)
	}

	if _, err := s.Repos.Cards.DeleteOne(ctx, cardID); err != nil {
		return classify(op, err)
	}
	if _, err := s.Repos.Columns.PullCardOrderID(ctx, card.ColumnID, cardID); err != nil {
		logging.FromContext(ctx).Errorw("card deleted but still listed on column",
			"columnId", card.ColumnID.Hex(), "cardId", cardID.Hex(), "error", err)
		partialFailures.WithLabelValues(op).Inc()
		return partialFailure(op, 1, err)
	}
	return nil
}

// AddComment puts a comment at the head of the card's comment list. The
// author's display fields are copied onto the comment.
func (s *CardService) AddComment(ctx context.Context, userID, cardID primitive.ObjectID, content string) (*models.Card, error) {
	const op = "addComment"
	if _, err := s.accessibleCard(ctx, userID, cardID); err != nil {
		return nil, classify(op, err)
	}
	author, err := s.Repos.Users.FindOne(ctx, userID)
	if err != nil {
		return nil, classify(op, err)
	}

	comment := models.Comment{
		UserID:          author.ID,
		UserEmail:       author.Email,
		UserAvatar:      author.Avatar,
		UserDisplayName: author.DisplayName,
		Content:         sanitizeRich(content),
		CommentedAt:     now(),
	}
	if err := comment.Validate(); err != nil {
		return nil, classify(op, err)
	}

	updated, err := s.Repos.Cards.PushComment(ctx, cardID, comment)
	if err != nil {
		return nil, classify(op, err)
	}
	return updated, nil
}

// UpdateCardMembers adds or removes a board participant on the card
func (s *CardService) UpdateCardMembers(ctx context.Context, userID, cardID, memberID primitive.ObjectID, action string) (*models.Card, error) {
	const op = "updateCardMembers"
	if action != models.CardMemberAdd && action != models.CardMemberRemove {
		return nil, invalid("action", "must be one of ADD, REMOVE")
	}
	card, err := s.Repos.Cards.FindOne(ctx, cardID)
	if err != nil {
		return nil, classify(op, err)
	}
	board, err := s.Repos.Boards.FindAccessible(ctx, userID, card.BoardID)
	if err != nil {
		return nil, classify(op, err)
	}
	if action == models.CardMemberAdd && !board.IsOwnerOrMember(memberID) {
		return nil, invalid("userId", "is not an owner or member of the board")
	}

	updated, err := s.Repos.Cards.UpdateMembers(ctx, cardID, memberID, action)
	if err != nil {
		return nil, classify(op, err)
	}
	return updated, nil
}

func (s *CardService) accessibleCard(ctx context.Context, userID, cardID primitive.ObjectID) (*models.Card, error) {
	card, err := s.Repos.Cards.FindOne(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repos.Boards.FindAccessible(ctx, userID, card.BoardID); err != nil {
		return nil, err
	}
	return card, nil
}
