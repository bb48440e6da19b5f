package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.Field] = e.Message
	}
	return out
}

func TestBoardValidate(t *testing.T) {
	owner := primitive.NewObjectID()
	valid := Board{Title: "Roadmap", Slug: "roadmap", Description: "next quarter", Type: BoardTypePrivate, OwnerIDs: []primitive.ObjectID{owner}}
	require.NoError(t, valid.Validate())

	c := primitive.NewObjectID()
	bad := Board{Title: " Roadmap", Slug: "ab", Type: "secret", ColumnOrderIDs: OrderIDs{c, c}}
	assert.Equal(t, map[string]string{
		"title":          "must not have leading or trailing whitespace",
		"slug":           "is too short",
		"description":    "is required",
		"type":           "must be one of public, private",
		"columnOrderIds": "must not contain duplicates",
		"ownerIds":       "must have at least 1 item(s)",
	}, fieldMessages(t, bad.Validate()))
}

func TestUpdateValidateSkipsUnsetFields(t *testing.T) {
	assert.NoError(t, BoardUpdate{}.Validate())
	assert.NoError(t, CardUpdate{}.Validate())
	assert.NoError(t, ColumnUpdate{}.Validate())

	long := "this title is far too long to be accepted by the board validation rules"
	assert.Equal(t, map[string]string{"title": "is too long"}, fieldMessages(t, BoardUpdate{Title: &long}.Validate()))

	c := primitive.NewObjectID()
	assert.Equal(t, map[string]string{"cardOrderIds": "must not contain duplicates"},
		fieldMessages(t, ColumnUpdate{CardOrderIDs: OrderIDs{c, c}}.Validate()))
}

func TestBoardUpdateIgnoresSlug(t *testing.T) {
	var u BoardUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"slug":"custom","title":"Roadmap"}`), &u))
	assert.Nil(t, u.Slug)
	require.NotNil(t, u.Title)
	assert.Equal(t, "Roadmap", *u.Title)
}

func TestNestedFieldPath(t *testing.T) {
	inv := Invitation{
		InviterID:       primitive.NewObjectID(),
		InviteeID:       primitive.NewObjectID(),
		Type:            InvitationTypeBoard,
		BoardInvitation: &BoardInvitation{Status: "MAYBE"},
	}
	assert.Equal(t, map[string]string{
		"boardInvitation.boardId": "is required",
		"boardInvitation.status":  "must be one of PENDING, ACCEPTED, REJECTED",
	}, fieldMessages(t, inv.Validate()))

	inv.BoardInvitation = nil
	assert.Equal(t, map[string]string{"boardInvitation": "is required"}, fieldMessages(t, inv.Validate()))
}

func TestColumnAndUserValidate(t *testing.T) {
	col := Column{BoardID: primitive.NewObjectID(), Title: "Todo", CardOrderIDs: OrderIDs{primitive.NewObjectID()}}
	assert.Equal(t, map[string]string{"cardOrderIds": "must be empty for a new column"}, fieldMessages(t, col.Validate()))

	u := User{Email: "not-an-email", Username: "jane", Role: "root"}
	assert.Equal(t, map[string]string{
		"email":    "must be a valid email",
		"password": "is required",
		"role":     "must be one of client, admin",
	}, fieldMessages(t, u.Validate()))
}
