package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

func TestNotificationHubWithoutSockets(t *testing.T) {
	hub := NewNotificationHub([]string{"https://board.example.com"})
	view := models.InvitationView{Invitation: models.Invitation{InviteeID: primitive.NewObjectID()}}
	assert.NoError(t, hub.InvitationCreated(context.Background(), view))
	assert.Zero(t, hub.Connected(view.InviteeID.Hex()))

	rr := httptest.NewRecorder()
	hub.HandleNotificationsWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNotificationHubCheckOrigin(t *testing.T) {
	hub := NewNotificationHub([]string{"https://board.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
	assert.True(t, hub.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "https://board.example.com")
	assert.True(t, hub.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.upgrader.CheckOrigin(req))

	open := NewNotificationHub(nil)
	assert.True(t, open.upgrader.CheckOrigin(req))
}
