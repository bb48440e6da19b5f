package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/models"
)

// InvitedToBoardEvent is pushed to the invitee when an invitation is created
const InvitedToBoardEvent = "BE_USER_INVITED_TO_BOARD"

const writeWait = 10 * time.Second

type hubClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NotificationHub keeps the open notification sockets per user and pushes
// events to them. It is the websocket side of services.Notifier.
type NotificationHub struct {
	upgrader websocket.Upgrader
	clients  map[string]map[*hubClient]struct{}
	mutex    sync.Mutex
}

type notificationMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewNotificationHub accepts sockets from the listed origins, or from any
// origin when the list is empty
func NewNotificationHub(allowedOrigins []string) *NotificationHub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &NotificationHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		clients: make(map[string]map[*hubClient]struct{}),
	}
}

// HandleNotificationsWebSocket upgrades the request and keeps the socket
// registered for the authenticated user until it closes
func (h *NotificationHub) HandleNotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	id := userID.Hex()
	c := &hubClient{conn: conn}
	h.register(id, c)
	zap.S().Debugw("user connected to /ws/notifications", "userId", id)
	defer func() {
		h.unregister(id, c)
		conn.Close()
		zap.S().Debugw("user disconnected from /ws/notifications", "userId", id)
	}()

	// the client never sends anything we act on; reading keeps control
	// frames flowing and tells us when the socket is gone
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// InvitationCreated pushes the invitation to every socket the invitee has open
func (h *NotificationHub) InvitationCreated(ctx context.Context, invitation models.InvitationView) error {
	return h.send(invitation.InviteeID.Hex(), InvitedToBoardEvent, invitation)
}

// Connected reports how many sockets the user has open
func (h *NotificationHub) Connected(userID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[userID])
}

// Close drops every socket, used on shutdown
func (h *NotificationHub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
		delete(h.clients, id)
	}
}

func (h *NotificationHub) send(userID, event string, data interface{}) error {
	h.mutex.Lock()
	targets := make([]*hubClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mutex.Unlock()

	var errs []error
	for _, c := range targets {
		if err := c.write(notificationMessage{Event: event, Data: data}); err != nil {
			zap.S().Warnw("failed to send notification", "userId", userID, "event", event, "error", err)
			h.unregister(userID, c)
			c.conn.Close()
			errs = append(errs, fmt.Errorf("send %s to %s: %w", event, userID, err))
		}
	}
	return errors.Join(errs...)
}

func (c *hubClient) write(msg notificationMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (h *NotificationHub) register(userID string, c *hubClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*hubClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *NotificationHub) unregister(userID string, c *hubClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}
