package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/taskboard-api/api/handlers"
	"github.com/linesmerrill/taskboard-api/config"
	"github.com/linesmerrill/taskboard-api/databases/memdb"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

type testApp struct {
	t       *testing.T
	app     *handlers.App
	store   *memdb.Store
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	tokens := &services.TokenIssuer{
		AccessSecret:  []byte("access-secret"),
		AccessLife:    time.Hour,
		RefreshSecret: []byte("refresh-secret"),
		RefreshLife:   24 * time.Hour,
	}
	cfg := config.Config{RefreshTokenLife: 24 * time.Hour}
	hub := handlers.NewNotificationHub(nil)
	store := memdb.New()
	app := &handlers.App{
		Config:   cfg,
		Services: services.New(store.Repositories(), hub, tokens),
		Tokens:   tokens,
		Hub:      hub,
		Covers:   &handlers.CoverSigner{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "card-covers"},
	}
	app.Initialize()
	return &testApp{t: t, app: app, store: store, handler: app.Handler()}
}

func (ta *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ta.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ta.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

// verifyToken reads the token the verification email would carry
func (ta *testApp) verifyToken(email string) string {
	ta.t.Helper()
	user, err := ta.store.Repositories().Users.FindByEmail(context.Background(), email)
	require.NoError(ta.t, err)
	return user.VerifyToken
}

// signup registers, verifies and logs in, returning the access token and user id
func (ta *testApp) signup(email string) (string, string) {
	ta.t.Helper()
	creds := map[string]string{"email": email, "password": "password123"}
	rr := ta.do(http.MethodPost, "/v1/users/register", "", creds)
	require.Equal(ta.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodPut, "/v1/users/verify", "", map[string]string{"email": email, "token": ta.verifyToken(email)})
	require.Equal(ta.t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodPost, "/v1/users/login", "", creds)
	require.Equal(ta.t, http.StatusOK, rr.Code, rr.Body.String())
	var res struct {
		User        models.UserSummary `json:"user"`
		AccessToken string             `json:"accessToken"`
	}
	decode(ta.t, rr, &res)
	return res.AccessToken, res.User.ID.Hex()
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (ta *testApp) create(path, token string, body interface{}) string {
	ta.t.Helper()
	rr := ta.do(http.MethodPost, path, token, body)
	require.Equal(ta.t, http.StatusCreated, rr.Code, rr.Body.String())
	var doc struct {
		ID string `json:"_id"`
	}
	decode(ta.t, rr, &doc)
	return doc.ID
}

func TestBoardLifecycle(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.signup("owner@example.com")

	boardID := ta.create("/v1/boards", token, map[string]string{"title": "Sprint board", "description": "Current sprint", "type": "private"})
	todo := ta.create("/v1/columns", token, map[string]string{"boardId": boardID, "title": "Todo"})
	done := ta.create("/v1/columns", token, map[string]string{"boardId": boardID, "title": "Done"})
	card := ta.create("/v1/cards", token, map[string]string{"boardId": boardID, "columnId": todo, "title": "Write docs"})

	rr := ta.do(http.MethodPut, "/v1/boards/supports/moving_card", token, map[string]interface{}{
		"currentCardId":    card,
		"prevColumnId":     todo,
		"prevCardOrderIds": []string{},
		"nextColumnId":     done,
		"nextCardOrderIds": []string{card},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"updateResult":"Successfully!"`)

	rr = ta.do(http.MethodGet, "/v1/boards/"+boardID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var detail struct {
		Slug    string `json:"slug"`
		Columns []struct {
			ID           string   `json:"_id"`
			CardOrderIDs []string `json:"cardOrderIds"`
			Cards        []struct {
				ID string `json:"_id"`
			} `json:"cards"`
		} `json:"columns"`
		Cards json.RawMessage `json:"cards"`
	}
	decode(t, rr, &detail)
	assert.Equal(t, "sprint-board", detail.Slug)
	assert.Nil(t, detail.Cards, "cards are only nested under columns")
	require.Len(t, detail.Columns, 2)
	assert.Equal(t, todo, detail.Columns[0].ID)
	assert.Empty(t, detail.Columns[0].Cards)
	assert.Equal(t, []string{card}, detail.Columns[1].CardOrderIDs)
	require.Len(t, detail.Columns[1].Cards, 1)
	assert.Equal(t, card, detail.Columns[1].Cards[0].ID)

	rr = ta.do(http.MethodPut, "/v1/boards/"+boardID, token, map[string]interface{}{"columnOrderIds": []string{done, todo}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodDelete, "/v1/columns/"+done, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"deletedCards":1`)

	rr = ta.do(http.MethodGet, "/v1/boards?page=1&itemsPerPage=10", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page models.BoardPage
	decode(t, rr, &page)
	assert.EqualValues(t, 1, page.TotalBoards)
	require.Len(t, page.Boards, 1)
	assert.Equal(t, []string{todo}, hexes(page.Boards[0].ColumnOrderIDs))
}

func hexes(ids models.OrderIDs) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func TestCardRoutes(t *testing.T) {
	ta := newTestApp(t)
	token, userID := ta.signup("owner@example.com")
	boardID := ta.create("/v1/boards", token, map[string]string{"title": "Sprint board", "description": "Current sprint", "type": "public"})
	column := ta.create("/v1/columns", token, map[string]string{"boardId": boardID, "title": "Todo"})
	card := ta.create("/v1/cards", token, map[string]string{"boardId": boardID, "columnId": column, "title": "Write docs"})

	rr := ta.do(http.MethodPut, "/v1/cards/"+card, token, map[string]string{"description": "<b>bold</b><script>x</script>"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var edited struct {
		Description string `json:"description"`
	}
	decode(t, rr, &edited)
	assert.Equal(t, "<b>bold</b>", edited.Description)
	assert.NotContains(t, edited.Description, "<script")

	rr = ta.do(http.MethodPost, "/v1/cards/"+card+"/comments", token, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"userEmail":"owner@example.com"`)

	rr = ta.do(http.MethodPut, "/v1/cards/"+card+"/members", token, map[string]string{"userId": userID, "action": "ADD"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), userID)

	rr = ta.do(http.MethodPut, "/v1/cards/"+card+"/members", token, map[string]string{"userId": userID, "action": "KICK"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ta.do(http.MethodPost, "/v1/cards/cover-signature", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"uploadUrl":"https://api.cloudinary.com/v1_1/demo/image/upload"`)

	rr = ta.do(http.MethodDelete, "/v1/cards/"+card, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = ta.do(http.MethodPut, "/v1/cards/"+card, token, map[string]string{"title": "Gone card"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	ta := newTestApp(t)
	owner, _ := ta.signup("owner@example.com")
	outsider, _ := ta.signup("outsider@example.com")
	boardID := ta.create("/v1/boards", owner, map[string]string{"title": "Sprint board", "description": "Current sprint", "type": "private"})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"no token", http.MethodGet, "/v1/boards", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/v1/boards", "abc.def.ghi", nil, http.StatusUnauthorized},
		{"outsider", http.MethodGet, "/v1/boards/" + boardID, outsider, nil, http.StatusNotFound},
		{"missing board", http.MethodGet, "/v1/boards/" + "0123456789abcdef01234567", owner, nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/v1/boards/not-an-id", owner, nil, http.StatusUnprocessableEntity},
		{"invalid board", http.MethodPost, "/v1/boards", owner, map[string]string{"title": "x"}, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/v1/boards", owner, "not an object", http.StatusBadRequest},
		{"email taken", http.MethodPost, "/v1/users/register", "", map[string]string{"email": "owner@example.com", "password": "password123"}, http.StatusConflict},
		{"wrong password", http.MethodPost, "/v1/users/login", "", map[string]string{"email": "owner@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}

	// outsider and missing board read the same
	a := ta.do(http.MethodGet, "/v1/boards/"+boardID, outsider, nil)
	b := ta.do(http.MethodGet, "/v1/boards/"+boardID[:20]+"ffff", outsider, nil)
	var ea, eb models.ErrorMessageResponse
	decode(t, a, &ea)
	decode(t, b, &eb)
	assert.Equal(t, ea, eb)
}

func TestLoginSetsCookies(t *testing.T) {
	ta := newTestApp(t)
	ta.signup("owner@example.com")

	rr := ta.do(http.MethodPost, "/v1/users/login", "", map[string]string{"email": "owner@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "accessToken")
	require.Contains(t, cookies, "refreshToken")
	assert.True(t, cookies["accessToken"].HttpOnly)

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/v1/boards", nil)
	req.AddCookie(cookies["accessToken"])
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rr = ta.do(http.MethodDelete, "/v1/users/logout", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, c := range rr.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestAccountVerification(t *testing.T) {
	ta := newTestApp(t)
	creds := map[string]string{"email": "new@example.com", "password": "password123"}
	rr := ta.do(http.MethodPost, "/v1/users/register", "", creds)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"isActive":false`)
	assert.NotContains(t, rr.Body.String(), "verifyToken")

	rr = ta.do(http.MethodPost, "/v1/users/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "inactive accounts cannot log in")

	token := ta.verifyToken("new@example.com")
	require.NotEmpty(t, token)

	rr = ta.do(http.MethodPut, "/v1/users/verify", "", map[string]string{"email": "new@example.com", "token": "wrong"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	rr = ta.do(http.MethodPut, "/v1/users/verify", "", map[string]string{"email": "nobody@example.com", "token": token})
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodPut, "/v1/users/verify", "", map[string]string{"email": "new@example.com", "token": token})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"isActive":true`)
	assert.Empty(t, ta.verifyToken("new@example.com"))

	rr = ta.do(http.MethodPut, "/v1/users/verify", "", map[string]string{"email": "new@example.com", "token": token})
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodPost, "/v1/users/login", "", creds)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestRefreshToken(t *testing.T) {
	ta := newTestApp(t)
	ta.signup("owner@example.com")

	rr := ta.do(http.MethodPost, "/v1/users/login", "", map[string]string{"email": "owner@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	var refresh, access *http.Cookie
	for _, c := range rr.Result().Cookies() {
		switch c.Name {
		case "refreshToken":
			refresh = c
		case "accessToken":
			access = c
		}
	}
	require.NotNil(t, refresh)
	require.NotNil(t, access)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/refresh_token", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	var reissued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "accessToken" {
			reissued = c
		}
	}
	require.NotNil(t, reissued)
	assert.Equal(t, body.AccessToken, reissued.Value)

	rr = ta.do(http.MethodGet, "/v1/boards", body.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// an access token is not a refresh token, and no cookie is no token
	req = httptest.NewRequest(http.MethodGet, "/v1/users/refresh_token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: access.Value})
	rec = httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rr = ta.do(http.MethodGet, "/v1/users/refresh_token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInvitationFlowPushesToInvitee(t *testing.T) {
	ta := newTestApp(t)
	owner, _ := ta.signup("owner@example.com")
	invitee, inviteeID := ta.signup("invitee@example.com")
	boardID := ta.create("/v1/boards", owner, map[string]string{"title": "Sprint board", "description": "Current sprint", "type": "private"})

	srv := httptest.NewServer(ta.handler)
	defer srv.Close()
	header := http.Header{"Authorization": {"Bearer " + invitee}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/notifications", header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return ta.app.Hub.Connected(inviteeID) == 1 }, time.Second, 10*time.Millisecond)

	invitationID := ta.create("/v1/invitations/board", owner, map[string]string{"inviteeEmail": "invitee@example.com", "boardId": boardID})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Event string `json:"event"`
		Data  struct {
			ID    string `json:"_id"`
			Board struct {
				Title string `json:"title"`
			} `json:"board"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.InvitedToBoardEvent, msg.Event)
	assert.Equal(t, invitationID, msg.Data.ID)
	assert.Equal(t, "Sprint board", msg.Data.Board.Title)

	rr := ta.do(http.MethodGet, "/v1/invitations", invitee, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), invitationID)

	rr = ta.do(http.MethodPut, "/v1/invitations/board/"+invitationID, invitee, map[string]string{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"ACCEPTED"`)

	rr = ta.do(http.MethodPut, "/v1/invitations/board/"+invitationID, invitee, map[string]string{"status": "REJECTED"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ta.do(http.MethodGet, "/v1/boards/"+boardID, invitee, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
