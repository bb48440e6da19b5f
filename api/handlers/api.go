package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/config"
	"github.com/linesmerrill/taskboard-api/services"
)

// RequestTimeout bounds every /v1 request. It is longer than the card move
// timeout so a slow move still gets its own answer.
const RequestTimeout = services.DefaultMoveTimeout + 5*time.Second

// App stores the router and the services it routes to
type App struct {
	Router   *mux.Router
	Config   config.Config
	Services *services.Services
	Tokens   *services.TokenIssuer
	Hub      *NotificationHub
	Covers   *CoverSigner
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := api.New()
	auth := api.Auth{Tokens: a.Tokens}

	u := User{Accounts: a.Services.Accounts, CookieLife: a.Config.RefreshTokenLife}
	b := Board{Boards: a.Services.Boards, Moves: a.Services.Moves}
	col := Column{Columns: a.Services.Columns}
	c := Card{Cards: a.Services.Cards}
	inv := Invitation{Invitations: a.Services.Invitations}

	apiCreate := r.PathPrefix("/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(RequestTimeout))

	apiCreate.Handle("/users/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/users/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")
	apiCreate.Handle("/users/logout", http.HandlerFunc(u.LogoutHandler)).Methods("DELETE")
	apiCreate.Handle("/users/verify", http.HandlerFunc(u.VerifyHandler)).Methods("PUT")
	apiCreate.Handle("/users/refresh_token", http.HandlerFunc(u.RefreshTokenHandler)).Methods("GET")

	apiCreate.Handle("/boards", auth.Middleware(http.HandlerFunc(b.BoardListHandler))).Methods("GET")
	apiCreate.Handle("/boards", auth.Middleware(http.HandlerFunc(b.CreateBoardHandler))).Methods("POST")
	apiCreate.Handle("/boards/supports/moving_card", auth.Middleware(http.HandlerFunc(b.MoveCardHandler))).Methods("PUT")
	apiCreate.Handle("/boards/{boardId}", auth.Middleware(http.HandlerFunc(b.BoardHandler))).Methods("GET")
	apiCreate.Handle("/boards/{boardId}", auth.Middleware(http.HandlerFunc(b.UpdateBoardHandler))).Methods("PUT")

	apiCreate.Handle("/columns", auth.Middleware(http.HandlerFunc(col.CreateColumnHandler))).Methods("POST")
	apiCreate.Handle("/columns/{columnId}", auth.Middleware(http.HandlerFunc(col.UpdateColumnHandler))).Methods("PUT")
	apiCreate.Handle("/columns/{columnId}", auth.Middleware(http.HandlerFunc(col.DeleteColumnHandler))).Methods("DELETE")

	apiCreate.Handle("/cards", auth.Middleware(http.HandlerFunc(c.CreateCardHandler))).Methods("POST")
	apiCreate.Handle("/cards/cover-signature", auth.Middleware(http.HandlerFunc(a.Covers.GenerateSignature))).Methods("POST")
	apiCreate.Handle("/cards/{cardId}", auth.Middleware(http.HandlerFunc(c.UpdateCardHandler))).Methods("PUT")
	apiCreate.Handle("/cards/{cardId}", auth.Middleware(http.HandlerFunc(c.DeleteCardHandler))).Methods("DELETE")
	apiCreate.Handle("/cards/{cardId}/comments", auth.Middleware(http.HandlerFunc(c.AddCommentHandler))).Methods("POST")
	apiCreate.Handle("/cards/{cardId}/members", auth.Middleware(http.HandlerFunc(c.UpdateCardMembersHandler))).Methods("PUT")

	apiCreate.Handle("/invitations", auth.Middleware(http.HandlerFunc(inv.InvitationListHandler))).Methods("GET")
	apiCreate.Handle("/invitations/board", auth.Middleware(http.HandlerFunc(inv.CreateBoardInvitationHandler))).Methods("POST")
	apiCreate.Handle("/invitations/board/{invitationId}", auth.Middleware(http.HandlerFunc(inv.RespondToInvitationHandler))).Methods("PUT")

	// the socket outlives any request timeout, so it stays off the /v1 subrouter
	r.Handle("/ws/notifications", auth.Middleware(http.HandlerFunc(a.Hub.HandleNotificationsWebSocket))).Methods("GET")

	return r
}

// Initialize builds the router from the wired services
func (a *App) Initialize() {
	if a.Hub == nil {
		a.Hub = NewNotificationHub(a.Config.WhitelistDomains)
	}
	a.Router = a.New()
}

// Handler is the router behind the CORS layer. Preflight requests never
// match a route, so CORS has to sit outside mux.
func (a *App) Handler() http.Handler {
	return api.CORS(a.Config.WhitelistDomains)(a.Router)
}
