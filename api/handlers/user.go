package handlers

import (
	"net/http"
	"time"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/services"
)

// User exposes registration, verification, login, token refresh and logout
type User struct {
	Accounts *services.AccountService
	// CookieLife is how long the browser keeps the token cookies
	CookieLife time.Duration
}

// RegisterHandler creates an account
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.Accounts.Register(ctx, in)
	if err != nil {
		writeError(w, r, "failed to register user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// VerifyHandler activates the account behind a verification link
func (u User) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var in services.VerifyInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.Accounts.Verify(ctx, in)
	if err != nil {
		writeError(w, r, "failed to verify account", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// RefreshTokenHandler reissues the access token from the refresh token cookie
func (u User) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var raw string
	if c, err := r.Cookie(api.RefreshTokenCookie); err == nil {
		raw = c.Value
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tokens, err := u.Accounts.Refresh(ctx, raw)
	if err != nil {
		writeError(w, r, "failed to refresh token", err)
		return
	}
	http.SetCookie(w, u.cookie(api.AccessTokenCookie, tokens.AccessToken, u.CookieLife))
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": tokens.AccessToken})
}

// LoginHandler checks the credentials and hands back the tokens both in the
// body and as http-only cookies
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := u.Accounts.Login(ctx, in)
	if err != nil {
		writeError(w, r, "failed to login", err)
		return
	}
	http.SetCookie(w, u.cookie(api.AccessTokenCookie, res.AccessToken, u.CookieLife))
	http.SetCookie(w, u.cookie(api.RefreshTokenCookie, res.RefreshToken, u.CookieLife))
	writeJSON(w, http.StatusOK, res)
}

// LogoutHandler clears the token cookies
func (u User) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, u.cookie(api.AccessTokenCookie, "", -1))
	http.SetCookie(w, u.cookie(api.RefreshTokenCookie, "", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (u User) cookie(name, value string, life time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if life < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(life.Seconds())
	}
	return c
}
