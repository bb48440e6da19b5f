package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/logging"
)

// Cookie names set on login and cleared on logout
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// TokenParser verifies an access token and returns the user it was issued to
type TokenParser interface {
	ParseAccessToken(raw string) (primitive.ObjectID, error)
}

// Auth guards routes with the access token
type Auth struct {
	Tokens TokenParser
}

// Middleware rejects requests without a valid access token and puts the
// user id on the request context otherwise. An expired token gets 410 so the
// client knows to refresh instead of signing out.
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		raw := bearerToken(r)
		if raw == "" {
			unauthorized(w, r, "missing access token")
			return
		}
		userID, err := a.Tokens.ParseAccessToken(raw)
		if errors.Is(err, jwt.ErrTokenExpired) {
			zap.S().Debugw("access token expired", "url", r.URL.String())
			w.WriteHeader(http.StatusGone)
			w.Write([]byte(`{"error": "token expired"}`))
			return
		}
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}
		ctx := WithUserID(r.Context(), userID)
		ctx = logging.WithFields(ctx, "userId", userID.Hex())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken prefers the Authorization header and falls back to the cookie
// the browser client sends
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	zap.S().Debugw("unauthorized", "url", r.URL.String(), "reason", reason)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}
