package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/models"
)

// Token types carried in the typ claim
const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// Tokens is the pair handed out on login
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer signs and verifies HS256 tokens
type TokenIssuer struct {
	AccessSecret  []byte
	AccessLife    time.Duration
	RefreshSecret []byte
	RefreshLife   time.Duration
}

// Issue signs an access and a refresh token for the user
func (t *TokenIssuer) Issue(user models.User) (*Tokens, error) {
	if len(t.AccessSecret) == 0 || len(t.RefreshSecret) == 0 {
		return nil, errors.New("token secrets are not configured")
	}
	access, err := sign(user, AccessTokenType, t.AccessSecret, t.AccessLife)
	if err != nil {
		return nil, err
	}
	refresh, err := sign(user, RefreshTokenType, t.RefreshSecret, t.RefreshLife)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs a fresh access token only
func (t *TokenIssuer) IssueAccess(user models.User) (string, error) {
	if len(t.AccessSecret) == 0 {
		return "", errors.New("token secrets are not configured")
	}
	return sign(user, AccessTokenType, t.AccessSecret, t.AccessLife)
}

// ParseAccessToken verifies an access token and returns the user id it was issued to
func (t *TokenIssuer) ParseAccessToken(raw string) (primitive.ObjectID, error) {
	return parse(raw, AccessTokenType, t.AccessSecret)
}

// ParseRefreshToken verifies a refresh token and returns the user id it was issued to
func (t *TokenIssuer) ParseRefreshToken(raw string) (primitive.ObjectID, error) {
	return parse(raw, RefreshTokenType, t.RefreshSecret)
}

func sign(user models.User, typ string, secret []byte, life time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"typ":   typ,
		"iat":   now.Unix(),
		"exp":   now.Add(life).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parse(raw, typ string, secret []byte) (primitive.ObjectID, error) {
	if len(secret) == 0 {
		return primitive.NilObjectID, fmt.Errorf("%w: token secret is not configured", ErrUnauthorized)
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != typ {
		return primitive.NilObjectID, fmt.Errorf("%w: wrong token type", ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	id, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	return id, nil
}
