package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// AccountService registers, verifies and logs in users
type AccountService struct {
	Repos  *databases.Repositories
	Tokens *TokenIssuer
	// Mailer delivers the verification link. Without one the link is only logged.
	Mailer AccountNotifier
	// BaseUrl is the web app address the verification link points at
	BaseUrl string
}

// Credentials is the register and login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on a successful login
type LoginResult struct {
	User models.UserSummary `json:"user"`
	Tokens
}

// VerifyInput is the account verification request body
type VerifyInput struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Register creates an inactive client account and sends its verification
// link. The username and display name default to the local part of the email.
func (s *AccountService) Register(ctx context.Context, in Credentials) (*models.UserSummary, error) {
	const op = "register"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(in.Password) < 8 {
		return nil, invalid("password", "must be at least 8 characters")
	}
	if _, err := s.Repos.Users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, classify(op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}
	name, _, _ := strings.Cut(email, "@")
	user := models.User{
		Email:       email,
		Password:    string(hash),
		Username:    name,
		DisplayName: name,
		Role:        models.UserRoleClient,
		IsActive:    false,
		VerifyToken: uuid.NewString(),
		CreatedAt:   now(),
	}
	if err := user.Validate(); err != nil {
		return nil, classify(op, err)
	}

	id, err := s.Repos.Users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	user.ID = id
	log := logging.FromContext(ctx).With("userId", id.Hex())
	log.Infow("user registered")

	link := VerificationLink(s.BaseUrl, user.Email, user.VerifyToken)
	if s.Mailer == nil {
		log.Debugw("no mailer configured, verification link not sent", "link", link)
	} else if err := s.Mailer.AccountCreated(ctx, user.Summary(), link); err != nil {
		log.Warnw("could not send verification email", "error", err)
	}
	summary := user.Summary()
	return &summary, nil
}

// Verify activates the account the verification link was sent for
func (s *AccountService) Verify(ctx context.Context, in VerifyInput) (*models.UserSummary, error) {
	const op = "verifyAccount"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Token == "" {
		return nil, invalid("token", "is required")
	}
	user, err := s.Repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, classify(op, err)
	}
	if user.IsActive {
		return nil, fmt.Errorf("%s: %w: account is already active", op, ErrConflict)
	}
	if user.VerifyToken != in.Token {
		return nil, invalid("token", "is invalid")
	}

	activated, err := s.Repos.Users.Activate(ctx, email, in.Token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// verified by a concurrent request
		return nil, fmt.Errorf("%s: %w: account is already active", op, ErrConflict)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	logging.FromContext(ctx).Infow("account verified", "userId", activated.ID.Hex())
	summary := activated.Summary()
	return &summary, nil
}

// Refresh exchanges a refresh token for a new access token. The account must
// still exist and be active.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	const op = "refreshToken"
	userID, err := s.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.Repos.Users.FindOne(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w: account no longer exists", op, ErrUnauthorized)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w: account is not active", op, ErrUnauthorized)
	}
	access, err := s.Tokens.IssueAccess(*user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Tokens{AccessToken: access}, nil
}

// VerificationLink is the web app address that confirms an account
func VerificationLink(baseUrl, email, token string) string {
	q := url.Values{"email": {email}, "token": {token}}
	return strings.TrimRight(baseUrl, "/") + "/account/verification?" + q.Encode()
}

// Login checks the password and issues an access and a refresh token. An
// unknown email and a wrong password fail the same way.
func (s *AccountService) Login(ctx context.Context, in Credentials) (*LoginResult, error) {
	const op = "login"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.Repos.Users.FindByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w: email or password is incorrect", op, ErrUnauthorized)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%s: %w: email or password is incorrect", op, ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w: account is not active", op, ErrUnauthorized)
	}

	tokens, err := s.Tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{User: user.Summary(), Tokens: *tokens}, nil
}
