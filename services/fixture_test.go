package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/databases/memdb"
	"github.com/linesmerrill/taskboard-api/models"
	"github.com/linesmerrill/taskboard-api/services"
)

var testTokens = &services.TokenIssuer{
	AccessSecret:  []byte("access-secret"),
	AccessLife:    time.Hour,
	RefreshSecret: []byte("refresh-secret"),
	RefreshLife:   24 * time.Hour,
}

type fixture struct {
	ctx   context.Context
	store *memdb.Store
	repos *databases.Repositories
	svc   *services.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memdb.New()
	repos := store.Repositories()
	return &fixture{
		ctx:   context.Background(),
		store: store,
		repos: repos,
		svc:   services.New(repos, nil, testTokens),
	}
}

// rewire rebuilds the services over a modified copy of the repositories
func (f *fixture) rewire(fn func(r *databases.Repositories)) *services.Services {
	r := *f.repos
	fn(&r)
	return services.New(&r, nil, testTokens)
}

func (f *fixture) user(t *testing.T, email string) primitive.ObjectID {
	t.Helper()
	id, err := f.repos.Users.InsertOne(f.ctx, models.User{
		Email:       email,
		Password:    "x",
		Username:    email,
		DisplayName: email,
		Role:        models.UserRoleClient,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) board(t *testing.T, owner primitive.ObjectID, title string) primitive.ObjectID {
	t.Helper()
	b, err := f.svc.Boards.CreateBoard(f.ctx, owner, services.CreateBoardInput{
		Title:       title,
		Description: "a test board",
		Type:        models.BoardTypePrivate,
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) column(t *testing.T, owner, boardID primitive.ObjectID, title string) primitive.ObjectID {
	t.Helper()
	c, err := f.svc.Columns.CreateColumn(f.ctx, owner, services.CreateColumnInput{BoardID: boardID, Title: title})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) card(t *testing.T, owner, boardID, columnID primitive.ObjectID, title string) primitive.ObjectID {
	t.Helper()
	c, err := f.svc.Cards.CreateCard(f.ctx, owner, services.CreateCardInput{BoardID: boardID, ColumnID: columnID, Title: title})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) cardOrder(t *testing.T, columnID primitive.ObjectID) models.OrderIDs {
	t.Helper()
	c, err := f.repos.Columns.FindOne(f.ctx, columnID)
	require.NoError(t, err)
	return c.CardOrderIDs
}

func (f *fixture) columnOrder(t *testing.T, boardID primitive.ObjectID) models.OrderIDs {
	t.Helper()
	b, err := f.repos.Boards.FindOne(f.ctx, boardID)
	require.NoError(t, err)
	return b.ColumnOrderIDs
}

func (f *fixture) columnOf(t *testing.T, cardID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	c, err := f.repos.Cards.FindOne(f.ctx, cardID)
	require.NoError(t, err)
	return c.ColumnID
}
