package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/api"
	"github.com/linesmerrill/taskboard-api/config"
	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/databases/memdb"
	"github.com/linesmerrill/taskboard-api/services"
)

// loadConfig reads the environment and applies the flags that override it
func loadConfig(cmd *cobra.Command) *config.Config {
	conf := config.New()
	if cmd.Flags().Changed("in-memory") {
		conf.InMemory, _ = cmd.Flags().GetBool("in-memory")
	}
	return conf
}

// openStore connects to MongoDB, or builds the in-memory store, and returns
// the repositories plus the function that releases them
func openStore(ctx context.Context, conf *config.Config) (*databases.Repositories, func(context.Context) error, error) {
	if conf.InMemory {
		zap.S().Warn("using the in-memory store, data is lost on restart")
		return memdb.New().Repositories(), func(context.Context) error { return nil }, nil
	}

	client, err := databases.NewClient(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("create database client: %w", err)
	}
	qctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	if err := client.Connect(qctx); err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := client.Ping(qctx); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	db := databases.NewDatabase(conf, client)
	if err := databases.EnsureIndexes(qctx, db); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}
	zap.S().Infow("connected to the database", "database", conf.DatabaseName)
	return databases.NewRepositories(db), client.Disconnect, nil
}

func tokenIssuer(conf *config.Config) *services.TokenIssuer {
	if conf.AccessTokenSecret == "" || conf.RefreshTokenSecret == "" {
		zap.S().Warn("ACCESS_TOKEN_SECRET or REFRESH_TOKEN_SECRET is not set, logins will fail")
	}
	return &services.TokenIssuer{
		AccessSecret:  []byte(conf.AccessTokenSecret),
		AccessLife:    conf.AccessTokenLife,
		RefreshSecret: []byte(conf.RefreshTokenSecret),
		RefreshLife:   conf.RefreshTokenLife,
	}
}
