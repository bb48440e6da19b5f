package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/api/handlers"
	"github.com/linesmerrill/taskboard-api/api/scheduler"
	"github.com/linesmerrill/taskboard-api/config"
	"github.com/linesmerrill/taskboard-api/services"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconcile scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := loadConfig(cmd)
			if port != "" {
				conf.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, conf)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, conf *config.Config) error {
	repos, closeStore, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	tokens := tokenIssuer(conf)
	hub := handlers.NewNotificationHub(conf.WhitelistDomains)
	defer hub.Close()
	notifier := services.MultiNotifier{hub}
	var mailer *services.MailNotifier
	if conf.SendgridAPIKey != "" {
		mailer = services.NewMailNotifier(conf.SendgridAPIKey, conf.SendgridFromEmail, conf.BaseUrl)
		notifier = append(notifier, mailer)
	}
	svc := services.New(repos, notifier, tokens)
	svc.Accounts.BaseUrl = conf.BaseUrl
	if mailer != nil {
		svc.Accounts.Mailer = mailer
	}

	var covers *handlers.CoverSigner
	if conf.CloudinaryURL != "" {
		if covers, err = handlers.NewCoverSigner(conf.CloudinaryURL, conf.CloudinaryFolder); err != nil {
			return err
		}
	}

	a := handlers.App{
		Config:   *conf,
		Services: svc,
		Tokens:   tokens,
		Hub:      hub,
		Covers:   covers,
	}
	a.Initialize()

	sched := scheduler.NewScheduler(svc.Reconciler, repos.Locks, conf.ReconcileSchedule, conf.ReconcileGrace)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", conf.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	zap.S().Infow("taskboard-api is up and running",
		"port", conf.Port,
		"url", conf.BaseUrl,
		"inMemory", conf.InMemory,
	)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
