package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/services"
)

const (
	reconcileLock    = "reconcile_job"
	reconcileLockTTL = 10 * time.Minute
	reconcileTimeout = 5 * time.Minute
)

// Reconciler is the part of services.Reconciler the scheduler drives
type Reconciler interface {
	ResolveMoves(ctx context.Context, before time.Time) (int, error)
	ReconcileAll(ctx context.Context) ([]services.ReconcileReport, error)
}

// Scheduler runs the periodic order repair job on one instance at a time
type Scheduler struct {
	cron       *cron.Cron
	Reconciler Reconciler
	LockDB     databases.SchedulerLockDatabase
	Schedule   string
	Grace      time.Duration
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(reconciler Reconciler, lockDB databases.SchedulerLockDatabase, schedule string, grace time.Duration) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Reconciler: reconciler,
		LockDB:     lockDB,
		Schedule:   schedule,
		Grace:      grace,
		instanceID: instanceID,
	}
}

// Start registers the reconcile job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.Schedule, s.reconcile); err != nil {
		return fmt.Errorf("register reconcile job %q: %w", s.Schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("reconcile scheduler started", "schedule", s.Schedule, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("reconcile scheduler stopped")
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce resolves stale card moves and then reconciles every board, unless
// another instance holds the lock. It reports whether the job ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	acquired, err := s.LockDB.TryAcquireLock(ctx, reconcileLock, s.instanceID, reconcileLockTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reconcile job", "error", err)
		return false
	}
	if !acquired {
		zap.S().Debug("reconcile job already running on another instance, skipping")
		return false
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(context.WithoutCancel(ctx), reconcileLock, s.instanceID); err != nil {
			zap.S().Warnw("failed to release reconcile lock", "error", err)
		}
	}()

	start := time.Now()
	resolved, err := s.Reconciler.ResolveMoves(ctx, start.Add(-s.Grace))
	if err != nil {
		zap.S().Errorw("card move resolution finished with errors", "resolved", resolved, "error", err)
	}
	reports, err := s.Reconciler.ReconcileAll(ctx)
	if err != nil {
		zap.S().Errorw("board reconciliation finished with errors", "repairedBoards", len(reports), "error", err)
	}
	zap.S().Infow("reconcile job done",
		"instance", s.instanceID,
		"resolvedMoves", resolved,
		"repairedBoards", len(reports),
		"duration", time.Since(start))
	return true
}
