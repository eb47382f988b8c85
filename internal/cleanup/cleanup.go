package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/moviehub/theater-api/internal/logging"
)

// TokenStore is the sweep surface. Implemented by auth.Repository.
type TokenStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler periodically removes expired activation, reset and refresh
// tokens. Expired tokens are also rejected (and deleted) on use, so the
// sweep only keeps the tables from accumulating dead rows.
type Scheduler struct {
	cron   *cron.Cron
	tokens TokenStore
	logger *logging.Logger
}

func NewScheduler(tokens TokenStore, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		tokens: tokens,
		logger: logger,
	}
}

// Start schedules the hourly sweep and runs one immediately so a long
// downtime does not leave stale rows until the next tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweep); err != nil {
		return err
	}

	go s.sweep()
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("token cleanup failed", "error", err.Error())
		return
	}

	if deleted > 0 {
		s.logger.Info("expired tokens removed", "count", deleted)
	}
}
