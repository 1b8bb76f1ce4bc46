package jobs

import (
	"context"
	"log/slog"

	"github.com/ellisbray/homebase/internal/store"
)

// rateLimiter is the slice of the middleware limiter the job needs.
type rateLimiter interface {
	Cleanup()
}

// Cleanup drops expired sessions and stale rate-limit entries.
type Cleanup struct {
	sessions *store.SessionStore
	limiter  rateLimiter
	logger   *slog.Logger
}

func NewCleanup(sessions *store.SessionStore, limiter rateLimiter, logger *slog.Logger) *Cleanup {
	return &Cleanup{sessions: sessions, limiter: limiter, logger: logger}
}

func (j *Cleanup) Name() string { return "cleanup" }

func (j *Cleanup) Run(ctx context.Context) error {
	n, err := j.sessions.DeleteExpired()
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("expired sessions removed", "count", n)
	}

	if j.limiter != nil {
		j.limiter.Cleanup()
	}
	return nil
}
