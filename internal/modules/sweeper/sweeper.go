// Package sweeper runs the periodic booking housekeeping jobs.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"courtbook/internal/events"
	"courtbook/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const (
	ExpiryReason      = "payment timeout"
	defaultJobTimeout = time.Minute
)

type Store interface {
	ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Schedule   string
	PendingTTL time.Duration
	JobTimeout time.Duration
}

type Result struct {
	Expired   int64
	Completed int64
}

type Sweeper struct {
	store Store
	pub   events.Publisher
	cfg   Config
	log   *slog.Logger
	now   func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func New(store Store, pub events.Publisher, cfg Config, log *slog.Logger) *Sweeper {
	if pub == nil {
		pub = events.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	return &Sweeper{store: store, pub: pub, cfg: cfg, log: log, now: time.Now}
}

// Start schedules RunOnce on cfg.Schedule. Overlapping runs are skipped.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("sweeper already started")
	}

	cl := cronLogger{s.log}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, s.tick); err != nil {
		return fmt.Errorf("sweeper schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("sweeper started", slog.String("schedule", s.cfg.Schedule), slog.Duration("pending_ttl", s.cfg.PendingTTL))
	return nil
}

// Stop prevents new runs and waits for a running one until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("sweeper stop timed out")
	}
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce expires stale PENDING_PAYMENT bookings and completes CONFIRMED ones
// that have ended. A failing job does not stop the other.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	now := s.now().UTC()
	var res Result
	var errs []error

	if s.cfg.PendingTTL > 0 {
		n, err := s.store.ExpirePending(ctx, now.Add(-s.cfg.PendingTTL), ExpiryReason)
		if err != nil {
			s.log.Error("sweeper: expire pending failed", logger.Err(err))
			errs = append(errs, err)
		} else {
			res.Expired = n
			s.announce(ctx, events.BookingExpired, n, now)
		}
	}

	n, err := s.store.CompletePast(ctx, now)
	if err != nil {
		s.log.Error("sweeper: complete past failed", logger.Err(err))
		errs = append(errs, err)
	} else {
		res.Completed = n
		s.announce(ctx, events.BookingCompleted, n, now)
	}

	s.log.Info("sweeper run finished",
		slog.Int64("expired", res.Expired),
		slog.Int64("completed", res.Completed))
	return res, errors.Join(errs...)
}

func (s *Sweeper) announce(ctx context.Context, t events.Type, count int64, at time.Time) {
	if count == 0 {
		return
	}
	ev := events.BookingEvent{Type: t, Count: count, OccurredAt: at}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("sweeper: publish failed", slog.String("type", string(t)), logger.Err(err))
	}
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
