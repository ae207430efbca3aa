package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CardWatch/internal/collector"
	"CardWatch/internal/model"
	"CardWatch/internal/notifier"
	"CardWatch/internal/recorder"
)

// Scheduler runs the balance comparison pass, once or on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Store     recorder.Store
	Fetcher   collector.BalanceFetcher
	Notifier  notifier.Sender
	CardID    int64
	Recipient string
	Location  *time.Location
	Out       io.Writer // receives the diagnostic line
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(store recorder.Store, fetcher collector.BalanceFetcher, sender notifier.Sender,
	cardID int64, recipient string, loc *time.Location, out io.Writer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(jobChain(logger)...),
		),
		Store:     store,
		Fetcher:   fetcher,
		Notifier:  sender,
		CardID:    cardID,
		Recipient: recipient,
		Location:  loc,
		Out:       out,
		Logger:    logger,
		Now:       time.Now,
	}
}

// RunOnce performs one pass: read the stored balance, fetch the remote one and,
// when they differ, append the new value and send a notification.
// A failed notification does not undo the append.
func (s *Scheduler) RunOnce(ctx context.Context) (*model.Observation, error) {
	log := s.Logger.With(zap.String("run_id", uuid.NewString()), zap.Int64("card", s.CardID))
	obs := &model.Observation{At: s.Now().In(s.Location), CardID: s.CardID}

	previous, err := s.Store.CurrentBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current balance: %w", err)
	}
	obs.Previous = previous

	current, err := s.Fetcher.FetchBalance(ctx, s.CardID)
	if err != nil {
		return nil, fmt.Errorf("fetch balance from %s: %w", s.Fetcher.Name(), err)
	}
	obs.Current = current

	if s.Out != nil {
		fmt.Fprintln(s.Out, notifier.FormatDiagnostic(obs))
	}
	log.Info("balance checked", zap.Float64("previous", previous), zap.Float64("current", current))

	if current == previous {
		return obs, nil
	}

	obs.Changed = true
	obs.Delta = current - previous
	if err := s.Store.AppendBalance(ctx, current); err != nil {
		return obs, fmt.Errorf("append balance: %w", err)
	}
	log.Info("balance changed", zap.Float64("delta", obs.Delta))

	if err := s.Notifier.Send(ctx, s.Recipient, notifier.FormatChange(obs)); err != nil {
		return obs, fmt.Errorf("send notification: %w", err)
	}
	obs.Notified = true
	return obs, nil
}

// Register schedules RunOnce on a cron expression (six fields, seconds first).
func (s *Scheduler) Register(ctx context.Context, expr string) error {
	if _, err := s.Cron.AddFunc(expr, func() { s.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("register balance check: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// jobChain recovers panics in a scheduled pass and never lets passes overlap.
func jobChain(logger *zap.Logger) []cron.JobWrapper {
	cl := cronLogger{logger}
	return []cron.JobWrapper{cron.Recover(cl), cron.SkipIfStillRunning(cl)}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.Logger.Error("scheduled balance check failed", zap.Error(err))
	}
}
