package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockAssistant/internal/recorder"
)

// Scheduler runs query-log housekeeping on cron schedules.
type Scheduler struct {
	Cron          *cron.Cron
	Recorder      recorder.Recorder
	RetentionDays int

	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(rec recorder.Recorder, retentionDays int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Recorder:      rec,
		RetentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// RegisterAll registers the retention prune and the daily digest.
func (s *Scheduler) RegisterAll(retentionCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(retentionCron, s.PruneNow); err != nil {
		return fmt.Errorf("register retention task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.DigestNow); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// PruneNow deletes query records older than the retention window.
func (s *Scheduler) PruneNow() {
	if s.RetentionDays <= 0 {
		return
	}
	cutoff := s.now().AddDate(0, 0, -s.RetentionDays)
	n, err := s.Recorder.Prune(cutoff)
	if err != nil {
		s.logger.Error("prune query log", zap.Error(err))
		return
	}
	s.logger.Info("query log pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
}

// DigestNow logs usage over the last 24 hours.
func (s *Scheduler) DigestNow() {
	st, err := s.Recorder.Stats(s.now().Add(-24 * time.Hour))
	if err != nil {
		s.logger.Error("query log stats", zap.Error(err))
		return
	}
	top := make([]string, 0, len(st.TopTickers))
	for _, tc := range st.TopTickers {
		top = append(top, fmt.Sprintf("%s:%d", tc.Ticker, tc.Count))
	}
	s.logger.Info("daily digest",
		zap.Int("total", st.Total),
		zap.Any("by_outcome", st.ByOutcome),
		zap.Strings("top_tickers", top))
}
