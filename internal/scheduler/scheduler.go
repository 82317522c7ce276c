package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
	"github.com/onurcolak/unified-inbox-service/pkg/webhook"
)

const DefaultInterval = time.Minute

// tickRunner matches Dispatcher.RunOnce.
type tickRunner interface {
	RunOnce(ctx context.Context) (*domain.DispatchReport, error)
}

type alerter interface {
	SendAlert(ctx context.Context, alert webhook.Alert) error
}

type Scheduler struct {
	dispatcher      tickRunner
	alerts          alerter
	interval        time.Duration
	alertThreshold  int // consecutive all-fail ticks before an alert
	lastAlertSentAt time.Time

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt      time.Time
	messagesSent   int64
	messagesFailed int64
	skippedRuns    int64
	runsCount      int64

	consecutiveAllFailCount int
}

// NewScheduler builds a stopped scheduler. alerts may be nil to disable alerting.
func NewScheduler(dispatcher tickRunner, alerts alerter, interval time.Duration, alertThreshold int) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		dispatcher:     dispatcher,
		alerts:         alerts,
		interval:       interval,
		alertThreshold: alertThreshold,
	}
}

// StartWithParams overrides the interval before starting. A zero interval keeps the
// configured one. A running scheduler is left untouched.
func (s *Scheduler) StartWithParams(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running, keeping interval %v", s.interval)
		return nil
	}
	if interval > 0 {
		s.interval = interval
	}
	s.consecutiveAllFailCount = 0
	s.mu.Unlock()

	return s.Start(ctx)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	interval := s.interval
	s.mu.Unlock()

	logger.Infof("Starting scheduler with interval: %v", interval)

	go s.run(ctx, interval)

	return nil
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer close(s.doneChan)

	// Stop waits for the in-flight tick instead of cancelling it.
	tickCtx := context.WithoutCancel(ctx)

	s.tick(tickCtx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("Scheduler running. Next execution in %v", interval)

	for {
		select {
		case <-ticker.C:
			s.tick(tickCtx)
			logger.Debugf("Next execution in %v", interval)

		case <-s.stopChan:
			logger.Warnf("Scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Scheduler context cancelled")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Run #%d] Dispatch panicked: %v", runNumber, r)
		}
	}()

	logger.Infof("[Run #%d] Starting dispatch at %s", runNumber, time.Now().Format(time.RFC3339))

	report, err := s.dispatcher.RunOnce(ctx)
	if errors.Is(err, domain.ErrTickInProgress) {
		s.recordSkip()
		logger.Warnf("[Run #%d] Previous dispatch still running, skipping", runNumber)
		return
	}
	if err != nil {
		logger.Errorf("[Run #%d] Error dispatching scheduled messages: %v", runNumber, err)
		return
	}

	if report.Skipped {
		s.recordSkip()
		logger.Infof("[Run #%d] Dispatch lock held elsewhere, skipping", runNumber)
		return
	}

	if report.Total == 0 {
		logger.Debugf("[Run #%d] No messages to dispatch", runNumber)
		return
	}

	s.record(ctx, runNumber, report)

	logger.Infof("[Run #%d] Processed %d messages, %d successful, %d failed",
		runNumber, report.Total, report.Processed, report.Failed)
}

func (s *Scheduler) recordSkip() {
	s.mu.Lock()
	s.skippedRuns++
	s.mu.Unlock()
}

func (s *Scheduler) record(ctx context.Context, runNumber int64, report *domain.DispatchReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messagesSent += int64(report.Processed)
	s.messagesFailed += int64(report.Failed)

	if report.Processed > 0 {
		if s.consecutiveAllFailCount > 0 {
			logger.Debugf("[Run #%d] Resetting consecutive failure count (was: %d)",
				runNumber, s.consecutiveAllFailCount)
		}
		s.consecutiveAllFailCount = 0
		return
	}

	s.consecutiveAllFailCount++
	logger.Warnf("[Run #%d] All %d messages failed (consecutive count: %d/%d)",
		runNumber, report.Total, s.consecutiveAllFailCount, s.alertThreshold)

	if s.alerts != nil && s.alertThreshold > 0 && s.consecutiveAllFailCount >= s.alertThreshold {
		go s.sendAlert(ctx, runNumber, s.consecutiveAllFailCount, report.Total)
	}
}

func (s *Scheduler) sendAlert(ctx context.Context, runNumber int64, consecutiveFailures int, messagesInBatch int) {
	alert := webhook.Alert{
		Alert:               "consecutive_all_fail",
		RunNumber:           runNumber,
		ConsecutiveFailures: consecutiveFailures,
		MessagesInBatch:     messagesInBatch,
		Timestamp:           time.Now().UTC(),
		Message: fmt.Sprintf(
			"All %d messages failed for %d consecutive iterations",
			messagesInBatch,
			consecutiveFailures,
		),
	}

	if err := s.alerts.SendAlert(ctx, alert); err != nil {
		logger.Errorf("Failed to send alert: %v", err)
		return
	}

	s.mu.Lock()
	s.lastAlertSentAt = time.Now()
	s.mu.Unlock()
	logger.Infof("Alert sent (consecutive failures: %d)", consecutiveFailures)
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)

	// The in-flight tick, if any, finishes before the loop exits.
	<-doneChan

	logger.Infof("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:                 s.running,
		LastRunAt:               s.lastRunAt,
		MessagesSent:            s.messagesSent,
		MessagesFailed:          s.messagesFailed,
		SkippedRuns:             s.skippedRuns,
		RunsCount:               s.runsCount,
		Interval:                s.interval.String(),
		ConsecutiveAllFailCount: s.consecutiveAllFailCount,
		LastAlertSentAt:         s.lastAlertSentAt,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

type SchedulerStatus struct {
	Running                 bool      `json:"running"`
	LastRunAt               time.Time `json:"lastRunAt,omitempty"`
	NextRunAt               time.Time `json:"nextRunAt,omitempty"`
	MessagesSent            int64     `json:"messagesSent"`
	MessagesFailed          int64     `json:"messagesFailed"`
	SkippedRuns             int64     `json:"skippedRuns"`
	RunsCount               int64     `json:"runsCount"`
	Interval                string    `json:"interval"`
	ConsecutiveAllFailCount int       `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time `json:"lastAlertSentAt,omitempty"`
}
