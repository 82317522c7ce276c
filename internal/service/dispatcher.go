package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/internal/lock"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

const (
	DefaultBatchSize = 50
	dispatchLockKey  = "scheduled-dispatch"
)

type dueQueue interface {
	GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueMessage, error)
	CompleteDispatch(ctx context.Context, id string, msg *domain.Message) error
	MarkFailed(ctx context.Context, id string, errorText string) error
}

type senderLookup interface {
	For(ch domain.Channel) (channel.Sender, error)
}

type sentCache interface {
	CacheSentMessage(ctx context.Context, scheduledID string, entry domain.SentMessageCache) error
}

type DispatcherOptions struct {
	BatchSize int
	// LockTTL bounds how long a crashed instance can block the others.
	LockTTL time.Duration
}

// Dispatcher drains due scheduled messages, one item at a time.
type Dispatcher struct {
	queue     dueQueue
	senders   senderLookup
	cache     sentCache
	publisher events.Publisher
	locker    lock.Locker

	batchSize int
	lockTTL   time.Duration
	now       func() time.Time

	busy atomic.Bool
}

func NewDispatcher(
	queue dueQueue,
	senders senderLookup,
	cache sentCache,
	publisher events.Publisher,
	locker lock.Locker,
	opts DispatcherOptions,
) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}

	return &Dispatcher{
		queue:     queue,
		senders:   senders,
		cache:     cache,
		publisher: publisher,
		locker:    locker,
		batchSize: opts.BatchSize,
		lockTTL:   opts.LockTTL,
		now:       time.Now,
	}
}

// RunOnce executes one tick. It returns domain.ErrTickInProgress when another tick
// of this process is still running, and a report with Skipped set when another
// process holds the dispatch lock.
func (d *Dispatcher) RunOnce(ctx context.Context) (*domain.DispatchReport, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrTickInProgress
	}
	defer d.busy.Store(false)

	now := d.now().UTC()
	report := &domain.DispatchReport{
		Results:   []domain.DispatchResult{},
		Timestamp: now,
	}

	if d.locker != nil {
		lease, ok, err := d.locker.Acquire(ctx, dispatchLockKey, d.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire dispatch lock: %w", err)
		}
		if !ok {
			logger.Infof("Dispatch lock held by another instance, skipping tick")
			report.Skipped = true
			return report, nil
		}
		defer func() {
			// The tick context may already be cancelled; release regardless.
			if err := lease.Release(context.Background()); err != nil {
				logger.Warnf("Failed to release dispatch lock: %v", err)
			}
		}()
	}

	due, err := d.queue.GetDue(ctx, now, d.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get due scheduled messages: %w", err)
	}

	report.Total = len(due)
	if len(due) == 0 {
		logger.Debugf("No scheduled messages due")
		return report, nil
	}

	logger.Infof("Processing %d scheduled messages", len(due))

	for _, item := range due {
		result := d.dispatch(ctx, item)
		if result.Success {
			report.Processed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// IsBusy reports whether a tick is running in this process.
func (d *Dispatcher) IsBusy() bool {
	return d.busy.Load()
}

func (d *Dispatcher) dispatch(ctx context.Context, item domain.DueMessage) domain.DispatchResult {
	result := domain.DispatchResult{ID: item.ID}

	to, err := channel.RecipientFor(item.Recipient(), item.Channel)
	if err != nil {
		return d.fail(ctx, item, result, err)
	}

	sender, err := d.senders.For(item.Channel)
	if err != nil {
		return d.fail(ctx, item, result, err)
	}

	payload := channel.Payload{To: to, Body: item.Body}
	if item.HTMLBody != nil {
		payload.HTMLBody = *item.HTMLBody
	}
	if item.Subject != nil {
		payload.Subject = *item.Subject
	}

	sent, err := sender.Send(ctx, payload)
	if err != nil {
		return d.fail(ctx, item, result, err)
	}

	sentAt := d.now().UTC().Truncate(time.Millisecond)
	userID := item.UserID
	scheduledFor := item.ScheduledFor
	msg := &domain.Message{
		ContactID:    item.ContactID,
		UserID:       &userID,
		Channel:      item.Channel,
		Direction:    domain.DirectionOutbound,
		Status:       domain.StatusSent,
		Body:         item.Body,
		HTMLBody:     item.HTMLBody,
		ScheduledFor: &scheduledFor,
		SentAt:       &sentAt,
		Metadata: domain.JSONMap{
			"to":                 to,
			"scheduledMessageId": item.ID,
			"autoSent":           true,
			"providerStatus":     string(sent.Status),
		},
	}
	if sent.ID != "" {
		externalID := sent.ID
		msg.ExternalID = &externalID
	}

	if err := d.queue.CompleteDispatch(ctx, item.ID, msg); err != nil {
		// The provider accepted the message. Leaving the item PENDING would send it
		// again on the next tick, so it is closed as FAILED with the provider id.
		result.ExternalID = sent.ID
		return d.fail(ctx, item, result, fmt.Errorf("sent as %s but not recorded: %w", sent.ID, err))
	}

	if d.cache != nil {
		entry := domain.SentMessageCache{
			MessageID:  msg.ID,
			ExternalID: sent.ID,
			Channel:    item.Channel,
			SentAt:     sentAt,
		}
		if err := d.cache.CacheSentMessage(ctx, item.ID, entry); err != nil {
			logger.Warnf("Failed to cache scheduled message %s: %v", item.ID, err)
		}
	}

	events.PublishOrLog(ctx, d.publisher, events.Event{
		Type:        events.ScheduledSent,
		ContactID:   item.ContactID,
		MessageID:   msg.ID,
		ScheduledID: item.ID,
		Channel:     item.Channel,
		Status:      domain.StatusSent,
	})

	logger.Infof("Sent scheduled message %s to %s (externalId: %s)", item.ID, to, sent.ID)

	result.Success = true
	result.Status = domain.ScheduleSent
	result.MessageID = msg.ID
	result.ExternalID = sent.ID
	return result
}

func (d *Dispatcher) fail(
	ctx context.Context,
	item domain.DueMessage,
	result domain.DispatchResult,
	cause error,
) domain.DispatchResult {
	logger.Errorf("Failed to send scheduled message %s: %v", item.ID, cause)

	if err := d.queue.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		logger.Errorf("Failed to mark scheduled message %s as failed: %v", item.ID, err)
	}

	events.PublishOrLog(ctx, d.publisher, events.Event{
		Type:        events.ScheduledFailed,
		ContactID:   item.ContactID,
		ScheduledID: item.ID,
		Channel:     item.Channel,
		Status:      domain.StatusFailed,
		Error:       cause.Error(),
	})

	result.Status = domain.ScheduleFailed
	result.Error = cause.Error()
	return result
}
