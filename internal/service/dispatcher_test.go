package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
)

func dueItem(id string, ch domain.Channel, phone, email *string, at time.Time) domain.DueMessage {
	return domain.DueMessage{
		ScheduledMessage: domain.ScheduledMessage{
			ID:           id,
			ContactID:    "contact-" + id,
			UserID:       "user-1",
			Channel:      ch,
			Body:         "body " + id,
			ScheduledFor: at,
			Status:       domain.SchedulePending,
		},
		ContactPhone: phone,
		ContactEmail: email,
	}
}

func TestDispatcher_RunOnce_MixedBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	queue := newFakeQueue(
		dueItem("ok", domain.ChannelSMS, strPtr("+15551230000"), nil, now.Add(-time.Minute)),
		dueItem("no-phone", domain.ChannelSMS, nil, strPtr("a@b.co"), now.Add(-time.Minute)),
		dueItem("email-down", domain.ChannelEmail, nil, strPtr("a@b.co"), now),
		dueItem("future", domain.ChannelSMS, strPtr("+15551230000"), nil, now.Add(time.Hour)),
	)
	sms := &fakeSender{ch: domain.ChannelSMS, id: "SM1"}
	email := &fakeSender{ch: domain.ChannelEmail, err: domain.ErrProviderUnavailable}
	cache := &fakeCache{}
	pub := &fakePublisher{}

	d := NewDispatcher(queue, channel.NewRegistry(sms, email), cache, pub, nil, DispatcherOptions{})
	d.now = func() time.Time { return now }

	report, err := d.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if report.Total != 3 || report.Processed != 1 || report.Failed != 2 {
		t.Fatalf("unexpected counters: total=%d processed=%d failed=%d", report.Total, report.Processed, report.Failed)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}

	msg, ok := queue.completed["ok"]
	if !ok {
		t.Fatalf("expected 'ok' to be completed")
	}
	if msg.Direction != domain.DirectionOutbound || msg.Status != domain.StatusSent {
		t.Errorf("unexpected log row direction/status: %s/%s", msg.Direction, msg.Status)
	}
	if msg.ExternalID == nil || *msg.ExternalID != "SM1" {
		t.Errorf("expected external id SM1, got %v", msg.ExternalID)
	}
	if msg.Metadata["autoSent"] != true || msg.Metadata["scheduledMessageId"] != "ok" {
		t.Errorf("unexpected metadata: %v", msg.Metadata)
	}

	if !strings.Contains(queue.failed["no-phone"], domain.ErrMissingRecipientInfo.Error()) {
		t.Errorf("expected missing recipient failure, got %q", queue.failed["no-phone"])
	}
	if !strings.Contains(queue.failed["email-down"], domain.ErrProviderUnavailable.Error()) {
		t.Errorf("expected provider failure, got %q", queue.failed["email-down"])
	}
	if len(sms.calls) != 1 {
		t.Errorf("expected exactly one SMS provider call, got %d", len(sms.calls))
	}
	if _, cached := cache.entries["ok"]; !cached || len(cache.entries) != 1 {
		t.Errorf("expected only the sent item to be cached, got %v", cache.entries)
	}

	types := pub.types()
	if len(types) != 3 || types[0] != events.ScheduledSent {
		t.Errorf("unexpected events: %v", types)
	}

	// Terminal items are never revisited.
	second, err := d.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if second.Total != 0 {
		t.Errorf("expected no due items on second tick, got %d", second.Total)
	}
}

func TestDispatcher_RunOnce_UnsupportedChannelFails(t *testing.T) {
	queue := newFakeQueue(dueItem("tw", domain.ChannelTwitter, strPtr("+15551230000"), nil, time.Now().Add(-time.Second)))
	d := NewDispatcher(queue, channel.NewRegistry(), nil, nil, nil, DispatcherOptions{})

	report, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Failed != 1 || report.Results[0].Status != domain.ScheduleFailed {
		t.Errorf("expected the item to fail, got %+v", report.Results)
	}
	if !strings.Contains(queue.failed["tw"], domain.ErrUnsupportedChannel.Error()) {
		t.Errorf("unexpected failure text %q", queue.failed["tw"])
	}
}

func TestDispatcher_RunOnce_NoOverlap(t *testing.T) {
	queue := newFakeQueue()
	queue.started = make(chan struct{})
	queue.release = make(chan struct{})

	d := NewDispatcher(queue, channel.NewRegistry(), nil, nil, nil, DispatcherOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := d.RunOnce(context.Background())
		done <- err
	}()

	<-queue.started
	if !d.IsBusy() {
		t.Errorf("expected dispatcher to report busy")
	}

	if _, err := d.RunOnce(context.Background()); !errors.Is(err, domain.ErrTickInProgress) {
		t.Fatalf("expected ErrTickInProgress, got %v", err)
	}

	close(queue.release)
	if err := <-done; err != nil {
		t.Fatalf("first tick: %v", err)
	}

	// The guard is cleared once the tick ends.
	queue.started = nil
	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Errorf("expected a new tick to run, got %v", err)
	}
	if queue.getDue != 2 {
		t.Errorf("expected 2 GetDue calls, got %d", queue.getDue)
	}
}

func TestDispatcher_RunOnce_SkipsWhenLockHeld(t *testing.T) {
	queue := newFakeQueue(dueItem("a", domain.ChannelSMS, strPtr("+15551230000"), nil, time.Now().Add(-time.Minute)))
	locker := &fakeLocker{held: true}

	d := NewDispatcher(queue, channel.NewRegistry(), nil, nil, locker, DispatcherOptions{})

	report, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !report.Skipped {
		t.Errorf("expected skipped report")
	}
	if queue.getDue != 0 {
		t.Errorf("expected no store access while lock is held")
	}

	locker.held = false
	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Errorf("expected lock acquired and released once, got %d/%d", locker.acquired, locker.released)
	}
}

func TestDispatcher_RunOnce_BatchSize(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	queue := newFakeQueue(
		dueItem("1", domain.ChannelSMS, strPtr("+15551230000"), nil, past),
		dueItem("2", domain.ChannelSMS, strPtr("+15551230000"), nil, past),
		dueItem("3", domain.ChannelSMS, strPtr("+15551230000"), nil, past),
	)
	sms := &fakeSender{ch: domain.ChannelSMS}

	d := NewDispatcher(queue, channel.NewRegistry(sms), nil, nil, nil, DispatcherOptions{BatchSize: 2})

	report, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("expected batch of 2, got %d", report.Total)
	}
}

func TestDispatcher_RunOnce_UnrecordedSendIsNotResent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	queue := newFakeQueue(dueItem("a", domain.ChannelSMS, strPtr("+15551230000"), nil, now.Add(-time.Minute)))
	queue.completeErr = errors.New("database is locked")
	sms := &fakeSender{ch: domain.ChannelSMS, id: "SM42"}
	pub := &fakePublisher{}

	d := NewDispatcher(queue, channel.NewRegistry(sms), nil, pub, nil, DispatcherOptions{})
	d.now = func() time.Time { return now }

	report, err := d.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Processed != 0 || report.Failed != 1 {
		t.Fatalf("expected the item to be counted as failed, got processed=%d failed=%d", report.Processed, report.Failed)
	}

	got := report.Results[0]
	if got.Status != domain.ScheduleFailed || got.ExternalID != "SM42" {
		t.Errorf("expected FAILED carrying the provider id, got %+v", got)
	}
	if text := queue.failed["a"]; !strings.Contains(text, "SM42") || !strings.Contains(text, "database is locked") {
		t.Errorf("expected failure text to name the provider id and cause, got %q", text)
	}

	report, err = d.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if report.Total != 0 {
		t.Errorf("expected nothing due on the next tick, got %d", report.Total)
	}
	if len(sms.calls) != 1 {
		t.Errorf("expected exactly one provider send, got %d", len(sms.calls))
	}
}
