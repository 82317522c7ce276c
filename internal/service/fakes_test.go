package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/internal/lock"
)

//
// Test fakes shared by the service tests.
//

func strPtr(s string) *string { return &s }

type fakeQueue struct {
	mu        sync.Mutex
	due       []domain.DueMessage
	completed map[string]*domain.Message
	failed    map[string]string
	getDue    int

	// completeErr is returned by the next CompleteDispatch call, then cleared.
	completeErr error

	// started is signalled and release awaited inside GetDue when set.
	started chan struct{}
	release chan struct{}
}

func newFakeQueue(due ...domain.DueMessage) *fakeQueue {
	return &fakeQueue{
		due:       due,
		completed: make(map[string]*domain.Message),
		failed:    make(map[string]string),
	}
}

func (q *fakeQueue) GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueMessage, error) {
	if q.started != nil {
		q.started <- struct{}{}
		<-q.release
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.getDue++

	var out []domain.DueMessage
	for _, d := range q.due {
		if _, done := q.completed[d.ID]; done {
			continue
		}
		if _, done := q.failed[d.ID]; done {
			continue
		}
		if !d.ScheduledFor.After(now) && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (q *fakeQueue) CompleteDispatch(ctx context.Context, id string, msg *domain.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.completeErr; err != nil {
		q.completeErr = nil
		return err
	}
	if _, done := q.completed[id]; done {
		return domain.ErrInvalidTransition
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	q.completed[id] = msg
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id string, errorText string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[id] = errorText
	return nil
}

type fakeSender struct {
	ch     domain.Channel
	err    error
	id     string
	status domain.MessageStatus
	calls  []channel.Payload
}

func (f *fakeSender) Channel() domain.Channel { return f.ch }

func (f *fakeSender) Validate(p channel.Payload) bool { return p.To != "" }

func (f *fakeSender) Send(ctx context.Context, p channel.Payload) (*channel.Result, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == "" {
		status = domain.StatusSent
	}
	id := f.id
	if id == "" {
		id = fmt.Sprintf("EXT-%d", len(f.calls))
	}
	return &channel.Result{ID: id, Status: status}, nil
}

type fakeCache struct {
	entries map[string]domain.SentMessageCache
}

func (c *fakeCache) CacheSentMessage(ctx context.Context, scheduledID string, entry domain.SentMessageCache) error {
	if c.entries == nil {
		c.entries = make(map[string]domain.SentMessageCache)
	}
	c.entries[scheduledID] = entry
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Lease, bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.acquired++
	return fakeLease{l}, true, nil
}

type fakeLease struct{ l *fakeLocker }

func (f fakeLease) Release(context.Context) error {
	f.l.released++
	return nil
}

type fakeContacts struct {
	byID      map[string]*domain.Contact
	advanced  int
	touched   int
	createErr error
	// advanceErr is returned by the next AdvanceStatus call, then cleared.
	advanceErr error
	updates    []domain.ContactUpdate
}

func newFakeContacts(contacts ...*domain.Contact) *fakeContacts {
	f := &fakeContacts{byID: make(map[string]*domain.Contact)}
	for _, c := range contacts {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeContacts) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContacts) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	for _, c := range f.byID {
		if c.Phone != nil && *c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeContacts) Create(ctx context.Context, c *domain.Contact) error {
	if f.createErr != nil {
		return f.createErr
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeContacts) List(ctx context.Context, filter domain.ContactFilter) ([]domain.ContactSummary, int64, error) {
	var out []domain.ContactSummary
	for _, c := range f.byID {
		out = append(out, domain.ContactSummary{Contact: *c})
	}
	return out, int64(len(out)), nil
}

func (f *fakeContacts) Update(ctx context.Context, id string, u domain.ContactUpdate) (*domain.Contact, error) {
	f.updates = append(f.updates, u)
	return f.GetByID(ctx, id)
}

func (f *fakeContacts) AdvanceStatus(ctx context.Context, id string, from, to domain.ContactStatus) (bool, error) {
	if err := f.advanceErr; err != nil {
		f.advanceErr = nil
		return false, err
	}
	c, ok := f.byID[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	f.advanced++
	return true, nil
}

func (f *fakeContacts) Touch(ctx context.Context, id string) error {
	f.touched++
	return nil
}

type fakeMessages struct {
	created    []*domain.Message
	byExternal map[string]*domain.Message
	recent     []domain.Message
	readCount  int64
	applied    []domain.MessageStatus
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{byExternal: make(map[string]*domain.Message)}
}

func (f *fakeMessages) Create(ctx context.Context, m *domain.Message) error {
	if m.ExternalID != nil {
		if _, dup := f.byExternal[*m.ExternalID]; dup {
			return fmt.Errorf("failed to create message: %w", domain.ErrDuplicate)
		}
		f.byExternal[*m.ExternalID] = m
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMessages) GetByExternalID(ctx context.Context, externalID string) (*domain.Message, error) {
	m, ok := f.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessages) ApplyStatus(
	ctx context.Context,
	id string,
	from, to domain.MessageStatus,
	errorMessage *string,
) (bool, error) {
	for _, m := range f.byExternal {
		if m.ID == id && m.Status == from {
			m.Status = to
			f.applied = append(f.applied, to)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessages) List(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, int64, error) {
	out := make([]domain.Message, 0, len(f.created))
	for _, m := range f.created {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessages) ListRecent(ctx context.Context, contactID string, limit int) ([]domain.Message, error) {
	return f.recent, nil
}

func (f *fakeMessages) MarkInboundRead(ctx context.Context, contactID string) (int64, error) {
	return f.readCount, nil
}

type fakeScheduled struct {
	created   []*domain.ScheduledMessage
	retryable []domain.ScheduledMessage
	retries   map[string]time.Time
	retryErr  map[string]error
}

func newFakeScheduled() *fakeScheduled {
	return &fakeScheduled{retries: make(map[string]time.Time), retryErr: make(map[string]error)}
}

func (f *fakeScheduled) Create(ctx context.Context, s *domain.ScheduledMessage) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = domain.SchedulePending
	f.created = append(f.created, s)
	return nil
}

func (f *fakeScheduled) GetByID(ctx context.Context, id string) (*domain.ScheduledMessage, error) {
	for _, s := range f.created {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeScheduled) List(
	ctx context.Context,
	status *domain.ScheduleStatus,
	page, pageSize int,
) ([]domain.ScheduledMessage, int64, error) {
	return nil, 0, nil
}

func (f *fakeScheduled) Stats(ctx context.Context) (*domain.ScheduleStats, error) {
	return &domain.ScheduleStats{}, nil
}

func (f *fakeScheduled) ListRetryable(ctx context.Context) ([]domain.ScheduledMessage, error) {
	return f.retryable, nil
}

func (f *fakeScheduled) CreateRetry(ctx context.Context, failedID string, scheduledFor time.Time) (*domain.ScheduledMessage, error) {
	if err := f.retryErr[failedID]; err != nil {
		return nil, err
	}
	f.retries[failedID] = scheduledFor
	return &domain.ScheduledMessage{ID: uuid.NewString(), RetryOf: &failedID, ScheduledFor: scheduledFor,
		Status: domain.SchedulePending}, nil
}

type fakeTemplates struct {
	byID map[string]*domain.MessageTemplate
}

func (f *fakeTemplates) Create(ctx context.Context, t *domain.MessageTemplate) error {
	if f.byID == nil {
		f.byID = make(map[string]*domain.MessageTemplate)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.IsActive = true
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTemplates) GetByID(ctx context.Context, id string) (*domain.MessageTemplate, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTemplates) ListActive(ctx context.Context) ([]domain.MessageTemplate, error) {
	var out []domain.MessageTemplate
	for _, t := range f.byID {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTemplates) Update(ctx context.Context, id string, u domain.TemplateUpdate) (*domain.MessageTemplate, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTemplates) Deactivate(ctx context.Context, id string) error {
	t, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.IsActive = false
	return nil
}

type fakeNotes struct {
	notes []domain.Note
}

func (f *fakeNotes) Create(ctx context.Context, n *domain.Note) error {
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakeNotes) ListByContact(ctx context.Context, contactID, viewerID string) ([]domain.Note, error) {
	return f.notes, nil
}
