package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/internal/lock"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/internal/repository"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/database"
	"github.com/onurcolak/unified-inbox-service/pkg/redis"
	validatorpkg "github.com/onurcolak/unified-inbox-service/pkg/validator"
)

const (
	testJWTSecret = "test-jwt-secret"
	testOperator  = "operator-1"
)

// stubSender stands in for a provider.
type stubSender struct {
	ch    domain.Channel
	err   error
	calls int
}

func (s *stubSender) Channel() domain.Channel { return s.ch }

func (s *stubSender) Validate(p channel.Payload) bool { return p.To != "" }

func (s *stubSender) Send(ctx context.Context, p channel.Payload) (*channel.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &channel.Result{ID: fmt.Sprintf("SM%d", s.calls), Status: domain.StatusSent}, nil
}

type testEnv struct {
	db        *sqlx.DB
	contacts  *repository.ContactRepository
	messages  *repository.MessageRepository
	scheduled *repository.ScheduledMessageRepository
	locker    *lock.LocalLocker
	sms       *stubSender
	cache     *redis.Client

	dispatcher *service.Dispatcher

	messageHandler   *MessageHandler
	contactHandler   *ContactHandler
	noteHandler      *NoteHandler
	templateHandler  *TemplateHandler
	scheduledHandler *ScheduledHandler
	webhookHandler   *WebhookHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	mr := miniredis.RunT(t)
	vc, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{mr.Addr()}, DisableCache: true})
	if err != nil {
		t.Fatalf("valkey client: %v", err)
	}
	cache := redis.NewFromValkey(vc)
	t.Cleanup(func() { cache.Close() })

	env := &testEnv{
		db:        db,
		contacts:  repository.NewContactRepository(db),
		messages:  repository.NewMessageRepository(db),
		scheduled: repository.NewScheduledMessageRepository(db),
		locker:    lock.NewLocalLocker(),
		sms:       &stubSender{ch: domain.ChannelSMS},
	}
	templates := repository.NewTemplateRepository(db)
	notes := repository.NewNoteRepository(db)
	registry := channel.NewRegistry(env.sms)
	publisher := events.NopPublisher{}

	scheduleService := service.NewScheduleService(templates, env.scheduled, env.contacts)
	messageService := service.NewMessageService(env.contacts, env.messages, scheduleService, registry, publisher)
	contactService := service.NewContactService(env.contacts, env.messages, notes)
	inboundService := service.NewInboundService(env.contacts, env.messages, publisher)
	dispatcher := service.NewDispatcher(env.scheduled, registry, cache, publisher, env.locker, service.DispatcherOptions{})
	env.cache = cache
	env.dispatcher = dispatcher

	env.messageHandler = NewMessageHandler(messageService)
	env.contactHandler = NewContactHandler(contactService)
	env.noteHandler = NewNoteHandler(contactService)
	env.templateHandler = NewTemplateHandler(scheduleService)
	env.scheduledHandler = NewScheduledHandler(scheduleService, dispatcher, cache)
	env.webhookHandler = NewWebhookHandler(inboundService)

	return env
}

// call runs h behind the operator JWT middleware. params are path name/value pairs.
func (env *testEnv) call(t *testing.T, h echo.HandlerFunc, method, target string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}

	token, err := middlewares.IssueToken(testJWTSecret, testOperator, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e := echo.New()
	e.Validator = validatorpkg.New()
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if err := middlewares.JWTAuth(testJWTSecret)(h)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func (env *testEnv) postForm(t *testing.T, h echo.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func (env *testEnv) createContact(t *testing.T, phone, email string) *domain.Contact {
	t.Helper()

	c := &domain.Contact{Name: strPtr("Test Contact")}
	if phone != "" {
		c.Phone = strPtr(phone)
	}
	if email != "" {
		c.Email = strPtr(email)
	}
	if err := env.contacts.Create(context.Background(), c); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return c
}

func (env *testEnv) count(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := env.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("failed to unmarshal response body %q: %v", rec.Body.String(), err)
	}
}

func strPtr(s string) *string { return &s }
