package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

func newTwilioServer(t *testing.T, status int, body string, check func(r *http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, calls
}

func newTestTwilioClient(baseURL string) *TwilioClient {
	return NewTwilioClient(environments.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		BaseURL:    baseURL,
	}, 2*time.Second)
}

func TestSMSSender_SendPostsForm(t *testing.T) {
	server, calls := newTwilioServer(t, http.StatusCreated, `{"sid":"SM1","status":"queued"}`, func(r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("expected basic auth, got %q/%q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("To") != "+15551230000" || r.PostForm.Get("From") != "+15005550006" {
			t.Errorf("unexpected addresses: %v", r.PostForm)
		}
		if media := r.PostForm["MediaUrl"]; len(media) != 2 {
			t.Errorf("expected 2 MediaUrl values, got %v", media)
		}
	})

	sender := NewSMSSender(newTestTwilioClient(server.URL), "+15005550006")

	res, err := sender.Send(context.Background(), Payload{
		To:        "+15551230000",
		Body:      "hello",
		MediaURLs: []string{"https://x/1.png", "https://x/2.png"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.ID != "SM1" || res.Status != domain.StatusPending {
		t.Errorf("unexpected result: %+v", res)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestSMSSender_InvalidRecipientMakesNoCall(t *testing.T) {
	server, calls := newTwilioServer(t, http.StatusCreated, `{"sid":"SM1","status":"sent"}`, nil)
	sender := NewSMSSender(newTestTwilioClient(server.URL), "+15005550006")

	if sender.Validate(Payload{To: "12345"}) {
		t.Errorf("expected Validate to reject 12345")
	}

	_, err := sender.Send(context.Background(), Payload{To: "12345", Body: "x"})
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no provider call, got %d", calls.Load())
	}
}

func TestWhatsAppSender_PrefixesAddresses(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusCreated, `{"sid":"SM2","status":"sent"}`, func(r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("To") != "whatsapp:+15551230000" {
			t.Errorf("expected prefixed To, got %q", r.PostForm.Get("To"))
		}
		if r.PostForm.Get("From") != "whatsapp:+14155238886" {
			t.Errorf("expected prefixed From, got %q", r.PostForm.Get("From"))
		}
	})

	sender := NewWhatsAppSender(newTestTwilioClient(server.URL), "+14155238886")

	res, err := sender.Send(context.Background(), Payload{To: "+15551230000", Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Status != domain.StatusSent {
		t.Errorf("expected SENT, got %s", res.Status)
	}
}

func TestTwilio_ErrorMapping(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusBadRequest, `{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`, nil)
	sender := NewSMSSender(newTestTwilioClient(server.URL), "+15005550006")

	_, err := sender.Send(context.Background(), Payload{To: "+15551230000", Body: "x"})
	if !errors.Is(err, domain.ErrProviderRejected) {
		t.Errorf("expected ErrProviderRejected for 400, got %v", err)
	}

	server5xx, calls := newTwilioServer(t, http.StatusServiceUnavailable, `{"message":"down"}`, nil)
	sender = NewSMSSender(newTestTwilioClient(server5xx.URL), "+15005550006")

	_, err = sender.Send(context.Background(), Payload{To: "+15551230000", Body: "x"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable for 503, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls.Load())
	}
}

func TestTwilio_FailedStatusIsRejected(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusCreated, `{"sid":"SM3","status":"failed","error_message":"blocked"}`, nil)
	sender := NewSMSSender(newTestTwilioClient(server.URL), "+15005550006")

	_, err := sender.Send(context.Background(), Payload{To: "+15551230000", Body: "x"})
	if !errors.Is(err, domain.ErrProviderRejected) {
		t.Errorf("expected ErrProviderRejected, got %v", err)
	}
}

func TestTwilio_TransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	sender := NewSMSSender(newTestTwilioClient(url), "+15005550006")

	_, err := sender.Send(context.Background(), Payload{To: "+15551230000", Body: "x"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNormalizeTwilioStatus(t *testing.T) {
	expect := map[string]domain.MessageStatus{
		"queued":      domain.StatusPending,
		"sending":     domain.StatusPending,
		"accepted":    domain.StatusPending,
		"scheduled":   domain.StatusPending,
		"sent":        domain.StatusSent,
		"delivered":   domain.StatusDelivered,
		"read":        domain.StatusRead,
		"failed":      domain.StatusFailed,
		"undelivered": domain.StatusFailed,
		"receiving":   domain.StatusSent,
		"":            domain.StatusSent,
	}

	for in, want := range expect {
		if got := NormalizeTwilioStatus(in); got != want {
			t.Errorf("NormalizeTwilioStatus(%q) = %s, want %s", in, got, want)
		}
	}
}
