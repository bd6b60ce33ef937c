package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitchpanel/voice-panel/pkg/logging"
)

func TestOriginate(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotTo = r.FormValue("To")
		gotFrom = r.FormValue("From")
		gotURL = r.FormValue("Url")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA900","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewCaller("AC123", "token", "+15550000000", "https://panel.example.com/webhooks/twilio/incoming", logging.Default())
	c.SetBaseURL(srv.URL)

	sid, err := c.Originate(context.Background(), "+15551234567")
	if err != nil {
		t.Fatalf("Originate: %v", err)
	}
	if sid != "CA900" {
		t.Errorf("sid: got %q, want CA900", sid)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Calls.json" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotTo != "+15551234567" || gotFrom != "+15550000000" {
		t.Errorf("numbers: to=%q from=%q", gotTo, gotFrom)
	}
	if gotURL != "https://panel.example.com/webhooks/twilio/incoming" {
		t.Errorf("webhook url: got %q", gotURL)
	}
}

func TestOriginateGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewCaller("AC123", "token", "+15550000000", "https://panel.example.com/incoming", logging.Default())
	c.SetBaseURL(srv.URL)

	if _, err := c.Originate(context.Background(), "+1555"); !errors.Is(err, ErrCallInitiationFailed) {
		t.Fatalf("Originate: got %v, want ErrCallInitiationFailed", err)
	}
}

func TestOriginateMissingCredentials(t *testing.T) {
	c := NewCaller("", "", "+15550000000", "https://panel.example.com/incoming", logging.Default())
	if _, err := c.Originate(context.Background(), "+15551234567"); !errors.Is(err, ErrCallInitiationFailed) {
		t.Fatalf("Originate: got %v, want ErrCallInitiationFailed", err)
	}
}

func TestOriginateEmptyNumber(t *testing.T) {
	c := NewCaller("AC123", "token", "+15550000000", "https://panel.example.com/incoming", logging.Default())
	if _, err := c.Originate(context.Background(), "  "); !errors.Is(err, ErrCallInitiationFailed) {
		t.Fatalf("Originate: got %v, want ErrCallInitiationFailed", err)
	}
}
