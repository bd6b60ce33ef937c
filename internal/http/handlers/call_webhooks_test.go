package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pitchpanel/voice-panel/internal/agents"
	"github.com/pitchpanel/voice-panel/internal/conversation"
	"github.com/pitchpanel/voice-panel/internal/speech"
)

type fakeEngine struct {
	startCalls []string
	turnCalls  []string
	utterances []string
	directive  conversation.Directive
}

func (f *fakeEngine) StartCall(_ context.Context, callID, _ string) conversation.Directive {
	f.startCalls = append(f.startCalls, callID)
	return f.directive
}

func (f *fakeEngine) Turn(_ context.Context, callID, utterance string) conversation.Directive {
	f.turnCalls = append(f.turnCalls, callID)
	f.utterances = append(f.utterances, utterance)
	return f.directive
}

type fakeSynth struct {
	clip     string
	speakErr error
	spoken   []string
	agents   []agents.ID
	clips    map[string][]byte
}

func (f *fakeSynth) Speak(_ context.Context, text string, agentID agents.ID) (string, error) {
	f.spoken = append(f.spoken, text)
	f.agents = append(f.agents, agentID)
	if f.speakErr != nil {
		return "", f.speakErr
	}
	return f.clip, nil
}

func (f *fakeSynth) Fetch(_ context.Context, name string) ([]byte, error) {
	data, ok := f.clips[name]
	if !ok {
		return nil, speech.ErrAudioNotFound
	}
	return data, nil
}

func postForm(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/incoming", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleIncomingCall(t *testing.T) {
	engine := &fakeEngine{directive: conversation.Directive{
		Text:          "Hello! I'm your market analyst.",
		Agent:         agents.Market,
		KeepListening: true,
	}}
	synth := &fakeSynth{clip: "abc.mp3"}
	h := NewCallWebhookHandler(CallWebhookConfig{Engine: engine, Synthesizer: synth})

	form := url.Values{}
	form.Set("CallSid", "CA100")
	form.Set("From", "+15551234567")
	rec := postForm(t, h.HandleIncomingCall, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type: got %q", ct)
	}
	if len(engine.startCalls) != 1 || engine.startCalls[0] != "CA100" {
		t.Errorf("StartCall calls: %v", engine.startCalls)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Play>/audio/abc.mp3</Play>") {
		t.Errorf("missing Play verb: %q", body)
	}
	if !strings.Contains(body, `<Gather input="speech"`) {
		t.Errorf("missing Gather verb: %q", body)
	}
	if len(synth.agents) != 1 || synth.agents[0] != agents.Market {
		t.Errorf("synthesized with agents %v", synth.agents)
	}
}

func TestHandleIncomingCallMissingCallSid(t *testing.T) {
	engine := &fakeEngine{}
	h := NewCallWebhookHandler(CallWebhookConfig{Engine: engine, Synthesizer: &fakeSynth{clip: "a.mp3"}})

	rec := postForm(t, h.HandleIncomingCall, url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if len(engine.startCalls) != 0 {
		t.Error("engine invoked without a CallSid")
	}
}

func TestHandleVoiceContinue(t *testing.T) {
	engine := &fakeEngine{directive: conversation.Directive{
		Text:          "Interesting. Who is the customer?",
		Agent:         agents.Market,
		KeepListening: true,
	}}
	h := NewCallWebhookHandler(CallWebhookConfig{Engine: engine, Synthesizer: &fakeSynth{clip: "q1.mp3"}})

	form := url.Values{}
	form.Set("CallSid", "CA100")
	form.Set("SpeechResult", "An app for dog walkers")
	rec := postForm(t, h.HandleVoice, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if len(engine.turnCalls) != 1 || engine.utterances[0] != "An app for dog walkers" {
		t.Errorf("Turn calls: %v %v", engine.turnCalls, engine.utterances)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Play>/audio/q1.mp3</Play>") || !strings.Contains(body, "<Gather") {
		t.Errorf("unexpected TwiML: %q", body)
	}
}

func TestHandleVoiceEndCall(t *testing.T) {
	engine := &fakeEngine{directive: conversation.Directive{
		Text:    "Here is your panel summary. Goodbye!",
		Agent:   agents.Business,
		EndCall: true,
	}}
	h := NewCallWebhookHandler(CallWebhookConfig{Engine: engine, Synthesizer: &fakeSynth{clip: "sum.mp3"}})

	form := url.Values{}
	form.Set("CallSid", "CA100")
	form.Set("SpeechResult", "Thanks everyone")
	rec := postForm(t, h.HandleVoice, form)

	body := rec.Body.String()
	if !strings.Contains(body, "<Play>/audio/sum.mp3</Play>") {
		t.Errorf("missing Play verb: %q", body)
	}
	if !strings.Contains(body, "<Hangup/>") {
		t.Errorf("missing Hangup: %q", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Errorf("summary response must not gather: %q", body)
	}
}

func TestHandleVoiceSynthesisFailure(t *testing.T) {
	engine := &fakeEngine{directive: conversation.Directive{
		Text:          "a question",
		Agent:         agents.Product,
		KeepListening: true,
	}}
	synth := &fakeSynth{speakErr: fmt.Errorf("%w: upstream 500", speech.ErrSynthesisFailed)}
	h := NewCallWebhookHandler(CallWebhookConfig{Engine: engine, Synthesizer: synth})

	form := url.Values{}
	form.Set("CallSid", "CA100")
	form.Set("SpeechResult", "hello")
	rec := postForm(t, h.HandleVoice, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, synthesis failures must still answer the gateway", rec.Code)
	}
	body := rec.Body.String()
	// Apostrophes are XML-escaped, so match on an escape-free span of the text.
	if !strings.Contains(body, "<Say>") || !strings.Contains(body, "technical difficulties with our voice system") {
		t.Errorf("missing spoken fallback: %q", body)
	}
	if !strings.Contains(body, "<Hangup/>") {
		t.Errorf("missing Hangup: %q", body)
	}
}

func TestHandleVoiceRejectsBadSignature(t *testing.T) {
	engine := &fakeEngine{}
	h := NewCallWebhookHandler(CallWebhookConfig{
		Engine:        engine,
		Synthesizer:   &fakeSynth{clip: "a.mp3"},
		WebhookSecret: "token",
	})

	form := url.Values{}
	form.Set("CallSid", "CA100")
	rec := postForm(t, h.HandleVoice, form)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if len(engine.turnCalls) != 0 {
		t.Error("engine invoked despite invalid signature")
	}
}
