package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pitchpanel/voice-panel/internal/agents"
	"github.com/pitchpanel/voice-panel/internal/conversation"
	"github.com/pitchpanel/voice-panel/internal/speech"
	"github.com/pitchpanel/voice-panel/internal/telephony"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

var voiceTracer = otel.Tracer("pitchpanel.internal.http.voice")

// conversationEngine is the slice of the engine the webhook layer needs.
type conversationEngine interface {
	StartCall(ctx context.Context, callID, callerNumber string) conversation.Directive
	Turn(ctx context.Context, callID, utterance string) conversation.Directive
}

// speechSynthesizer turns directive text into a playable clip.
type speechSynthesizer interface {
	Speak(ctx context.Context, text string, agentID agents.ID) (string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// CallWebhookHandler translates Twilio voice webhooks into engine calls and
// engine directives back into TwiML.
type CallWebhookHandler struct {
	engine        conversationEngine
	synth         speechSynthesizer
	webhookSecret string
	logger        *logging.Logger
}

// CallWebhookConfig configures the CallWebhookHandler.
type CallWebhookConfig struct {
	Engine        conversationEngine
	Synthesizer   speechSynthesizer
	WebhookSecret string
	Logger        *logging.Logger
}

// NewCallWebhookHandler creates the webhook handler.
func NewCallWebhookHandler(cfg CallWebhookConfig) *CallWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &CallWebhookHandler{
		engine:        cfg.Engine,
		synth:         cfg.Synthesizer,
		webhookSecret: cfg.WebhookSecret,
		logger:        cfg.Logger,
	}
}

// HandleIncomingCall handles POST /webhooks/twilio/incoming: a new call was
// answered. It opens a session and plays the first agent's greeting.
func (h *CallWebhookHandler) HandleIncomingCall(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "voice.incoming")
	defer span.End()

	if !h.authorized(r) {
		h.logger.Warn("invalid twilio signature on incoming call")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse incoming call form", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	callSid := strings.TrimSpace(r.FormValue("CallSid"))
	from := strings.TrimSpace(r.FormValue("From"))
	if callSid == "" {
		h.logger.Error("incoming call missing CallSid")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("pitchpanel.call_sid", callSid),
		attribute.String("pitchpanel.from", from),
	)
	h.logger.Info("incoming call", "call_sid", callSid, "from", from)

	directive := h.engine.StartCall(ctx, callSid, from)
	h.respond(ctx, w, callSid, directive)
}

// HandleVoice handles POST /webhooks/twilio/voice: the gateway transcribed
// the caller's next utterance. It runs one engine turn and answers with the
// next thing to play.
func (h *CallWebhookHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "voice.utterance")
	defer span.End()

	if !h.authorized(r) {
		h.logger.Warn("invalid twilio signature on voice webhook")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse voice form", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	callSid := strings.TrimSpace(r.FormValue("CallSid"))
	// Empty speech passes through unmodified; how the model handles silence
	// is its own concern.
	utterance := r.FormValue("SpeechResult")
	if callSid == "" {
		h.logger.Error("voice webhook missing CallSid")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("pitchpanel.call_sid", callSid))

	directive := h.engine.Turn(ctx, callSid, utterance)
	h.respond(ctx, w, callSid, directive)
}

// respond synthesizes the directive text and writes the TwiML answer. A
// synthesis failure still produces a spoken apology and a hangup; the caller
// is never left on a dead line.
func (h *CallWebhookHandler) respond(ctx context.Context, w http.ResponseWriter, callSid string, d conversation.Directive) {
	resp := telephony.NewResponse()

	clip, err := h.synth.Speak(ctx, d.Text, d.Agent)
	if err != nil {
		h.logger.Error("synthesis failed, ending call",
			"call_sid", callSid, "agent", d.Agent, "error", err)
		resp.Say(speech.FallbackText).Hangup()
		writeTwiML(w, resp)
		return
	}

	resp.Play("/audio/" + clip)
	switch {
	case d.EndCall:
		resp.Hangup()
	case d.KeepListening:
		resp.GatherSpeech(telephony.VoiceWebhookPath)
	}
	writeTwiML(w, resp)
}

// authorized checks the Twilio signature when a webhook secret is configured.
func (h *CallWebhookHandler) authorized(r *http.Request) bool {
	if h.webhookSecret == "" {
		return true
	}
	return telephony.ValidateTwilioSignature(r, h.webhookSecret, telephony.RequestURL(r))
}

func writeTwiML(w http.ResponseWriter, resp *telephony.Response) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(resp.String()))
}
