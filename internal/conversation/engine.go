package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchpanel/voice-panel/internal/agents"
	"github.com/pitchpanel/voice-panel/internal/observability/metrics"
	"github.com/pitchpanel/voice-panel/internal/session"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

var engineTracer = otel.Tracer("pitchpanel.internal.conversation.engine")

const (
	// MarkerNextAgent is emitted by the model when the current agent is done.
	MarkerNextAgent = "NEXT_AGENT"
	// MarkerNeedMoreInfo is emitted when the agent wants another answer.
	MarkerNeedMoreInfo = "NEED_MORE_INFO"

	// maxQuestionsPerAgent is the hard cap on question cycles per agent. It is
	// authoritative regardless of model output, so a model that never emits
	// the marker cannot keep an agent alive forever.
	maxQuestionsPerAgent = 2

	// ApologyText is spoken when the language model fails mid-call.
	ApologyText = "We're experiencing technical difficulties. Please try again later."

	closingText = "Thank you for sharing your idea with us! We hope our feedback helps. Have a great day!"
)

// Directive tells the webhook layer what to do next with the call.
type Directive struct {
	// Text is the utterance to synthesize and play.
	Text string
	// Agent is the persona whose voice speaks the text.
	Agent agents.ID
	// KeepListening is true when the gateway should gather another utterance.
	KeepListening bool
	// EndCall is true when the gateway should hang up after playback.
	EndCall bool
}

// Engine is the call-session state machine. Each Turn consumes one caller
// utterance and decides whether the active agent continues, hands off to the
// next agent, or the call ends.
type Engine struct {
	store   session.Store
	llm     LLMClient
	logger  *logging.Logger
	metrics *metrics.CallMetrics

	llmTimeout time.Duration
}

// EngineConfig configures the Engine.
type EngineConfig struct {
	Store      session.Store
	LLM        LLMClient
	Logger     *logging.Logger
	Metrics    *metrics.CallMetrics
	LLMTimeout time.Duration
}

// NewEngine creates the conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 20 * time.Second
	}
	return &Engine{
		store:      cfg.Store,
		llm:        cfg.LLM,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		llmTimeout: cfg.LLMTimeout,
	}
}

// StartCall registers a session for a newly answered call and returns the
// first agent's scripted greeting. A duplicate session (retried webhook) is
// downgraded to a warning and the greeting is returned as if fresh.
func (e *Engine) StartCall(ctx context.Context, callID, callerNumber string) Directive {
	if _, err := e.store.Create(ctx, callID, callerNumber); err != nil {
		if errors.Is(err, session.ErrDuplicateSession) {
			e.logger.Warn("session already exists, treating call start as retry", "call_id", callID)
		} else {
			e.logger.Error("failed to create session", "call_id", callID, "error", err)
		}
	}
	e.metrics.ObserveCallStarted()

	first := agents.First()
	return Directive{
		Text:          first.Greeting,
		Agent:         first.ID,
		KeepListening: true,
	}
}

// Turn runs one question-response cycle for the call. The whole
// load-decide-persist sequence executes under the call's per-key lock, so
// retried webhooks for one call can never interleave.
func (e *Engine) Turn(ctx context.Context, callID, utterance string) Directive {
	ctx, span := engineTracer.Start(ctx, "conversation.turn",
		trace.WithAttributes(attribute.String("pitchpanel.call_id", callID)))
	defer span.End()

	// Lenient boundary behavior: an unknown call ID gets a fresh first-agent
	// session rather than a failure, which keeps retried webhooks alive.
	if _, err := e.store.Get(ctx, callID); err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			e.logger.Error("session load failed", "call_id", callID, "error", err)
			return e.apology(ctx, callID, agents.First().ID)
		}
		e.logger.Warn("no session for call, starting fresh", "call_id", callID)
		if _, err := e.store.Create(ctx, callID, ""); err != nil && !errors.Is(err, session.ErrDuplicateSession) {
			e.logger.Error("failed to create fallback session", "call_id", callID, "error", err)
			return e.apology(ctx, callID, agents.First().ID)
		}
	}

	var directive Directive
	speakingAgent := agents.First().ID

	err := e.store.Mutate(ctx, callID, func(s *session.Session) error {
		def, err := agents.Get(s.CurrentAgent)
		if err != nil {
			return err
		}
		speakingAgent = def.ID

		text, err := e.generate(ctx, def, s.QuestionCount, utterance)
		if err != nil {
			e.metrics.ObserveTurn(string(def.ID), "generation_failed")
			return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		s.QuestionCount++

		advance := strings.Contains(text, MarkerNextAgent) || s.QuestionCount >= maxQuestionsPerAgent
		clean := stripMarkers(text)

		s.Transcript = append(s.Transcript, session.Turn{
			Agent:         def.ID,
			UserInput:     utterance,
			AgentResponse: clean,
		})

		if !advance {
			e.metrics.ObserveTurn(string(def.ID), "continue")
			directive = Directive{Text: clean, Agent: def.ID, KeepListening: true}
			return nil
		}

		next, ok := agents.Next(def.ID)
		if !ok {
			// Last agent finished: read the full panel summary back, then hang up.
			e.metrics.ObserveTurn(string(def.ID), "summary")
			directive = Directive{Text: buildSummary(s.Transcript), Agent: def.ID, EndCall: true}
			return nil
		}

		s.CurrentAgent = next.ID
		s.QuestionCount = 0
		e.metrics.ObserveTurn(string(def.ID), "advance")
		e.metrics.ObserveTransition(string(def.ID), string(next.ID))

		// The outgoing agent's assessment stays in the transcript; only the
		// scripted handoff line is spoken.
		directive = Directive{
			Text:          transitionLine(next),
			Agent:         next.ID,
			KeepListening: true,
		}
		return nil
	})

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrGenerationFailed) {
			e.logger.Error("language model failure, ending call", "call_id", callID, "error", err)
		} else {
			e.logger.Error("turn failed", "call_id", callID, "error", err)
		}
		return e.apology(ctx, callID, speakingAgent)
	}

	if directive.EndCall {
		if err := e.store.Remove(ctx, callID); err != nil {
			e.logger.Warn("failed to remove finished session", "call_id", callID, "error", err)
		}
	}
	return directive
}

// generate invokes the model with the agent's template, the caller's
// utterance, and how many questions the agent has already asked.
func (e *Engine) generate(ctx context.Context, def agents.Definition, asked int, utterance string) (string, error) {
	prompt := fmt.Sprintf(
		"%s\n\nUser's idea: %s\n\nRemember: Keep it brief and conversational! "+
			"You have asked %d questions so far. If this is your second question, "+
			"make sure to provide a final assessment before moving to the next agent.",
		def.Prompt, utterance, asked,
	)

	genCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	start := time.Now()
	text, err := e.llm.Generate(genCtx, prompt)
	e.metrics.ObserveLLMLatency(time.Since(start).Seconds())
	return text, err
}

// apology ends the call with the fixed apology line. The session is removed
// so a dead call cannot leak state.
func (e *Engine) apology(ctx context.Context, callID string, agent agents.ID) Directive {
	if err := e.store.Remove(ctx, callID); err != nil {
		e.logger.Warn("failed to remove session after failure", "call_id", callID, "error", err)
	}
	return Directive{Text: ApologyText, Agent: agent, EndCall: true}
}

func stripMarkers(text string) string {
	text = strings.ReplaceAll(text, MarkerNextAgent, "")
	text = strings.ReplaceAll(text, MarkerNeedMoreInfo, "")
	return strings.TrimSpace(text)
}

func transitionLine(next agents.Definition) string {
	return fmt.Sprintf("Thank you for that insight. Now, let's hear from our %s. What's your take on this idea?", next.Name)
}

// buildSummary concatenates each recorded agent's display name and response
// in transcript order, followed by the closing line.
func buildSummary(transcript []session.Turn) string {
	var b strings.Builder
	b.WriteString("Based on our discussion, here's what we've learned about your idea:\n")
	for _, turn := range transcript {
		def, err := agents.Get(turn.Agent)
		if err != nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(def.Name)
		b.WriteString(": ")
		b.WriteString(turn.AgentResponse)
	}
	b.WriteString("\n\n")
	b.WriteString(closingText)
	return b.String()
}
