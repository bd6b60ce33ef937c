package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pitchpanel/voice-panel/internal/agents"
	"github.com/pitchpanel/voice-panel/internal/observability/metrics"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

// ErrSynthesisFailed wraps any speech collaborator failure (network, quota,
// invalid voice). Callers substitute a fixed fallback utterance and end the
// call instead of surfacing it to the gateway.
var ErrSynthesisFailed = errors.New("speech: synthesis failed")

// FallbackText is spoken via the gateway's built-in voice when synthesis
// itself is unavailable.
const FallbackText = "We're experiencing technical difficulties with our voice system. Please try again later."

// TTSClient is the speech-synthesis collaborator.
type TTSClient interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Synthesizer converts agent utterances into playable audio clips. Each clip
// is stored under a random name and deleted after the retention window
// whether or not it was ever fetched.
type Synthesizer struct {
	tts       TTSClient
	store     AudioStore
	retention time.Duration
	logger    *logging.Logger
	metrics   *metrics.CallMetrics
	reaper    *reaper
}

// SynthesizerConfig configures the Synthesizer.
type SynthesizerConfig struct {
	TTS       TTSClient
	Store     AudioStore
	Retention time.Duration
	Logger    *logging.Logger
	Metrics   *metrics.CallMetrics
}

// NewSynthesizer creates the voice synthesis adapter.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 5 * time.Minute
	}
	return &Synthesizer{
		tts:       cfg.TTS,
		store:     cfg.Store,
		retention: cfg.Retention,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		reaper:    newReaper(),
	}
}

// Speak synthesizes text in the agent's voice, stores the clip, and returns
// its name for the audio-serving endpoint. Any collaborator failure maps to
// ErrSynthesisFailed.
func (s *Synthesizer) Speak(ctx context.Context, text string, agentID agents.ID) (string, error) {
	def, err := agents.Get(agentID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	start := time.Now()
	audio, err := s.tts.Synthesize(ctx, text, def.VoiceID)
	s.metrics.ObserveSynthesisLatency(string(agentID), time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	name := uuid.NewString() + ".mp3"
	if err := s.store.Put(ctx, name, audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	s.scheduleCleanup(name)
	return name, nil
}

// Fetch returns a previously synthesized clip for playback.
func (s *Synthesizer) Fetch(ctx context.Context, name string) ([]byte, error) {
	return s.store.Get(ctx, name)
}

// Close cancels all pending cleanup tasks.
func (s *Synthesizer) Close() {
	s.reaper.stop()
}

// scheduleCleanup deletes the clip after the retention window. Deletion is
// best effort; a failure is logged, never escalated.
func (s *Synthesizer) scheduleCleanup(name string) {
	s.reaper.schedule(name, s.retention, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Delete(ctx, name); err != nil {
			s.logger.Warn("failed to clean up audio clip", "clip", name, "error", err)
			return
		}
		s.logger.Info("cleaned up audio clip", "clip", name)
	})
}
