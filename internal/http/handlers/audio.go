package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pitchpanel/voice-panel/internal/speech"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

// AudioHandler serves synthesized clips back to the telephony gateway. Clips
// are transient; a 404 after the retention window is expected.
type AudioHandler struct {
	synth  speechSynthesizer
	logger *logging.Logger
}

// NewAudioHandler creates the audio handler.
func NewAudioHandler(synth speechSynthesizer, logger *logging.Logger) *AudioHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AudioHandler{synth: synth, logger: logger}
}

// ServeClip handles GET /audio/{filename}.
func (h *AudioHandler) ServeClip(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !validClipName(name) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	data, err := h.synth.Fetch(r.Context(), name)
	if err != nil {
		if errors.Is(err, speech.ErrAudioNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to read audio clip", "filename", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// validClipName accepts only the names the synthesizer generates: a UUID with
// an .mp3 suffix. Anything else is treated as missing, never as a path.
func validClipName(name string) bool {
	base, ok := strings.CutSuffix(name, ".mp3")
	if !ok {
		return false
	}
	_, err := uuid.Parse(base)
	return err == nil
}
