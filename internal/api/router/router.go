package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pitchpanel/voice-panel/internal/http/handlers"
	httpmiddleware "github.com/pitchpanel/voice-panel/internal/http/middleware"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	CallWebhooks   *handlers.CallWebhookHandler
	Audio          *handlers.AudioHandler
	OutboundCalls  *handlers.OutboundCallHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Post("/incoming", cfg.CallWebhooks.HandleIncomingCall)
		r.Post("/voice", cfg.CallWebhooks.HandleVoice)
	})

	r.Get("/audio/{filename}", cfg.Audio.ServeClip)

	if cfg.OutboundCalls != nil {
		r.Post("/calls", cfg.OutboundCalls.InitiateCall)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
