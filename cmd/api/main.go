package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pitchpanel/voice-panel/cmd/mainconfig"
	"github.com/pitchpanel/voice-panel/internal/api/router"
	appconfig "github.com/pitchpanel/voice-panel/internal/config"
	"github.com/pitchpanel/voice-panel/internal/conversation"
	"github.com/pitchpanel/voice-panel/internal/http/handlers"
	"github.com/pitchpanel/voice-panel/internal/observability/metrics"
	"github.com/pitchpanel/voice-panel/internal/session"
	"github.com/pitchpanel/voice-panel/internal/speech"
	"github.com/pitchpanel/voice-panel/internal/telephony"
	"github.com/pitchpanel/voice-panel/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voice-panel API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	callMetrics := metrics.NewCallMetrics(registry)

	// Session store: Redis when configured, otherwise in-process memory.
	var store session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = session.NewRedisStore(redis.NewClient(opts))
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	// Language model client
	gemini, err := conversation.NewGeminiClient(context.Background(), cfg.GoogleAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	engine := conversation.NewEngine(conversation.EngineConfig{
		Store:      store,
		LLM:        gemini,
		Logger:     logger,
		Metrics:    callMetrics,
		LLMTimeout: cfg.LLMTimeout,
	})

	// Speech synthesis
	tts, err := speech.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsModelID,
		speech.WithTimeout(cfg.TTSTimeout))
	if err != nil {
		logger.Error("failed to create elevenlabs client", "error", err)
		os.Exit(1)
	}

	// Audio clips: S3 when a bucket is configured, otherwise local disk.
	var audioStore speech.AudioStore
	if cfg.AudioS3Bucket != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		audioStore, err = speech.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AudioS3Bucket)
		if err != nil {
			logger.Error("failed to create S3 audio store", "error", err)
			os.Exit(1)
		}
		logger.Info("using S3 audio store", "bucket", cfg.AudioS3Bucket)
	} else {
		audioStore, err = speech.NewLocalStore(cfg.AudioDir)
		if err != nil {
			logger.Error("failed to create local audio store", "error", err)
			os.Exit(1)
		}
		logger.Info("using local audio store", "dir", cfg.AudioDir)
	}

	synth := speech.NewSynthesizer(speech.SynthesizerConfig{
		TTS:       tts,
		Store:     audioStore,
		Retention: cfg.AudioRetention,
		Logger:    logger,
		Metrics:   callMetrics,
	})
	defer synth.Close()

	// Outbound calls need a public webhook URL for Twilio to call back into.
	var outboundHandler *handlers.OutboundCallHandler
	if cfg.TwilioAccountSID != "" && cfg.PublicBaseURL != "" {
		caller := telephony.NewCaller(
			cfg.TwilioAccountSID,
			cfg.TwilioAuthToken,
			cfg.TwilioFromNumber,
			cfg.PublicBaseURL+"/webhooks/twilio/incoming",
			logger,
		)
		outboundHandler = handlers.NewOutboundCallHandler(caller, logger)
	} else {
		logger.Warn("outbound calling disabled, missing TWILIO_ACCOUNT_SID or PUBLIC_BASE_URL")
	}

	webhookHandler := handlers.NewCallWebhookHandler(handlers.CallWebhookConfig{
		Engine:        engine,
		Synthesizer:   synth,
		WebhookSecret: cfg.TwilioWebhookSecret,
		Logger:        logger,
	})

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		CallWebhooks:   webhookHandler,
		Audio:          handlers.NewAudioHandler(synth, logger),
		OutboundCalls:  outboundHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
