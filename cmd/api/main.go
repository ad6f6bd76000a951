package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/firsttier/support-triage/internal/api/router"
	"github.com/firsttier/support-triage/internal/calendar"
	appconfig "github.com/firsttier/support-triage/internal/config"
	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/escalation"
	"github.com/firsttier/support-triage/internal/http/handlers"
	"github.com/firsttier/support-triage/internal/notify"
	"github.com/firsttier/support-triage/internal/observability/metrics"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/internal/triage"
	"github.com/firsttier/support-triage/pkg/logging"
)

func main() {
	// Load .env in development; ignore when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting support-triage API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	triageMetrics := metrics.NewTriageMetrics(registry)

	llm := buildLLMClient(cfg, logger)
	textOracle := oracle.NewTextOracle(llm, cfg.OracleTimeout, triageMetrics, logger)

	store := buildStore(cfg, logger)
	scheduler := buildScheduler(cfg, logger)

	var notifier notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		notifier = sender
	} else {
		logger.Warn("sendgrid not configured, staff notifications disabled")
	}

	coordinator := escalation.NewCoordinator(scheduler, notifier, escalation.Config{
		SlotDurationMinutes:   cfg.SlotDurationMinutes,
		SlotSearchWindowHours: cfg.SlotSearchWindowHours,
		SupportTeamEmail:      cfg.SupportTeamEmail,
	}, triageMetrics, logger)

	engine := dialogue.NewEngine(textOracle, coordinator, store, triageMetrics, logger)
	triageService := triage.NewService(textOracle, engine, coordinator, cfg.TurnBudget, triageMetrics, logger)

	routerCfg := &router.Config{
		Logger:         logger,
		TriageHandler:  handlers.NewTriageHandler(triageService, engine, logger),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient assembles the OpenAI-first, Gemini-fallback chain. At least
// one provider key is required.
func buildLLMClient(cfg *appconfig.Config, logger *logging.Logger) oracle.LLMClient {
	var primary, fallback oracle.LLMClient

	if cfg.OpenAIAPIKey != "" {
		client, err := oracle.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Error("failed to build openai client", "error", err)
			os.Exit(1)
		}
		primary = client
	}
	if cfg.GeminiAPIKey != "" {
		client, err := oracle.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to build gemini client", "error", err)
			os.Exit(1)
		}
		if primary == nil {
			primary = client
		} else {
			fallback = client
		}
	}

	switch {
	case primary == nil:
		logger.Error("no LLM provider configured, set OPENAI_API_KEY or GEMINI_API_KEY")
		os.Exit(1)
		return nil
	case fallback == nil:
		return primary
	default:
		return oracle.NewFallbackClient(primary, fallback, logger)
	}
}

func buildStore(cfg *appconfig.Config, logger *logging.Logger) dialogue.Store {
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory conversation store, state is lost on restart")
		return dialogue.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	return dialogue.NewRedisStore(client, cfg.SessionTTL)
}

func buildScheduler(cfg *appconfig.Config, logger *logging.Logger) calendar.Scheduler {
	if cfg.GoogleCredentialsJSON == "" {
		logger.Warn("google calendar not configured, using stub scheduler")
		return calendar.NewStubScheduler(logger)
	}

	scheduler, err := calendar.NewGoogleScheduler(context.Background(), calendar.GoogleConfig{
		CalendarID:      cfg.GoogleCalendarID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		Timeout:         cfg.SchedulerTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to build google calendar scheduler", "error", err)
		os.Exit(1)
	}
	return scheduler
}
