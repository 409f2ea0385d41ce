package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/healthvoice/internal/adapter/ai/anthropic"
	"github.com/seu-repo/healthvoice/internal/adapter/ai/gemini"
	"github.com/seu-repo/healthvoice/internal/adapter/ai/openai"
	"github.com/seu-repo/healthvoice/internal/adapter/ai/sarvam"
	"github.com/seu-repo/healthvoice/internal/adapter/cache"
	"github.com/seu-repo/healthvoice/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/healthvoice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/healthvoice/internal/adapter/http/fiber/web"
	"github.com/seu-repo/healthvoice/internal/adapter/queue"
	"github.com/seu-repo/healthvoice/internal/adapter/vault"
	"github.com/seu-repo/healthvoice/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/healthvoice/internal/observability/telemetry"
	"github.com/seu-repo/healthvoice/internal/ports"
	"github.com/seu-repo/healthvoice/internal/service/assistant"
	"github.com/seu-repo/healthvoice/internal/service/health"
	"github.com/seu-repo/healthvoice/internal/service/pipeline"
	"github.com/seu-repo/healthvoice/pkg/config"
)

const serviceName = "healthvoice"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting Healthcare Support Voice Assistant",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Resolve credentials; both API keys are required
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		if err := secrets.FillCredentials(cfg); err != nil {
			logger.Warn("Could not load credentials from Vault", zap.Error(err))
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry, cfg.App.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background(), tracerProvider); err != nil {
			logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// 5. External AI services, each behind its own circuit breaker
	sarvamHTTP := circuitbreaker.NewHTTPClient("sarvam", cfg.Sarvam.Timeout, cfg.CircuitBreaker, logger)
	speech := sarvam.NewClient(cfg.Sarvam, sarvamHTTP, logger)

	generationHTTP := circuitbreaker.NewHTTPClient(cfg.Generation.Provider, cfg.Generation.Timeout, cfg.CircuitBreaker, logger)
	generator, err := newGenerator(cfg.Generation, generationHTTP, logger)
	if err != nil {
		logger.Fatal("Failed to initialize generation client", zap.Error(err))
	}

	// 6. Interaction events (optional)
	messageQueue, err := queue.New(cfg.Events, logger)
	if err != nil {
		logger.Fatal("Failed to connect to event bus", zap.Error(err))
	}
	if messageQueue != nil {
		defer messageQueue.Close()
	}
	publisher := queue.NewEventPublisher(messageQueue, cfg.Events.Subject, logger)

	// 7. Services
	responder := assistant.NewAssistant(generator, cfg.Generation.Timeout, logger)
	controller := pipeline.NewController(speech, responder, speech, publisher, pipeline.Options{
		MaxSpeechChars: cfg.Sarvam.Voice.MaxChars,
	}, logger)

	healthService := health.NewService(cfg.App.Version, logger)
	for name, client := range map[string]*http.Client{"sarvam": sarvamHTTP, "generation": generationHTTP} {
		if breaker, ok := client.Transport.(*circuitbreaker.Transport); ok {
			healthService.RegisterPinger(name, breaker, true)
		}
	}
	if messageQueue != nil {
		healthService.RegisterPinger("events", health.PingFunc(func(ctx context.Context) error {
			return messageQueue.Ping()
		}), true)
	}

	// 8. Rate-limit storage; Redis when configured, memory otherwise
	var limiterStorage fiber.Storage
	if cfg.RateLimiting.Enabled && cfg.Redis.URL != "" {
		redisStorage, err := cache.NewRedisStorage(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStorage.Close()
		limiterStorage = redisStorage
		healthService.RegisterPinger("redis", redisStorage, false)
	}

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	if cfg.RateLimiting.Enabled {
		app.Use(middleware.RateLimit(cfg.RateLimiting, limiterStorage, logger))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	interactions := handlers.NewInteractionHandler(controller, streamTimeout(cfg), logger)
	v1 := app.Group("/api/v1")
	v1.Get("/languages", handlers.Languages)
	v1.Post("/interactions/voice", interactions.Voice)
	v1.Post("/interactions/text", interactions.Text)

	// Single-page front end; registered last so it never shadows the API
	if err := web.Register(app); err != nil {
		logger.Fatal("Failed to mount web page", zap.Error(err))
	}

	// 10. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

func newGenerator(cfg config.GenerationConfig, httpClient *http.Client, logger *zap.Logger) (ports.Generator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(cfg, httpClient, logger), nil
	case "anthropic":
		return anthropic.NewClient(cfg, httpClient, logger), nil
	default:
		client, err := gemini.NewClient(context.Background(), cfg, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// streamTimeout bounds a streamed interaction: two speech calls plus one
// generation call, with some slack.
func streamTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.Sarvam.Timeout + cfg.Generation.Timeout + 10*time.Second
}
