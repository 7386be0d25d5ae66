package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/Navadeep1830/honeypot-api/internal/api"
	"github.com/Navadeep1830/honeypot-api/internal/api/handlers"
	apimiddleware "github.com/Navadeep1830/honeypot-api/internal/api/middleware"
	"github.com/Navadeep1830/honeypot-api/internal/config"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services/ai"
	grpcserver "github.com/Navadeep1830/honeypot-api/internal/grpc/honeypot"
	"github.com/Navadeep1830/honeypot-api/internal/infrastructure/cache"
	"github.com/Navadeep1830/honeypot-api/internal/streaming"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Bool("llm_configured", cfg.LLMAvailable()).
		Msg("starting honeypot API")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis: assessment cache and rate limiting
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache and rate limiting")
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// Optional NATS: cross-instance event stream
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local events only")
			natsPublisher = nil
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)
	go wsHub.Relay(ctx, eventBus)

	// External text generation, shared by the scorer and the persona
	assessor, generator := initLLM(cfg, redisCache, log)

	detector := ai.NewScamDetector(ai.DetectorConfig{
		ExternalTimeout: cfg.Detection.ExternalTimeout,
		HistoryWindow:   cfg.Detection.HistoryWindow,
	}, assessor, log)
	extractor := ai.NewEntityExtractor(nil)

	var rng *rand.Rand
	if cfg.Persona.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Persona.Seed))
	}
	policy := ai.NewResponsePolicy(generator, ai.NewFallbackResponder(rng), log)

	store := services.NewMemoryConversationStore()
	publisher := streaming.NewEventBusPublisher(eventBus)
	honeypot := services.NewHoneypotService(
		services.HoneypotConfig{ReplyHistory: cfg.Conversation.ReplyHistory},
		store, detector, extractor, policy, publisher, log,
	)

	sweeper := services.NewConversationSweeper(store, cfg.Conversation.MaxAge, cfg.Conversation.SweepInterval, log)
	sweeper.Start(ctx)

	// HTTP
	h := handlers.NewHandlers(handlers.Dependencies{
		Honeypot:      honeypot,
		Cache:         redisCache,
		NATS:          natsPublisher,
		EventBus:      eventBus,
		WSHub:         wsHub,
		LLMConfigured: cfg.LLMAvailable(),
		Version:       cfg.App.Version,
		Logger:        log,
	})

	var rateStore apimiddleware.RateLimitStore
	if redisCache != nil {
		rateStore = redisCache
	} else if cfg.RateLimit.Enabled {
		log.Warn().Msg("rate limiting enabled but Redis unavailable, requests will not be limited")
	}

	router := api.NewRouter(*cfg, h, rateStore, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("endpoint", "/honeypot").
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// gRPC health
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	healthChecker := grpcserver.NewHealthChecker(healthProbes(redisCache, natsPublisher), grpcserver.DefaultCheckInterval, log)
	healthChecker.Register(grpcServer)
	go healthChecker.Run(ctx)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	sweeper.Stop()

	log.Info().Msg("shutdown complete")
}

// initLLM builds the external assessor and persona generator. Both are nil
// when no LLM is configured, which leaves the scorer neutral and the persona
// on templates.
func initLLM(cfg *config.Config, redisCache *cache.RedisCache, log *logger.Logger) (ai.Assessor, ai.ReplyGenerator) {
	if !cfg.LLMAvailable() {
		log.Warn().Msg("LLM not configured, using neutral external signal and template replies")
		return nil, nil
	}

	client, err := ai.NewLLMClient(ai.LLMConfig{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		MaxRetries:        cfg.LLM.MaxRetries,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create LLM client, using neutral external signal and template replies")
		return nil, nil
	}

	var assessor ai.Assessor = client
	if redisCache != nil {
		assessor = ai.NewCachedAssessor(client, redisCache, cfg.Redis.AssessmentTTL, log)
	}

	generator := ai.NewLLMReplyGenerator(client, ai.Persona{
		Name:            cfg.Persona.Name,
		Age:             cfg.Persona.Age,
		Occupation:      cfg.Persona.Occupation,
		Location:        cfg.Persona.Location,
		Characteristics: cfg.Persona.Characteristics,
	})

	log.Info().Str("provider", cfg.LLM.Provider).Str("model", client.Model()).Msg("LLM client initialized")
	return assessor, generator
}

func healthProbes(redisCache *cache.RedisCache, nats *streaming.NATSPublisher) map[string]grpcserver.Probe {
	probes := make(map[string]grpcserver.Probe)
	if redisCache != nil {
		probes["redis"] = redisCache.Ping
	}
	if nats != nil {
		probes["nats"] = func(context.Context) error {
			if !nats.IsConnected() {
				return errors.New("NATS disconnected")
			}
			return nil
		}
	}
	return probes
}
