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

	"github.com/misty-step/bibliomnomnom/internal/audio"
	"github.com/misty-step/bibliomnomnom/internal/config"
	"github.com/misty-step/bibliomnomnom/internal/database"
	"github.com/misty-step/bibliomnomnom/internal/handlers"
	"github.com/misty-step/bibliomnomnom/internal/middleware"
	"github.com/misty-step/bibliomnomnom/internal/repository"
	"github.com/misty-step/bibliomnomnom/internal/router"
	"github.com/misty-step/bibliomnomnom/internal/services"
	"github.com/misty-step/bibliomnomnom/internal/session"
	"github.com/misty-step/bibliomnomnom/internal/stt"
	"github.com/misty-step/bibliomnomnom/internal/synthesis"
	"github.com/misty-step/bibliomnomnom/internal/websocket"
	"github.com/misty-step/bibliomnomnom/internal/worker"
)

const (
	audioFetchTimeout = 30 * time.Second
	sttTimeout        = 2 * time.Minute
)

func main() {
	log.Println("Starting bibliomnomnom backend...")

	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	pool, err := database.NewPostgresPool(cfg.DatabaseURL, int32(cfg.DBMaxConns), int32(cfg.DBMinConns))
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	redisClients, err := database.NewRedisClients(connectCtx, cfg.RedisURL)
	cancelConnect()
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	bookRepo := repository.NewBookRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)

	// ──── Pipeline components ────
	machine := session.NewMachine(sessionRepo, noteRepo)
	fetcher := audio.NewFetcher(cfg.AudioStorageOrigin, cfg.AudioMaxBytes, audioFetchTimeout)

	var adapters []stt.Adapter
	if cfg.ElevenLabsAPIKey != "" {
		adapters = append(adapters, stt.NewElevenLabsAdapter(cfg.ElevenLabsAPIKey, sttTimeout))
	}
	if cfg.DeepgramAPIKey != "" {
		adapters = append(adapters, stt.NewDeepgramAdapter(cfg.DeepgramAPIKey, sttTimeout))
	}
	gateway := stt.NewGateway(adapters...)
	log.Printf("✓ Speech-to-text gateway ready (providers: %v)", gateway.Providers())

	engine, err := synthesis.NewEngine(context.Background(), synthesis.Config{
		APIKey: cfg.GeminiAPIKey,
		Models: cfg.SynthesisModels(),
	})
	if err != nil {
		log.Fatalf("✗ Synthesis engine initialization failed: %v", err)
	}
	defer engine.Close()
	if engine.Configured() {
		log.Println("✓ Synthesis engine ready (LLM path enabled)")
	} else {
		log.Println("✓ Synthesis engine ready (heuristic only, no GEMINI_API_KEY)")
	}

	entitlements := services.NewEntitlementService(subscriptionRepo)
	contexts := services.NewContextService(bookRepo, noteRepo)
	publisher := services.NewUpdatePublisher(redisClients.Queue)

	// ──── Queue + workers ────
	queue := worker.NewQueue(redisClients.Queue)
	processor := worker.NewProcessor(
		sessionRepo, machine, entitlements, fetcher, gateway, engine, contexts, queue, publisher,
	)
	workerPool := worker.NewPool(redisClients.Queue, queue, processor, cfg.WorkerCount)
	workerPool.Start()

	// ──── HTTP surface ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(machine, sessionRepo, sessionRepo, queue)
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	r := router.New(jwtAuth, sessionHandler, wsHub)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ bibliomnomnom backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
