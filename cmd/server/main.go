package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowtune/internal/cache"
	"flowtune/internal/config"
	"flowtune/internal/repository"
	"flowtune/internal/service"
	"flowtune/internal/transport/rest"
	"flowtune/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	tuning := config.DefaultTuning()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	telemetryRepo := repository.NewTelemetryRepo(db)
	transitionRepo := repository.NewTransitionRepo(db)

	// Initialize caches
	difficultyCache := cache.NewDifficultyCache(rdb)
	flowCache := cache.NewFlowCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	scheduler := service.NewScheduler()
	defer scheduler.Stop()

	profiler := service.NewSkillProfiler(tuning)
	analyzer := service.NewQualityAnalyzer(tuning)
	gapAnalyzer := service.NewGapAnalyzer(tuning)
	responder := service.NewEmergencyResponder(tuning)
	detector := service.NewFlowStateDetector(tuning)
	validator := service.NewValidationTracker(tuning, scheduler)
	predictors := service.NewPredictionModels(tuning)

	engine := service.NewAdjustmentEngine(
		tuning, profiler, analyzer, gapAnalyzer,
		responder, detector, validator, predictors, scheduler,
	)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	engine.SetBroadcaster(wsHub)
	engine.SetTransitionRepo(transitionRepo)
	engine.SetTelemetryRepo(telemetryRepo)
	engine.SetDifficultyCache(difficultyCache)
	engine.SetFlowCache(flowCache)

	// Background loops
	go engine.RunFlowSampler(ctx)
	go engine.RunAdjustmentLoop(ctx)
	go engine.RunEmergencySweep(ctx)

	// Create router with container
	container := &rest.Container{
		AuthService: authSvc,
		Engine:      engine,
		Detector:    detector,
		WSHub:       wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Printf("Host auth: username=%s", cfg.HostUsername)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/players/{playerId}/telemetry")
		log.Println("  GET  /v1/players/{playerId}/difficulty")
		log.Println("  GET  /v1/players/{playerId}/transitions")
		log.Println("  GET  /v1/players/{playerId}/prediction")
		log.Println("  GET  /v1/players/{playerId}/flow")
		log.Println("  DELETE /v1/players/{playerId}/session")
		log.Println("  WS  /v1/ws/observe")
		log.Println("  WS  /v1/ws/players/{playerId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
