package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moduo/internal/cache"
	"moduo/internal/config"
	"moduo/internal/repository"
	"moduo/internal/service"
	"moduo/internal/transport/rest"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	if cfg.StreamAPIKey == "" || cfg.StreamAPISecret == "" {
		log.Println("Warning: STREAM_ACCESS_KEY/STREAM_ACCESS_SECRET not set, provider calls will fail")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)

	// Initialize provider clients and services
	videoClient := service.NewVideoClient(cfg.VideoAPIURL, cfg.StreamAPIKey, cfg.StreamAPISecret)
	chatClient := service.NewChatClient(cfg.ChatAPIURL, cfg.StreamAPIKey, cfg.StreamAPISecret)
	realtimeSvc := service.NewRealtimeService(videoClient, chatClient)
	authSvc := service.NewAuthService(userRepo, realtimeSvc, cfg.IdentityJWTSecret)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, sessionCache, realtimeSvc, cfg.SessionJoinPolicy)

	// Background reconciliation of orphaned realtime resources
	reconciler := service.NewReconciler(sessionRepo, userRepo, realtimeSvc, cfg.ReconcileInterval, cfg.ReconcileStaleAge)
	reconcileCtx, stopReconciler := context.WithCancel(ctx)
	defer stopReconciler()
	go reconciler.Run(reconcileCtx)
	log.Printf("Reconciler started (interval %s)", cfg.ReconcileInterval)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		WebhookSecret:  cfg.WebhookSecret,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Printf("Join policy: %s", cfg.SessionJoinPolicy)
		log.Println("Endpoints:")
		log.Println("  POST /sessions")
		log.Println("  GET  /sessions/active")
		log.Println("  GET  /sessions/past")
		log.Println("  GET  /sessions/{id}")
		log.Println("  POST /sessions/{id}/join")
		log.Println("  POST /sessions/{id}/end")
		log.Println("  POST /webhooks/identity")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopReconciler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
