package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/auth"
	"github.com/collegeconnect/backend/internal/cache"
	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/email"
	"github.com/collegeconnect/backend/internal/handlers"
	"github.com/collegeconnect/backend/internal/housekeeping"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/metrics"
	"github.com/collegeconnect/backend/internal/repository"
	"github.com/collegeconnect/backend/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	metrics.Initialize()

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "collegeconnect"
	}

	db, err := database.Connect(ctx, database.Config{URI: mongoURI, Name: dbName})
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	// Redis backs HTTP rate limiting; the server runs without it
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
	}

	// Repositories
	repos := handlers.Repos{
		Users:         repository.NewUsers(db),
		Messages:      repository.NewMessages(db),
		Items:         repository.NewItems(db),
		Posts:         repository.NewPosts(db),
		Trips:         repository.NewTrips(db),
		Notifications: repository.NewNotifications(db),
		Reports:       repository.NewReports(db),
		Colleges:      repository.NewColleges(db),
		Contacts:      repository.NewContacts(db),
	}

	// Outbound mail via SES; optional in development
	var mailer *email.EmailService
	if os.Getenv("AWS_REGION") != "" {
		mailer, err = email.NewEmailService(
			os.Getenv("AWS_REGION"),
			os.Getenv("EMAIL_FROM"),
			os.Getenv("EMAIL_FROM_NAME"),
			os.Getenv("APP_BASE_URL"),
		)
		if err != nil {
			logger.Log.Warn("SES unavailable, outbound mail disabled", zap.Error(err))
			mailer = nil
		}
	} else {
		logger.Log.Warn("AWS_REGION not set, outbound mail disabled")
	}

	var authMailer auth.Mailer
	if mailer != nil {
		authMailer = mailer
	}
	authService := auth.NewService(jwtSecret, repos.Users, repos.Colleges, authMailer)

	// Realtime messaging
	wsHub := websocket.NewHub()
	presence := websocket.NewPresenceRegistry()
	chatService := websocket.NewChatService(wsHub, presence, repos.Users, repos.Messages)
	chatService.RegisterHandlers()
	wsHandler := websocket.NewHandler(wsHub, authService, chatService, repos.Users)
	go wsHub.Run()

	// HTTP API
	h := handlers.NewHandlers(authService, repos)
	h.SetWebSocketHandler(wsHandler)
	h.SetMailer(mailer)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	h.RegisterRoutes(router)

	// Background sweeps for expired content
	cleaner := housekeeping.New(repos.Items, repos.Posts)
	go cleaner.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("http shutdown failed", zap.Error(err))
	}
	if err := wsHub.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("websocket shutdown failed", zap.Error(err))
	}

	cancel()

	if redisClient != nil {
		redisClient.Close()
	}
	if err := db.Close(shutdownCtx); err != nil {
		logger.Log.Error("mongo disconnect failed", zap.Error(err))
	}
	logger.Log.Info("shutdown complete")
}
