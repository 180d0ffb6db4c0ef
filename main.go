package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"progression-service/internal/cache"
	"progression-service/internal/certificate"
	"progression-service/internal/config"
	"progression-service/internal/db"
	"progression-service/internal/event"
	"progression-service/internal/handlers"
	"progression-service/internal/progression"
	"progression-service/internal/repository"
	"progression-service/internal/scoring"
	"progression-service/internal/seed"
	"progression-service/internal/service"
	"progression-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	db.InitMongo(cfg.MongoURI)
	defer db.Disconnect()
	database := db.Client.Database(cfg.Database)

	// Repositories
	stageRepo := repository.NewStageRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	progressRepo := repository.NewProgressRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)
	certRepo := repository.NewCertificateRepository(database)
	userRepo := repository.NewUserRepository(database)
	videoRepo := repository.NewVideoProgressRepository(database)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, idx := range []interface {
		CreateIndexes(ctx context.Context) error
	}{stageRepo, questionRepo, progressRepo, attemptRepo, certRepo, videoRepo} {
		if err := idx.CreateIndexes(indexCtx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
	}
	indexCancel()

	if err := seed.SeedFromFile(context.Background(), stageRepo, questionRepo, cfg.SeedFile); err != nil {
		log.Fatalf("Failed to seed curriculum: %v", err)
	}

	// Core services
	engine := scoring.NewEngine(questionRepo)
	machine := progression.NewMachine(progressRepo, attemptRepo, stageRepo)
	videoLedger := progression.NewVideoLedger(videoRepo)
	gate := certificate.NewGate(certRepo, attemptRepo, userRepo, stageRepo)

	stageService := service.NewStageService(stageRepo, questionRepo, progressRepo, attemptRepo)
	assessmentService := service.NewAssessmentService(engine, machine)
	userService := service.NewUserService(userRepo, machine)
	statsService := service.NewStatsService(userRepo, stageRepo, questionRepo, progressRepo, attemptRepo)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQURI != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQURI, cfg.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, progression events will not be published")
	}

	// user.created consumer
	consumer, err := event.NewEventConsumer(cfg.RabbitMQURI, cfg.Exchange, userService)
	if err != nil {
		log.Fatalf("Failed to create event consumer: %v", err)
	}
	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start event consumer: %v", err)
	}
	defer consumer.Close()

	// Redis cache for the public verify endpoint
	redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	verifyCache := cache.NewVerifyCache(redisClient, cfg.VerifyCacheTTL)

	// Handlers
	stageHandler := handlers.NewStageHandler(stageService, machine, videoLedger)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	certificateHandler := handlers.NewCertificateHandler(gate, verifyCache)
	statsHandler := handlers.NewStatsHandler(statsService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	publicCert := r.Group("/public/progression/certificate")
	{
		publicCert.GET("/verify/:code", func(c *gin.Context) {
			certificateHandler.VerifyCertificate(c)
			if publisher != nil {
				publisher.Publish(event.EventTypeVerificationRequested, gin.H{
					"code":      c.Param("code"),
					"timestamp": time.Now(),
				})
			}
		})
	}

	// Protected routes, identity comes from the gateway header
	protected := r.Group("/protected/progression")
	protected.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})
	{
		protected.GET("/stage", stageHandler.ListStages)
		protected.GET("/stage/:id/questions", stageHandler.GetStageQuestions)

		protected.POST("/assessment/diagnostic", func(c *gin.Context) {
			assessmentHandler.SubmitDiagnostic(c)
			if publisher != nil {
				publisher.Publish(event.EventTypeDiagnosticSubmitted, gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})
		protected.POST("/assessment/stage/:id", func(c *gin.Context) {
			assessmentHandler.SubmitStage(c)
			if publisher != nil {
				publisher.Publish(event.EventTypeStageSubmitted, gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"stage_id":  c.Param("id"),
					"timestamp": time.Now(),
				})
			}
		})

		protected.GET("/progress", stageHandler.GetProgress)
		protected.GET("/progress/history", stageHandler.GetHistory)
		protected.POST("/video-completed", stageHandler.MarkVideoCompleted)
		protected.GET("/videos", stageHandler.GetVideoProgress)
		protected.GET("/statistics", statsHandler.GetStatistics)

		protected.POST("/certificate", func(c *gin.Context) {
			certificateHandler.IssueCertificate(c)
			if publisher != nil {
				publisher.Publish(event.EventTypeCertificateRequested, gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})
		protected.GET("/certificate", certificateHandler.GetCertificate)
	}

	// Consul registration
	var registry *discovery.ServiceRegistry
	if cfg.ConsulAddress != "" {
		registry, err = discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Failed to create service registry: %v", err)
		}
		if err := registry.Register(); err != nil {
			log.Fatalf("Failed to register with Consul: %v", err)
		}
	} else {
		log.Println("Consul not configured, skipping service registration")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Progression service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	log.Println("Shutting down...")
	if registry != nil {
		registry.Deregister()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
