package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"trailmate/backend/internal/activity"
	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/config"
	"trailmate/backend/internal/database"
	"trailmate/backend/internal/events"
	"trailmate/backend/internal/handler"
	"trailmate/backend/internal/hub"
	"trailmate/backend/internal/onboarding"
	"trailmate/backend/internal/profile"
	"trailmate/backend/internal/storage"

	// Swagger imports
	_ "trailmate/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Trailmate API
// @version         1.0
// @description     API for hosting and joining group outdoor activities.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// Connect to the database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := database.NewStore(db)

	ctx := context.Background()
	liveHub := hub.NewHub()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		liveHub, err = hub.NewRedisHub(ctx, rdb)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		log.Printf("Live updates relayed through redis at %s", cfg.RedisAddr)
	}
	defer liveHub.Close()

	notifier := events.Fanout{liveHub}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		notifier = append(notifier, publisher)
		log.Printf("Publishing activity events to kafka topic %s", cfg.KafkaTopic)
	}

	avatars, err := storage.NewDiskBucket(cfg.AvatarDir)
	if err != nil {
		log.Fatalf("Failed to open avatar bucket: %v", err)
	}

	secret := []byte(cfg.JWTSecret)
	onboardingSvc := onboarding.NewService(store)
	h := &handler.Handler{
		Auth:           auth.NewService(store, auth.LogMailer{}, secret, cfg.TokenTTL, cfg.AppBaseURL),
		Onboarding:     onboardingSvc,
		Profiles:       profile.NewService(store),
		Activities:     activity.NewService(store, notifier),
		Avatars:        avatars,
		Hub:            liveHub,
		AvatarMaxBytes: cfg.AvatarMaxBytes,
	}

	router := handler.NewRouter(h, secret)

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := router.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
