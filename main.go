// File: /main.go
package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
	"minisocial-api/config"
	"minisocial-api/database"
	"minisocial-api/jobs"
	"minisocial-api/middleware"
	"minisocial-api/repositories"
	"minisocial-api/routes"
	"minisocial-api/services"
	"minisocial-api/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logLevel := logger.Warn
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
		logLevel = logger.Info
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, logLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Blob storage
	var blobs storage.BlobStore
	var localMediaDir string
	switch cfg.BlobBackend {
	case "minio":
		blobs, err = storage.NewMinioStore(context.Background(), storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicURL,
		})
	default:
		var local *storage.LocalStore
		local, err = storage.NewLocalStore(cfg.BlobDir, cfg.PublicBaseURL)
		if err == nil {
			blobs = local
			localMediaDir = local.Root()
		}
	}
	if err != nil {
		log.Fatal("Failed to initialize blob storage:", err)
	}

	postRepo := repositories.NewPostRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	hub := services.NewFeedHub()

	deps := routes.Dependencies{
		AuthService:        services.NewAuthService(accountRepo, cfg.JWTSecret, services.NewEmailService(cfg)),
		FeedService:        services.NewFeedService(postRepo, profileRepo, hub, cfg.LikePolicy, cfg.CommentAuthor),
		UploadService:      services.NewUploadService(postRepo, blobs, hub),
		ProfileService:     services.NewProfileService(profileRepo, blobs),
		LocalMediaDir:      localMediaDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	if cfg.OrphanAuditInterval > 0 {
		auditJob := jobs.NewOrphanAuditJob(services.NewBlobAuditService(postRepo, profileRepo, blobs), cfg.OrphanAuditInterval)
		auditJob.Start()
		defer auditJob.Stop()
	}

	router := gin.New()
	router.Use(routes.SetupCORS())
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorHandler())
	router.MaxMultipartMemory = 16 << 20

	routes.SetupRoutes(router, deps)

	log.Printf("Starting Mini Social API server on port %s (likes=%s, blobs=%s)", cfg.Port, cfg.LikePolicy, cfg.BlobBackend)
	log.Printf("Health check available at: http://localhost:%s/ping", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
