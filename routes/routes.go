// File: /routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"minisocial-api/controllers"
	"minisocial-api/middleware"
	"minisocial-api/services"
	"minisocial-api/storage"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	AuthService    *services.AuthService
	FeedService    *services.FeedService
	UploadService  *services.UploadService
	ProfileService *services.ProfileService
	// LocalMediaDir is served under storage.MediaRoute when set.
	LocalMediaDir      string
	RateLimitPerMinute int
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	authController := controllers.NewAuthController(deps.AuthService)
	postController := controllers.NewPostController(deps.FeedService, deps.UploadService)
	userController := controllers.NewUserController(deps.ProfileService)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if deps.LocalMediaDir != "" {
		r.Static(storage.MediaRoute, deps.LocalMediaDir)
	}

	// API version 1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.ValidateJSON())

	// Auth routes (public)
	auth := v1.Group("/auth")
	if deps.RateLimitPerMinute > 0 {
		auth.Use(middleware.RateLimit(deps.RateLimitPerMinute, 10))
	}
	{
		auth.POST("/signup", authController.SignUp)
		auth.POST("/signin", authController.SignIn)
		auth.GET("/session", middleware.AuthMiddleware(deps.AuthService), authController.Session)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.AuthService))
	{
		contents := protected.Group("/contents")
		{
			contents.GET("", postController.GetFeed)
			contents.POST("", postController.CreatePost)
			contents.GET("/stream", postController.StreamFeed)
			contents.GET("/mine", postController.GetOwnPosts)
			contents.POST("/:id/like", postController.LikePost)
			contents.POST("/:id/comments", postController.AddComment)
		}

		protected.GET("/profile", userController.GetProfile)
		protected.PUT("/profile", userController.SaveProfile)
	}
}

// SetupCORS allows the mobile and web clients to call the API from any origin.
func SetupCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
