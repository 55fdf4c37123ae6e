package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Alex-T-Coder/lgcy-app/internal/cache"
	"github.com/Alex-T-Coder/lgcy-app/internal/handlers"
	"github.com/Alex-T-Coder/lgcy-app/internal/handlers/ws"
	"github.com/Alex-T-Coder/lgcy-app/internal/middleware"
	"github.com/Alex-T-Coder/lgcy-app/internal/push"
	"github.com/Alex-T-Coder/lgcy-app/internal/repository"
	"github.com/Alex-T-Coder/lgcy-app/internal/service"
	"github.com/Alex-T-Coder/lgcy-app/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Lgcy Messaging Backend",
		// Chat attachments up to 25MB + multipart overhead.
		BodyLimit: 32 * 1024 * 1024,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-LGCY-CSRF",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	threadCache := cache.NewThreadCache(redisCache)
	notificationCache := cache.NewNotificationCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	graphRepo := repository.NewGraphRepository(db)

	// Initialize S3/MinIO storage (best-effort; attachment endpoints fail
	// with a validation error if missing)
	var attachmentStore service.AttachmentStore
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewAttachmentStorage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		attachmentStore = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Initialize push dispatcher (best-effort; fan-out still persists rows
	// when the provider is unavailable)
	var dispatcher push.Dispatcher
	if d, err := push.NewFCMDispatcherFromEnv(context.Background()); err != nil {
		log.Printf("WARNING: push dispatcher not configured: %v", err)
	} else {
		dispatcher = d
		log.Println("FCM push dispatcher initialized")
	}

	// Initialize services and the WebSocket hub
	hub := ws.NewHub()
	chatService := service.NewChatService(threadRepo, userRepo, threadCache, attachmentStore)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, graphRepo, dispatcher, hub, notificationCache)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(chatService, notificationService, hub)
	chatHandler := handlers.NewChatHandler(chatService, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	api.Get("/csrf", handlers.IssueCSRF)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired(), middleware.CSRFRequired())
	protected.Get("/chats", chatHandler.ListThreads)
	protected.Post("/chats", chatHandler.SendMessage)
	protected.Get("/chats/peer/:peer_id", chatHandler.GetThreadWithPeer)
	protected.Post("/chats/peer/:peer_id", chatHandler.ResolveThreadWithPeer)
	protected.Post("/chats/:id/messages/:message_id/seen", chatHandler.MarkSeen)
	protected.Post("/chats/:id/block", chatHandler.ToggleBlock)
	protected.Delete("/chats/:id", chatHandler.DeleteThread)
	protected.Post(
		"/chats/attachments",
		limiter.New(limiter.Config{
			Max:        20,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}),
		chatHandler.UploadAttachment,
	)

	protected.Post("/events", notificationHandler.Publish)
	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)
	protected.Delete("/notifications/:id", notificationHandler.Delete)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Lgcy messaging backend is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
