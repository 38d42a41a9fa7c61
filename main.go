package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/cache"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/directory"
	"messaging-service/internal/handlers"
	"messaging-service/internal/middleware"
	"messaging-service/internal/notify"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

const unreadCacheTTL = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "messaging-service", cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracer(context.Background())

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable, unread counts uncached: %v", err)
			redisClient = nil
		}
	}
	unreadCache := cache.NewCountCache(redisClient, unreadCacheTTL)

	eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Printf("amqp event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.moderation", "messaging-service", cfg.Environment)

	hub := ws.NewHub()
	var registry ws.Registry = hub
	if cfg.NATSURL != "" {
		natsRegistry, err := ws.NewNATSRegistry(hub, cfg.NATSURL)
		if err != nil {
			log.Printf("nats fan-out disabled, using local hub: %v", err)
		} else {
			registry = natsRegistry
			defer natsRegistry.Close()
		}
	}

	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	listings := directory.NewListingDir(database)
	users := directory.NewUserDir(database)

	emitter := notify.NewEmitter(notificationRepo, registry, unreadCache)

	chatHandler := handlers.NewChatHandler(messageRepo, listings, users, emitter, registry, unreadCache)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, unreadCache)
	moderationHandler := handlers.NewModerationHandler(listings, users, emitter, auditEmitter)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)
	userWS := ws.NewUserWebSocketHandler(registry, verifier)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.Auth(verifier)

	chat := router.Group("/api/chat", authMiddleware)
	{
		chat.POST("/send", chatHandler.SendMessage)
		chat.GET("/conversations", chatHandler.ListConversations)
		chat.GET("/unread-count", chatHandler.UnreadCount)
		chat.PUT("/mark-read/:message_id", chatHandler.MarkMessageRead)
		chat.PUT("/mark-all-read", chatHandler.MarkAllMessagesRead)
		chat.GET("/:property_id/:user_id", chatHandler.GetThread)
	}

	notifications := router.Group("/api/notifications", authMiddleware)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/:notification_id/read", notificationHandler.MarkRead)
		notifications.PUT("/mark-all-read", notificationHandler.MarkAllRead)
	}

	moderation := router.Group("/api/moderation", authMiddleware, middleware.RequireRole("admin"))
	{
		moderation.PUT("/properties/:property_id/approve", moderationHandler.PropertyApproved)
		moderation.PUT("/properties/:property_id/reject", moderationHandler.PropertyRejected)
		moderation.POST("/properties/:property_id/submitted", moderationHandler.PropertySubmitted)
	}

	router.GET("/ws", userWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.Debug)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
