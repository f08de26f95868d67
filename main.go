package main

import (
	"context"
	"log"
	"strings"
	"time"

	"annex-backend/config"
	"annex-backend/controllers"
	"annex-backend/database"
	"annex-backend/kafka"
	"annex-backend/logger"
	"annex-backend/middleware"
	"annex-backend/models"
	"annex-backend/repository"
	"annex-backend/routes"
	"annex-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer zlog.Sync()

	db, err := database.ConnectPostgres(cfg, zlog,
		&models.User{},
		&models.Lesson{},
		&models.Purchase{},
		&models.Notification{},
	)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := database.NewRedisClient(cfg.RedisURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Repositories. The settlement path always uses the uncached lesson repo
	// so prices and sales counters only ever come from postgres.
	purchaseRepo := repository.NewGormPurchaseRepo(db)
	lessonRepo := repository.NewGormLessonRepo(db)
	cachedLessonRepo := repository.NewCachedLessonRepo(lessonRepo, redisClient, 5*time.Minute, zlog)
	userRepo := repository.NewGormUserRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)

	gateway := services.NewPaychanguClient(cfg.PaychanguBaseURL, cfg.PaychanguSecretKey, cfg.GatewayTimeout)

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewPaymentEventProducer(brokers, cfg.PaymentEventsTopic, zlog)
	defer producer.Close()

	// Strict dependency order: ledger first, then initiator and payout,
	// then the webhook router on top of both.
	paymentSvc := services.NewPaymentService(purchaseRepo, lessonRepo, gateway, zlog)
	payoutSvc := services.NewPayoutService(lessonRepo, userRepo, gateway, zlog)
	settlementSvc := services.NewSettlementService(purchaseRepo, payoutSvc, producer, zlog)
	webhookSvc := services.NewWebhookService(cfg.PaychanguWebhookSecret, settlementSvc, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := services.NewReconciliationWorker(purchaseRepo, gateway, settlementSvc, cfg.ReconcileInterval, cfg.PendingMaxAge, zlog)
	go reconciler.Start(ctx)

	notificationConsumer := services.NewNotificationConsumer(brokers, cfg.PaymentEventsTopic, cfg.NotificationGroupID, notificationRepo, zlog)
	defer notificationConsumer.Close()
	go notificationConsumer.Start(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))

	routes.Register(r, routes.Controllers{
		Payments:      controllers.NewPaymentController(paymentSvc, zlog),
		Webhooks:      controllers.NewWebhookController(webhookSvc, zlog),
		Purchases:     controllers.NewPurchaseController(purchaseRepo, zlog),
		Lessons:       controllers.NewLessonController(cachedLessonRepo, zlog),
		Notifications: controllers.NewNotificationController(notificationRepo, zlog),
	}, cfg.JWTSecret)

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server failed", zap.Error(err))
	}
}
