package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-backend/config"
	"github.com/shiftwise/shiftwise-backend/database"
	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/internal/auth"
	"github.com/shiftwise/shiftwise-backend/internal/notification"
	"github.com/shiftwise/shiftwise-backend/internal/report"
	"github.com/shiftwise/shiftwise-backend/internal/subscription"
	"github.com/shiftwise/shiftwise-backend/routes"
	"github.com/shiftwise/shiftwise-backend/utils"
)

func main() {
	cfg := config.Load()

	// Document store (reports, users, notification preferences)
	if err := database.ConnectMongo(context.Background(), cfg); err != nil {
		log.Fatalf("❌ Mongo init failed: %v", err)
	}
	defer database.DisconnectMongo(context.Background())

	// Relational store for the operational audit trail
	db := database.Connect(cfg)

	// Init Redis
	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("❌ Redis init failed: %v", err)
	}

	// Init Kafka
	utils.InitializeKafka(cfg)

	// Init Firebase
	if err := utils.InitFirebase(cfg); err != nil {
		log.Printf("⚠️ Firebase initialization failed: %v", err)
		log.Println("ℹ️ Continuing without Firebase (push notifications will be disabled)")
	} else if utils.IsFCMEnabled() {
		log.Println("✅ Firebase and FCM initialized successfully")
	}

	// Auto-migrate audit trail
	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(&auditlog.AuditLog{}); err != nil {
		log.Fatalf("❌ DB AutoMigrate failed: %v", err)
	}

	// Repositories & services
	auditRepo := auditlog.NewRepository(db)
	auditSvc := auditlog.NewService(auditRepo)

	authRepo := auth.NewRepository(database.Col(database.ColUsers))
	authSvc := auth.NewService(authRepo, cfg)

	reportRepo := report.NewRepository(database.Col(database.ColReports))
	reportSvc := report.NewService(reportRepo, auditSvc, report.NewKafkaPublisher())

	prefRepo := subscription.NewRepository(database.Col(database.ColNotifications))
	subSvc := subscription.NewService(prefRepo, reportRepo, auditSvc)

	dispatchTimeout := time.Duration(cfg.DispatchTimeoutSecs) * time.Second
	notifSvc := notification.NewService(reportRepo, prefRepo, notification.NewFCMGateway(), auditSvc, dispatchTimeout)
	notification.StartKafkaConsumer(notifSvc, cfg)

	// HTTP surface
	r := gin.Default()
	routes.Setup(r, cfg, authSvc, routes.Handlers{
		Auth:         auth.NewHandler(authSvc),
		Report:       report.NewHandler(reportSvc),
		Subscription: subscription.NewHandler(subSvc),
		Notification: notification.NewHandler(notifSvc),
		AuditLog:     auditlog.NewHandler(auditSvc),
	})

	log.Printf("🚀 Server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
