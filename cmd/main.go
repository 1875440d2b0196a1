package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wellspring/maternal-backend/internal/clients/sendgrid"
	"github.com/wellspring/maternal-backend/internal/clients/twilio"
	"github.com/wellspring/maternal-backend/internal/db"
	"github.com/wellspring/maternal-backend/internal/handlers"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/middleware"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/server"
	"github.com/wellspring/maternal-backend/internal/services"
	"github.com/wellspring/maternal-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)
	sweepIntervalHours := utils.GetEnvAsInt("SWEEP_INTERVAL_HOURS", 24, log)
	notifyQueueSize := utils.GetEnvAsInt("NOTIFY_QUEUE_SIZE", 256, log)
	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	caregiverRepo := repos.NewCaregiverProfileRepo(thePG, log)
	childRepo := repos.NewChildProfileRepo(thePG, log)
	templateRepo := repos.NewMasterTemplateRepo(thePG, log)
	scheduleRepo := repos.NewScheduleEntryRepo(thePG, log)
	approvalRepo := repos.NewApprovalRecordRepo(thePG, log)
	eventRepo := repos.NewEventLogRepo(thePG, log)
	certRepo := repos.NewCertificateRepo(thePG, log)
	ruleRepo := repos.NewRuleConfigRepo(thePG, log)
	notificationLogRepo := repos.NewNotificationLogRepo(thePG, log)

	// Clients
	emailClient := sendgrid.NewFromEnv(log)
	smsClient := twilio.NewFromEnv(log)

	// Services
	log.Info("Setting up Services from main...")
	notifierService := services.NewNotifierService(thePG, log, emailClient, smsClient, notificationLogRepo, notifyQueueSize)
	notifierService.StartWorker(context.Background())

	rulesService := services.NewRulesService(thePG, log, ruleRepo)
	generator := services.NewScheduleGenerator(thePG, log, templateRepo, scheduleRepo)
	certService := services.NewCertificateService(thePG, log, scheduleRepo, certRepo, eventRepo)
	workflowService := services.NewWorkflowService(thePG, log, scheduleRepo, eventRepo, certService, notifierService, childRepo, caregiverRepo, userRepo)
	approvalService := services.NewApprovalService(thePG, log, childRepo, caregiverRepo, userRepo, scheduleRepo, approvalRepo, eventRepo, notifierService)
	childService := services.NewChildService(thePG, log, childRepo, caregiverRepo, userRepo, generator, notifierService)
	scheduleService := services.NewScheduleService(thePG, log, scheduleRepo, templateRepo, childRepo, caregiverRepo, eventRepo)
	templateService := services.NewTemplateService(thePG, log, templateRepo)
	statsService := services.NewStatsService(thePG, log, childRepo, scheduleRepo)
	authService := services.NewAuthService(thePG, log, userRepo, caregiverRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)

	sweepService := services.NewSweepService(thePG, log, scheduleRepo, eventRepo, rulesService, notifierService, childRepo, caregiverRepo, userRepo, time.Duration(sweepIntervalHours)*time.Hour)
	sweepService.StartWorker(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	childHandler := handlers.NewChildHandler(childService, certService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, workflowService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	rulesHandler := handlers.NewRulesHandler(rulesService)
	sweepHandler := handlers.NewSweepHandler(sweepService, statsService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		ChildHandler:    childHandler,
		ScheduleHandler: scheduleHandler,
		ApprovalHandler: approvalHandler,
		TemplateHandler: templateHandler,
		RulesHandler:    rulesHandler,
		SweepHandler:    sweepHandler,
		AllowOrigins:    allowOrigins,
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
