package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/docuflow/backend/internal/application/services"
	"github.com/docuflow/backend/internal/bootstrap"
	"github.com/docuflow/backend/internal/infrastructure/database"
	"github.com/docuflow/backend/internal/infrastructure/persistence"
	"github.com/docuflow/backend/internal/interfaces/middleware"
	"github.com/docuflow/backend/internal/interfaces/rest"
	"github.com/docuflow/backend/pkg/constants"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded configuration from .env")
	}

	port := os.Getenv(constants.EnvPort)
	if port == "" {
		port = "3001"
	}

	conn, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := conn.DB()
	log.Println("✅ Database connection established")

	if err := bootstrap.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := bootstrap.SeedAdminUser(db); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Repositories
	txManager := persistence.NewTransactionManager(db)
	templateRepo := persistence.NewTemplateRepository(db)
	instanceRepo := persistence.NewInstanceRepository(db)
	taskRepo := persistence.NewTaskRepository(db)
	ledgerRepo := persistence.NewDelegationLogRepository(db)
	userRepo := persistence.NewUserRepository(db)
	notificationRepo := persistence.NewNotificationRepository(db)

	// Services
	notificationSvc := services.NewNotificationService(notificationRepo)
	taskSvc := services.NewTaskService(taskRepo, instanceRepo, templateRepo, ledgerRepo, userRepo, notificationSvc, txManager)
	instanceSvc := services.NewInstanceService(instanceRepo, templateRepo, taskRepo, txManager, taskSvc)
	templateSvc := services.NewTemplateService(templateRepo)
	ledgerSvc := services.NewDelegationLogService(ledgerRepo)
	authSvc := services.NewAuthService(userRepo)
	escalationSvc := services.NewEscalationService(taskRepo, ledgerRepo, userRepo, notificationSvc, txManager, escalationInterval())

	if err := escalationSvc.Start(); err != nil {
		log.Fatalf("Failed to start escalation monitor: %v", err)
	}

	// Handlers
	authHandler := rest.NewAuthHandler(authSvc)
	workflowHandler := rest.NewWorkflowHandler(templateSvc, instanceSvc)
	taskHandler := rest.NewTaskHandler(taskSvc, ledgerSvc)
	notificationHandler := rest.NewNotificationHandler(notificationSvc)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth()
	requireAdmin := middleware.RequireAdmin()

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		workflow := api.Group("/workflow")
		workflow.Use(requireAuth)
		{
			workflow.POST("/templates", requireAdmin, workflowHandler.CreateTemplate)
			workflow.GET("/templates", workflowHandler.ListTemplates)
			workflow.GET("/templates/:templateId", workflowHandler.GetTemplate)

			workflow.POST("/instances", workflowHandler.Submit)
			workflow.GET("/instances/:instanceId", workflowHandler.GetInstance)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("/pending", taskHandler.GetPending)
			tasks.POST("/:taskId/approve", taskHandler.Approve)
			tasks.POST("/:taskId/reject", taskHandler.Reject)
			tasks.POST("/:taskId/delegate", taskHandler.Delegate)
			tasks.POST("/:taskId/transfer", taskHandler.Transfer)
			tasks.POST("/:taskId/rollback", taskHandler.Rollback)
			tasks.GET("/:taskId/delegation-logs", taskHandler.GetDelegationLogs)
		}

		api.GET("/delegation-logs", requireAuth, requireAdmin, taskHandler.ListDelegationLogs)

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:notificationId/read", notificationHandler.MarkAsRead)
		}
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down...")

	escalationSvc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Forced shutdown: %v", err)
	}
	if err := conn.Close(); err != nil {
		log.Printf("⚠️ Failed to close database: %v", err)
	}
	log.Println("👋 Server stopped")
}

func escalationInterval() time.Duration {
	minutes := constants.DefaultEscalationIntervalMinutes
	if raw := os.Getenv(constants.EnvEscalationInterval); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	return time.Duration(minutes) * time.Minute
}
