// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/handlers"
	"github.com/kowida/kowida-backend/internal/middleware"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize storage service")
	}

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db, notificationService)
	referenceService := services.NewReferenceService(db)
	settlementService := services.NewSettlementService(db, cfg, notificationService)
	sharedSettlementService := services.NewSharedSettlementService(db, cfg)
	dashboardService := services.NewDashboardService(db, cfg)
	paymentService := services.NewPaymentService(db, cfg)
	ocrService := services.NewOCRService(cfg)
	translationService := services.NewTranslationService(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, dashboardService, settlementService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)
	settlementHandler := handlers.NewSettlementHandler(settlementService, sharedSettlementService, storageService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	toolsHandler := handlers.NewToolsHandler(ocrService, translationService)
	adminHandler := handlers.NewAdminHandler(dashboardService, userService, referenceService, notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.POST("/device-token", middleware.AuthRequired(), authHandler.RegisterDeviceToken)
		}

		// User routes
		users := v1.Group("/users/me")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/reference-summary", userHandler.GetReferenceSummary)
			users.GET("/transactions", userHandler.GetMyTransactions)
			users.DELETE("", userHandler.DeleteAccount)
		}

		// Public reference lookup (used by the registration flow)
		references := v1.Group("/references")
		{
			references.GET("/:code", referenceHandler.GetReference)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", paymentHandler.CreateIntent)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
		}

		// Tools routes
		tools := v1.Group("/tools")
		tools.Use(middleware.AuthRequired())
		{
			tools.POST("/ocr", toolsHandler.ExtractText)
			tools.POST("/translate", toolsHandler.Translate)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/notifications", adminHandler.GetNotifications)

			// User management
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/active", adminHandler.SetUserActive)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			// Reference management
			adminReferences := admin.Group("/references")
			{
				adminReferences.GET("", referenceHandler.GetReferences)
				adminReferences.POST("", referenceHandler.CreateReference)
			}

			// Base amount
			admin.GET("/base-amount", adminHandler.GetBaseAmount)
			admin.PUT("/base-amount", adminHandler.UpdateBaseAmount)

			// Settlements
			settlements := admin.Group("/settlements")
			{
				settlements.GET("", settlementHandler.GetTransactions)
				settlements.GET("/preview", settlementHandler.PreviewSettle)
				settlements.GET("/shared/history", settlementHandler.GetSharedTransactions)
				settlements.GET("/:id", settlementHandler.GetTransaction)

				guarded := settlements.Group("")
				guarded.Use(middleware.SettlementRateLimit())
				{
					guarded.POST("", settlementHandler.Settle)
					guarded.POST("/shared", settlementHandler.SettleShared)
				}
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
