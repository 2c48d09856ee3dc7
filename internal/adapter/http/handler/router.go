package handler

import (
	"github.com/CS-Programmer254/FinLedger/internal/adapter/http/middleware"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PaymentSvc     ports.PaymentService
	ReconSvc       ports.ReconciliationService
	WebhookSvc     ports.WebhookService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep -- verifies PostgreSQL + Redis)
	r.GET("/healthz", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	payments := v1.Group("/payments")
	{
		payments.POST("", paymentHandler.CreatePayment)
		// Gin allows one wildcard name per segment, so the reference-addressed
		// transition routes share :id with the UUID-addressed lookups.
		payments.POST("/:id/complete", paymentHandler.CompletePayment)
		payments.POST("/:id/fail", paymentHandler.FailPayment)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.GET("/:id/events", paymentHandler.GetPaymentEvents)
	}

	reconHandler := NewReconciliationHandler(deps.ReconSvc)
	recon := v1.Group("/reconciliation")
	{
		recon.POST("", reconHandler.Run)
		recon.GET("/latest", reconHandler.GetLatest)
		recon.GET("/history", reconHandler.GetHistory)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	webhooks := v1.Group("/webhooks")
	{
		webhooks.GET("/pending", webhookHandler.ListPending)
		webhooks.POST("/:paymentId/attempts", webhookHandler.RecordAttempt)
		webhooks.GET("/:paymentId/notification", webhookHandler.DecodeNotification)
	}

	return r
}
