package handler

import (
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/adapter/http/dto"
	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"
	"github.com/CS-Programmer254/FinLedger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler exposes the delivery queue to the external dispatcher.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// ListPending handles GET /api/v1/webhooks/pending.
func (h *WebhookHandler) ListPending(c *gin.Context) {
	deliveries, err := h.webhookSvc.PendingDeliveries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, toDeliveryResponse(&d))
	}
	response.OK(c, out)
}

// RecordAttempt handles POST /api/v1/webhooks/:paymentId/attempts.
func (h *WebhookHandler) RecordAttempt(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		response.Error(c, apperror.Validation("payment id must be a UUID"))
		return
	}

	var req dto.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	delivery, err := h.webhookSvc.RecordAttempt(c.Request.Context(), paymentID, *req.Successful)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDeliveryResponse(delivery))
}

// DecodeNotification handles GET /api/v1/webhooks/:paymentId/notification.
func (h *WebhookHandler) DecodeNotification(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		response.Error(c, apperror.Validation("payment id must be a UUID"))
		return
	}

	plaintext, err := h.webhookSvc.DecodeNotification(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NotificationResponse{
		PaymentID: paymentID.String(),
		Plaintext: plaintext,
	})
}

func toDeliveryResponse(d *domain.WebhookDelivery) dto.DeliveryResponse {
	resp := dto.DeliveryResponse{
		ID:           d.ID.String(),
		PaymentID:    d.PaymentID.String(),
		URL:          d.URL,
		Ciphertext:   d.Payload.Ciphertext,
		Nonce:        d.Payload.Nonce,
		Tag:          d.Payload.Tag,
		RetryCount:   d.RetryCount,
		IsSuccessful: d.IsSuccessful,
	}
	if d.LastAttemptAt != nil {
		s := d.LastAttemptAt.Format(time.RFC3339Nano)
		resp.LastAttemptAt = &s
	}
	if d.NextRetryAt != nil {
		s := d.NextRetryAt.Format(time.RFC3339Nano)
		resp.NextRetryAt = &s
	}
	return resp
}
