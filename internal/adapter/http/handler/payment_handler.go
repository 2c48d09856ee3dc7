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

// PaymentHandler handles payment lifecycle endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("merchant_id must be a UUID"))
		return
	}

	result, err := h.paymentSvc.CreatePayment(c.Request.Context(), ports.CreatePaymentRequest{
		MerchantID: merchantID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Reference:  req.Reference,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// CompletePayment handles POST /api/v1/payments/:id/complete, where :id is
// the caller-supplied payment reference.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	result, err := h.paymentSvc.CompletePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(result))
}

// FailPayment handles POST /api/v1/payments/:id/fail, where :id is the
// caller-supplied payment reference.
func (h *PaymentHandler) FailPayment(c *gin.Context) {
	var req dto.FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.FailPayment(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(result))
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("payment id must be a UUID"))
		return
	}

	payment, err := h.paymentSvc.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentDetailResponse(payment))
}

// GetPaymentEvents handles GET /api/v1/payments/:id/events.
func (h *PaymentHandler) GetPaymentEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("payment id must be a UUID"))
		return
	}

	events, err := h.paymentSvc.GetPaymentEvents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, dto.EventResponse{
			EventType:  ev.EventType(),
			OccurredAt: ev.OccurredAt().Format(time.RFC3339Nano),
			Data:       ev,
		})
	}
	response.OK(c, out)
}

func toPaymentResponse(r *ports.PaymentResult) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		PaymentID: r.PaymentID.String(),
		Status:    r.Status,
		Reference: r.Reference,
		Amount:    r.Amount,
		Currency:  r.Currency,
		CreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339Nano)
		resp.CompletedAt = &s
	}
	return resp
}

func toPaymentDetailResponse(p *domain.Payment) dto.PaymentDetailResponse {
	resp := dto.PaymentDetailResponse{
		PaymentResponse: dto.PaymentResponse{
			PaymentID: p.ID.String(),
			Status:    string(p.Status),
			Reference: p.Reference.String(),
			Amount:    p.Amount.Amount,
			Currency:  p.Amount.Currency,
			CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		},
		MerchantID:    p.MerchantID.String(),
		WebhookURL:    p.WebhookURL,
		FailureReason: p.FailureReason,
		LedgerBalance: p.IsLedgerBalanced(),
		LedgerEntries: make([]dto.LedgerEntryResponse, 0, len(p.LedgerEntries)),
	}
	if p.CompletedAt != nil {
		s := p.CompletedAt.Format(time.RFC3339Nano)
		resp.CompletedAt = &s
	}
	for _, e := range p.LedgerEntries {
		resp.LedgerEntries = append(resp.LedgerEntries, dto.LedgerEntryResponse{
			ID:              e.ID.String(),
			Account:         string(e.Account),
			Debit:           e.Debit,
			Credit:          e.Credit,
			CreatedAt:       e.CreatedAt.Format(time.RFC3339Nano),
			TransactionHash: e.TransactionHash,
		})
	}
	return resp
}
