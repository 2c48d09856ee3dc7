package handler

import (
	"strconv"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/adapter/http/dto"
	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"
	"github.com/CS-Programmer254/FinLedger/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultHistoryDays = 7

// ReconciliationHandler handles reconciliation endpoints.
type ReconciliationHandler struct {
	reconSvc ports.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconSvc ports.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconSvc: reconSvc}
}

// Run handles POST /api/v1/reconciliation.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	snapshot, err := h.reconSvc.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toSnapshotResponse(snapshot))
}

// GetLatest handles GET /api/v1/reconciliation/latest.
func (h *ReconciliationHandler) GetLatest(c *gin.Context) {
	snapshot, err := h.reconSvc.LatestSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSnapshotResponse(snapshot))
}

// GetHistory handles GET /api/v1/reconciliation/history?days=N.
func (h *ReconciliationHandler) GetHistory(c *gin.Context) {
	days := defaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.Validation("days must be an integer"))
			return
		}
		days = parsed
	}

	snapshots, err := h.reconSvc.History(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.SnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, toSnapshotResponse(s))
	}
	response.OK(c, out)
}

func toSnapshotResponse(s *domain.ReconciliationSnapshot) dto.SnapshotResponse {
	return dto.SnapshotResponse{
		ID:                s.ID.String(),
		TotalPayments:     s.TotalPayments,
		PendingPayments:   s.PendingPayments,
		CompletedPayments: s.CompletedPayments,
		FailedPayments:    s.FailedPayments,
		CustomerBalance:   s.CustomerBalance,
		ClearingBalance:   s.ClearingBalance,
		MerchantBalance:   s.MerchantBalance,
		IsBalanced:        s.IsBalanced,
		Notes:             s.Notes,
		CreatedAt:         s.CreatedAt.Format(time.RFC3339Nano),
	}
}
