package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayo6706/payment-notification/internal/api/middleware"
	"github.com/ayo6706/payment-notification/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OutcomeLister reads recorded outcomes.
type OutcomeLister interface {
	ListByReference(ctx context.Context, reference string, limit, offset int) ([]models.OutcomeRecord, error)
}

// OutcomeHandler serves the operator view of reconciliation outcomes.
type OutcomeHandler struct {
	store OutcomeLister
}

func NewOutcomeHandler(store OutcomeLister) *OutcomeHandler {
	return &OutcomeHandler{store: store}
}

type outcomeListResponse struct {
	PaymentReference string                 `json:"payment_reference"`
	Limit            int                    `json:"limit"`
	Offset           int                    `json:"offset"`
	Outcomes         []models.OutcomeRecord `json:"outcomes"`
}

// ListByReference handles GET /v1/payments/{reference}/outcomes.
func (h *OutcomeHandler) ListByReference(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(chi.URLParam(r, "reference"))
	if reference == "" {
		RespondError(w, r, http.StatusBadRequest, "outcomes/missing-reference", "payment reference is required")
		return
	}
	limit, offset, ok := pagination(r)
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", "limit must be positive and offset non-negative")
		return
	}

	records, err := h.store.ListByReference(r.Context(), reference, limit, offset)
	if err != nil {
		zap.L().Error("list outcomes failed",
			zap.String("payment_reference", reference),
			zap.String("operator", middleware.OperatorFromContext(r.Context())),
			zap.Error(err),
		)
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "failed to list outcomes")
		return
	}
	if records == nil {
		records = []models.OutcomeRecord{}
	}
	RespondJSON(w, http.StatusOK, outcomeListResponse{
		PaymentReference: reference,
		Limit:            limit,
		Offset:           offset,
		Outcomes:         records,
	})
}
