package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/ayo6706/payment-notification/internal/api/middleware"
	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/service"
	"go.uber.org/zap"
)

const maxNotificationBody = 1 << 20

// NotificationProcessor reconciles one raw notification batch.
type NotificationProcessor interface {
	Handle(ctx context.Context, body []byte) (*service.Ack, []domain.Outcome, error)
}

// NotificationHandler receives provider notification batches.
type NotificationHandler struct {
	svc NotificationProcessor
}

func NewNotificationHandler(svc NotificationProcessor) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// Receive handles POST /notifications. The provider only needs the accepted literal; item
// level results are logged and recorded, not returned. Errors make the provider redeliver
// the whole batch.
func (h *NotificationHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, r, http.StatusRequestEntityTooLarge, "notifications/body-too-large", "notification batch too large")
			return
		}
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	ack, outcomes, err := h.svc.Handle(r.Context(), body)
	if err != nil {
		traceID := middleware.TraceIDFromContext(r.Context())
		switch {
		case errors.Is(err, domain.ErrMalformedPayload):
			zap.L().Warn("rejected notification batch", zap.String("trace_id", traceID), zap.Error(err))
			RespondError(w, r, http.StatusBadRequest, "notifications/malformed-payload", err.Error())
		case errors.Is(err, domain.ErrTransport):
			zap.L().Error("notification batch failed", zap.String("trace_id", traceID), zap.Error(err))
			RespondError(w, r, http.StatusServiceUnavailable, "notifications/platform-unavailable", "commerce platform unavailable")
		default:
			zap.L().Error("notification batch failed", zap.String("trace_id", traceID), zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "notification batch failed")
		}
		return
	}

	zap.L().Debug("notification batch acknowledged",
		zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
		zap.Int("items", len(outcomes)),
	)
	RespondJSON(w, http.StatusOK, ack)
}
