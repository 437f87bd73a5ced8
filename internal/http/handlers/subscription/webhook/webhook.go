// Package webhook принимает уведомления Midtrans о статусе транзакции.
//
// Шлюз повторяет доставку, пока не получит 2xx, поэтому уведомление о
// неизвестном заказе подтверждается кодом 200 и только логируется.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
	subservice "github.com/magabrotheeeer/course-platform/internal/services/subscription"
)

// Service сверка уведомления с подпиской.
type Service interface {
	ReconcilePaymentNotification(ctx context.Context, orderID, providerStatus, providerTransactionID string) (subservice.Outcome, error)
}

// SignatureVerifier проверяет signature_key уведомления.
type SignatureVerifier interface {
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

// Handler обработчик уведомлений шлюза.
type Handler struct {
	log      *slog.Logger
	service  Service
	verifier SignatureVerifier
}

// New создает новый экземпляр Handler. Если verifier равен nil, подпись не проверяется.
func New(log *slog.Logger, service Service, verifier SignatureVerifier) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		verifier: verifier,
	}
}

// ServeHTTP godoc
// @Summary Уведомление Midtrans
// @Description Применяет статус транзакции к подписке с id = order_id. Неизвестный заказ подтверждается кодом 200.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.PaymentNotification true "Уведомление"
// @Success 200 {object} response.Response "Уведомление принято"
// @Failure 400 {object} response.ErrorResponse "Нет order_id или transaction_status"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/midtrans/notification [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var n models.PaymentNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		log.Warn("failed to decode notification", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if n.OrderID == "" || n.TransactionStatus == "" {
		log.Warn("notification without order_id or transaction_status",
			slog.String("order_id", n.OrderID), slog.String("transaction_status", n.TransactionStatus))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("order_id and transaction_status are required"))
		return
	}

	if h.verifier != nil && !h.verifier.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		log.Warn("invalid notification signature", slog.String("order_id", n.OrderID))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	outcome, err := h.service.ReconcilePaymentNotification(r.Context(), n.OrderID, n.TransactionStatus, n.TransactionID)
	if err != nil {
		log.Error("failed to reconcile notification", slog.String("order_id", n.OrderID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("notification processed",
		slog.String("order_id", n.OrderID),
		slog.String("transaction_status", n.TransactionStatus),
		slog.String("outcome", string(outcome)),
	)
	render.JSON(w, r, response.OKWithData(map[string]string{"outcome": string(outcome)}))
}
