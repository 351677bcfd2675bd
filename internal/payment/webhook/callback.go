package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"resto-be/internal/logger"
	"resto-be/internal/payment"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const CallbackTokenHeader = "X-Callback-Token"

// CallbackPayload is what the gateway posts on every delivery attempt.
// Deliveries are at-least-once, so the same payload may arrive repeatedly.
type CallbackPayload struct {
	PaymentNo     string           `json:"paymentNo"`
	Status        string           `json:"status"`
	TransactionID *string          `json:"transactionId,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

type callbackResponse struct {
	PaymentNo   string `json:"paymentNo"`
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
	Applied     bool   `json:"applied"`
}

type Handler struct {
	PaymentSvc    payment.Service
	callbackToken string
}

func NewWebhookHandler(paymentSvc payment.Service, callbackToken string) *Handler {
	if callbackToken == "" {
		logger.L().Warn("payment callback token is empty, all callbacks will be rejected")
	}
	return &Handler{
		PaymentSvc:    paymentSvc,
		callbackToken: callbackToken,
	}
}

func (h *Handler) verifyToken(r *http.Request) bool {
	if h.callbackToken == "" {
		return false
	}
	got := r.Header.Get(CallbackTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackToken)) == 1
}

// PaymentNotifyHandler settles a payment from a gateway callback. Replays
// of an already-settled payment answer 200 with applied=false.
func (h *Handler) PaymentNotifyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("method", "PaymentNotify"),
	)

	if !h.verifyToken(r) {
		log.Warn("invalid callback token")
		utils.WriteJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid callback token")
		return
	}

	var payload CallbackPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&payload); err != nil {
		log.Warn("invalid callback payload", zap.Error(err))
		utils.WriteJSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	res, err := h.PaymentSvc.HandleCallback(ctx, payment.CallbackInput{
		PaymentNo:     payload.PaymentNo,
		Status:        payload.Status,
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
	})
	if err != nil {
		status, code := classify(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			log.Error("callback processing failed", zap.String("payment_no", payload.PaymentNo), zap.Error(err))
			msg = "failed to process callback"
		} else {
			log.Warn("callback rejected", zap.String("payment_no", payload.PaymentNo), zap.Error(err))
		}
		utils.WriteJSONError(w, status, code, msg)
		return
	}

	resp := callbackResponse{
		PaymentNo:   res.Payment.PaymentNo,
		Status:      string(res.Payment.Status),
		OrderStatus: string(res.Payment.OrderStatus),
		Applied:     res.Applied,
	}
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Warn("failed to encode callback response", zap.Error(err))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, payment.ErrAmountMismatch):
		return http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
