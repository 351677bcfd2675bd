package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"resto-be/internal/cart"
	"resto-be/internal/logger"
	"resto-be/internal/order"
	"resto-be/internal/payment"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Missing []uint `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if err := utils.WriteJSON(w, status, v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	utils.WriteJSONError(w, status, code, message)
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected so client typos surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.New("body", "request body is required")
		}
		return validation.New("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	if dec.More() {
		return validation.New("body", "request body must contain a single JSON object")
	}
	return nil
}

// respondError maps a domain error to its HTTP status and stable code.
// Internal failures are logged and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *validation.Error
	var itemsErr *order.InvalidItemsError

	switch {
	case errors.As(err, &verr):
		status, resp.Code, resp.Field = http.StatusBadRequest, "VALIDATION_ERROR", verr.Field
	case errors.Is(err, cart.ErrQuantityExceeded):
		status, resp.Code = http.StatusBadRequest, "QUANTITY_EXCEEDED"
	case errors.As(err, &itemsErr):
		status, resp.Code, resp.Missing = http.StatusBadRequest, "INVALID_ITEMS", itemsErr.Missing
	case errors.Is(err, order.ErrInvalidItems):
		status, resp.Code = http.StatusBadRequest, "INVALID_ITEMS"
	case errors.Is(err, cart.ErrCartEmpty):
		status, resp.Code = http.StatusBadRequest, "CART_EMPTY"

	case errors.Is(err, order.ErrInvalidStatusTransition):
		status, resp.Code = http.StatusConflict, "INVALID_STATUS_TRANSITION"
	case errors.Is(err, payment.ErrPaymentExists):
		status, resp.Code = http.StatusConflict, "PAYMENT_EXISTS"
	case errors.Is(err, payment.ErrInvalidPaymentStatus):
		status, resp.Code = http.StatusConflict, "INVALID_PAYMENT_STATUS"
	case errors.Is(err, payment.ErrOrderNotPayable):
		status, resp.Code = http.StatusConflict, "ORDER_NOT_PAYABLE"
	case errors.Is(err, payment.ErrOrderCannotRefund):
		status, resp.Code = http.StatusConflict, "ORDER_CANNOT_REFUND"

	case errors.Is(err, payment.ErrAmountMismatch):
		status, resp.Code = http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, cart.ErrDishUnavailable):
		status, resp.Code = http.StatusNotFound, "NOT_FOUND"

	case errors.Is(err, order.ErrForbidden):
		status, resp.Code = http.StatusForbidden, "FORBIDDEN"

	case errors.Is(err, payment.ErrGatewayUnavailable):
		status, resp.Code = http.StatusBadGateway, "GATEWAY_UNAVAILABLE"
		resp.Error = "payment gateway unavailable"
	case errors.Is(err, order.ErrOrderCreationFailed):
		resp.Code, resp.Error = "ORDER_CREATION_FAILED", "order creation failed, please retry"
	default:
		resp.Code, resp.Error = "INTERNAL_ERROR", "internal server error"
	}

	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "transport"),
		zap.String("path", r.URL.Path),
		zap.String("code", resp.Code),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}

	writeJSON(w, status, resp)
}
