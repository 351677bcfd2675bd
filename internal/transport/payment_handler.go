package transport

import (
	"net/http"

	"resto-be/internal/payment"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	svc payment.Service
	// mock settlement endpoints stay unregistered in production
	enableMock bool
}

func NewPaymentHandler(svc payment.Service, enableMock bool) *PaymentHandler {
	return &PaymentHandler{svc: svc, enableMock: enableMock}
}

type createPaymentRequest struct {
	OrderID uint           `json:"orderId"`
	Method  payment.Method `json:"paymentMethod"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

type mockSettleRequest struct {
	TransactionID *string `json:"transactionId"`
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Use(RequireAuth)
	r.Post("/create", h.create)
	r.Get("/{id}", h.get)
	r.Get("/order/{orderNo}", h.latestForOrder)

	r.With(RequireAdmin).Get("/", h.list)
	r.With(RequireAdmin).Post("/{id}/refund", h.refund)

	if h.enableMock {
		r.Post("/{id}/mock-success", h.mockSettle(payment.OutcomeSuccess))
		r.Post("/{id}/mock-fail", h.mockSettle(payment.OutcomeFailure))
	}
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	var f payment.ListFilter
	if s := queryString(r, "status"); s != nil {
		st := payment.Status(*s)
		f.Status = &st
	}
	if m := queryString(r, "paymentMethod"); m != nil {
		method := payment.Method(*m)
		f.Method = &method
	}
	if no := queryString(r, "orderNo"); no != nil {
		f.OrderNo = *no
	}

	var err error
	if f.Limit, f.Page, err = pageParams(r); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.ListPayments(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) create(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Method == "" {
		req.Method = payment.MethodWechat
	}

	p, err := h.svc.CreatePayment(r.Context(), payment.CreatePaymentInput{
		OrderID:    req.OrderID,
		Method:     req.Method,
		CustomerID: c.ID,
		IsAdmin:    c.IsAdmin,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := h.svc.GetPayment(r.Context(), id, c.ID, c.IsAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) latestForOrder(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	p, err := h.svc.GetLatestByOrderNo(r.Context(), chi.URLParam(r, "orderNo"), c.ID, c.IsAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req refundRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}

	res, err := h.svc.Refund(r.Context(), id, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// mockSettle simulates a gateway result for a payment the caller can see.
func (h *PaymentHandler) mockSettle(outcome payment.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, _ := callerFrom(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req mockSettleRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				respondError(w, r, err)
				return
			}
		}

		if _, err := h.svc.GetPayment(r.Context(), id, c.ID, c.IsAdmin); err != nil {
			respondError(w, r, err)
			return
		}

		res, err := h.svc.SettlePayment(r.Context(), payment.SettleInput{
			PaymentID:     id,
			Outcome:       outcome,
			TransactionID: req.TransactionID,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
