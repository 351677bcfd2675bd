package transport

import (
	"net/http"

	"resto-be/internal/order"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	Items      []order.ItemInput `json:"items"`
	TableLabel *string           `json:"tableLabel"`
	Note       *string           `json:"note"`
}

type checkoutRequest struct {
	TableLabel *string `json:"tableLabel"`
	Note       *string `json:"note"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type batchStatusRequest struct {
	IDs    []uint `json:"ids"`
	Status string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Use(RequireAuth)
	r.Post("/", h.create)
	r.Post("/checkout", h.checkout)
	r.Get("/mine", h.listMine)
	r.Get("/{id}", h.get)
	r.Post("/{id}/cancel", h.cancel)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/", h.list)
		r.Patch("/{id}/status", h.updateStatus)
		r.Patch("/batch-status", h.batchUpdateStatus)
	})
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.svc.CreateOrder(r.Context(), order.CreateOrderInput{
		CustomerID: c.ID,
		Items:      req.Items,
		TableLabel: req.TableLabel,
		Note:       req.Note,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}

	res, err := h.svc.CheckoutCart(r.Context(), c.ID, req.TableLabel, req.Note)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *OrderHandler) listMine(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	f, err := orderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.ListMyOrders(r.Context(), c.ID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("customerId"); raw != "" {
		id, err := utils.ToUint(raw)
		if err != nil || id == 0 {
			respondError(w, r, validation.New("customerId", "must be a positive integer"))
			return
		}
		f.CustomerID = id
	}

	res, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// orderFilter reads status, from, to, limit and page from the query string.
func orderFilter(r *http.Request) (order.ListFilter, error) {
	var (
		f   order.ListFilter
		err error
	)
	if s := queryString(r, "status"); s != nil {
		st := order.Status(*s)
		f.Status = &st
	}
	if f.From, err = queryTime(r, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to", true); err != nil {
		return f, err
	}
	if f.Limit, f.Page, err = pageParams(r); err != nil {
		return f, err
	}
	return f, nil
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.svc.GetOrder(r.Context(), id, c.ID, c.IsAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.svc.CancelOrder(r.Context(), id, c.ID, c.IsAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.svc.TransitionStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) batchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req batchStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.BatchTransitionStatus(r.Context(), req.IDs, order.Status(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
