package transport

import (
	"net/http"

	"resto-be/internal/cart"

	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type addCartItemRequest struct {
	DishID   uint `json:"dishId"`
	Quantity *int `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// RegisterRoutes mounts the cart endpoints. Every route needs a customer.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Use(RequireAuth)
	r.Get("/", h.get)
	r.Delete("/", h.clear)
	r.Post("/items", h.addItem)
	r.Put("/items/{dishId}", h.setQuantity)
	r.Delete("/items/{dishId}", h.removeItem)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	snap, err := h.svc.Snapshot(r.Context(), c.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	var req addCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	snap, err := h.svc.Add(r.Context(), c.ID, req.DishID, qty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	dishID, err := pathID(r, "dishId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Quantity == nil {
		respondError(w, r, validationRequired("quantity"))
		return
	}

	snap, err := h.svc.SetQuantity(r.Context(), c.ID, dishID, *req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	dishID, err := pathID(r, "dishId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := h.svc.Remove(r.Context(), c.ID, dishID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r.Context())

	if err := h.svc.Clear(r.Context(), c.ID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
