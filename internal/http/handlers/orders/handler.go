// Package orders exposes the order endpoints of the producer API.
package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jeziellopes/observability/internal/logging"
	domain "github.com/jeziellopes/observability/internal/orders"
)

type Handler struct {
	svc *domain.Service
	log logging.Logger
}

func NewHandler(svc *domain.Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("component", "orders_handler")}
}

type createOrderRequest struct {
	UserID   int64   `json:"userId"`
	UserName string  `json:"userName"`
	Total    float64 `json:"total"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), req.UserID, req.UserName, req.Total)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The order exists but its event did not go out.
		h.log.Error("create order", "error", err)
		writeError(w, http.StatusInternalServerError, "order stored but event not published")
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListOrders(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
