package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appOrder "github.com/lumipay/payflow/internal/application/order"
	appPayment "github.com/lumipay/payflow/internal/application/payment"
	domainOrder "github.com/lumipay/payflow/internal/domain/order"
	domainPayment "github.com/lumipay/payflow/internal/domain/payment"
)

const headerUserID = "X-User-ID"

type Handler struct {
	orderService   *appOrder.Service
	paymentService *appPayment.Service
}

func NewHandler(orderSvc *appOrder.Service, paymentSvc *appPayment.Service) *Handler {
	return &Handler{
		orderService:   orderSvc,
		paymentService: paymentSvc,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", h.handleCreateOrder)
	mux.HandleFunc("POST /payments", h.handleCreatePayment)
	mux.HandleFunc("GET /payments/{id}", h.handleGetPayment)
	mux.HandleFunc("POST /payments/{id}/cancel", h.handleCancelPayment)
	mux.HandleFunc("DELETE /payments/{id}", h.handleDeletePayment)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type createOrderRequest struct {
	Amount int64 `json:"amount"`
}

type createOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domainOrder.Status `json:"status"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.orderService.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		UserID: userID,
		Amount: req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID: result.OrderID,
		Status:  result.Status,
	})
}

type createPaymentRequest struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
}

type paymentResponse struct {
	PaymentID string               `json:"payment_id"`
	OrderID   string               `json:"order_id"`
	Amount    int64                `json:"amount"`
	Method    domainPayment.Method `json:"method"`
	Status    domainPayment.Status `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func toPaymentResponse(v *appPayment.PaymentView) paymentResponse {
	return paymentResponse{
		PaymentID: v.ID,
		OrderID:   v.OrderID,
		Amount:    v.Amount,
		Method:    v.Method,
		Status:    v.Status,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	method, err := domainPayment.ParseMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view, err := h.paymentService.CreatePayment(r.Context(), appPayment.CreatePaymentInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  method,
		UserID:  userID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(view))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.paymentService.GetPayment(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(view))
}

func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.paymentService.CancelPayment(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(view))
}

func (h *Handler) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(r.Context(), r.PathValue("id"), userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+headerUserID+" header"))
		return "", false
	}
	return userID, true
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainPayment.ErrNotFound),
		errors.Is(err, domainOrder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, appPayment.ErrAmountMismatch),
		errors.Is(err, domainPayment.ErrInvalidAmount),
		errors.Is(err, domainPayment.ErrInvalidMethod),
		errors.Is(err, domainOrder.ErrInvalidAmount),
		errors.Is(err, domainOrder.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, appPayment.ErrPaymentFailed):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, domainPayment.ErrAlreadyCompleted),
		errors.Is(err, domainPayment.ErrAlreadyCancelled),
		errors.Is(err, domainPayment.ErrNotCancellable),
		errors.Is(err, domainPayment.ErrDeleteNotAllowed),
		errors.Is(err, domainPayment.ErrDuplicateOrderPayment),
		errors.Is(err, appPayment.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
