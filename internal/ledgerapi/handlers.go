package ledgerapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/ledgersvc"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// Handler routes the four money-moving operations, the per-user history
// query, and the operator-facing reconciliation listing.
type Handler struct {
	svc *ledgersvc.Service
	log *zap.Logger
}

func NewHandler(svc *ledgersvc.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r *mux.Router) {
	r.Use(h.logRequests)

	r.HandleFunc("/health", h.health).Methods("GET")
	r.Handle("/metrics", promhttpHandler()).Methods("GET")

	r.HandleFunc("/deposit", h.deposit).Methods("POST")
	r.HandleFunc("/transfer/p2p", h.transferP2P).Methods("POST")
	r.HandleFunc("/contribute", h.contribute).Methods("POST")
	r.HandleFunc("/transfer", h.interbankTransfer).Methods("POST")
	r.HandleFunc("/transactions/me", h.history).Methods("GET")
	r.HandleFunc("/admin/reconciliation", h.reconciliation).Methods("GET")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

type depositRequest struct {
	UserID string      `json:"user_id"`
	Amount money.Money `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/deposit"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "malformed request body", "POST", endpoint)
		return
	}

	tx, err := h.svc.Dispatch(r.Context(), domain.Intent{
		Kind:           domain.IntentDeposit,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		UserID:         req.UserID,
		Deposit:        &domain.DepositPayload{Amount: req.Amount},
	})
	h.respondSaga(w, tx, err, "POST", endpoint)
}

type p2pRequest struct {
	UserID                 string      `json:"user_id"`
	DestinationPhoneNumber string      `json:"destination_phone_number"`
	Amount                 money.Money `json:"amount"`
}

func (h *Handler) transferP2P(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfer/p2p"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req p2pRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.DestinationPhoneNumber == "" {
		h.respondError(w, http.StatusBadRequest, "malformed request body", "POST", endpoint)
		return
	}

	tx, err := h.svc.Dispatch(r.Context(), domain.Intent{
		Kind:           domain.IntentP2P,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		UserID:         req.UserID,
		P2P:            &domain.P2PPayload{DestinationPhone: req.DestinationPhoneNumber, Amount: req.Amount},
	})
	h.respondSaga(w, tx, err, "POST", endpoint)
}

type contributeRequest struct {
	UserID  string      `json:"user_id"`
	GroupID string      `json:"group_id"`
	Amount  money.Money `json:"amount"`
}

func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/contribute"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.GroupID == "" {
		h.respondError(w, http.StatusBadRequest, "malformed request body", "POST", endpoint)
		return
	}

	tx, err := h.svc.Dispatch(r.Context(), domain.Intent{
		Kind:           domain.IntentContribute,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		UserID:         req.UserID,
		Contribute:     &domain.ContributePayload{GroupID: req.GroupID, Amount: req.Amount},
	})
	h.respondSaga(w, tx, err, "POST", endpoint)
}

type interbankRequest struct {
	UserID                 string      `json:"user_id"`
	ToBank                 string      `json:"to_bank"`
	DestinationPhoneNumber string      `json:"destination_phone_number"`
	Amount                 money.Money `json:"amount"`
}

func (h *Handler) interbankTransfer(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfer"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req interbankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.ToBank == "" || req.DestinationPhoneNumber == "" {
		h.respondError(w, http.StatusBadRequest, "malformed request body", "POST", endpoint)
		return
	}

	tx, err := h.svc.Dispatch(r.Context(), domain.Intent{
		Kind:           domain.IntentInterbank,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		UserID:         req.UserID,
		Interbank: &domain.InterbankPayload{
			ToBank:           req.ToBank,
			DestinationPhone: req.DestinationPhoneNumber,
			Amount:           req.Amount,
		},
	})
	h.respondSaga(w, tx, err, "POST", endpoint)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transactions/me"
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		h.respondError(w, http.StatusBadRequest, "missing X-User-Id header", "GET", endpoint)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	txs, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, txs, "GET", endpoint)
}

func (h *Handler) reconciliation(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/admin/reconciliation"

	olderThanSeconds := 0
	if raw := r.URL.Query().Get("older_than_seconds"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			olderThanSeconds = n
		}
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	txs, err := h.svc.Reconciliation(r.Context(), olderThanSeconds, limit)
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, txs, "GET", endpoint)
}

// respondSaga handles the common shape of the four write operations: a
// non-nil err means the saga never started, while a nil err with a
// terminal tx.Status means the saga ran to completion and the outcome is
// carried entirely in the status field.
func (h *Handler) respondSaga(w http.ResponseWriter, tx *domain.Transaction, err error, method, endpoint string) {
	if err != nil {
		h.respondServiceError(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, statusHTTPCode(tx.Status), tx, method, endpoint)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	switch {
	case errors.Is(err, ledgersvc.ErrBadRequest):
		h.respondError(w, http.StatusBadRequest, err.Error(), method, endpoint)
	case errors.Is(err, ledgersvc.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), method, endpoint)
	case errors.Is(err, ledgersvc.ErrUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, err.Error(), method, endpoint)
	case errors.Is(err, ledgersvc.ErrInternal):
		h.log.Error("internal ledger inconsistency", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error", method, endpoint)
	default:
		h.log.Error("unclassified ledger service error", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error", method, endpoint)
	}
}
