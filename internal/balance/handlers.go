package balance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/money"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_http_requests_total",
		Help: "Total HTTP requests processed by the balance authority, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balance_http_request_duration_seconds",
		Help:    "Request latency for the balance authority",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	}, []string{"method", "endpoint"})

	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "balance_lock_wait_seconds",
		Help:    "Observed latency of row-locked credit/debit operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
	})
)

// Handler exposes the balance operations over HTTP: check, credit, and
// debit for individual and group accounts, plus account lifecycle and
// read endpoints.
type Handler struct {
	store *Store
	log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

func (h *Handler) Register(r *mux.Router) {
	r.Use(h.logRequests)

	r.HandleFunc("/health", h.health).Methods("GET")
	r.Handle("/metrics", promhttpHandler()).Methods("GET")

	r.HandleFunc("/accounts", h.createIndividual).Methods("POST")
	r.HandleFunc("/accounts/{user_id}", h.readIndividual).Methods("GET")
	r.HandleFunc("/balance/check", h.check).Methods("POST")
	r.HandleFunc("/balance/credit", h.credit).Methods("POST")
	r.HandleFunc("/balance/debit", h.debit).Methods("POST")

	r.HandleFunc("/groups", h.createGroup).Methods("POST")
	r.HandleFunc("/groups/{group_id}", h.readGroup).Methods("GET")
	r.HandleFunc("/group_balance/check", h.groupCheck).Methods("POST")
	r.HandleFunc("/group_balance/credit", h.groupCredit).Methods("POST")
	r.HandleFunc("/group_balance/debit", h.groupDebit).Methods("POST")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

type accountRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) createIndividual(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/accounts"))
	defer timer.ObserveDuration()

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid request", "POST", "/accounts")
		return
	}

	acc, err := h.store.CreateIndividual(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			h.respondError(w, http.StatusConflict, "account already exists", "POST", "/accounts")
			return
		}
		h.log.Error("create individual account failed", zap.Error(err), zap.String("user_id", req.UserID))
		h.respondError(w, http.StatusInternalServerError, "internal error", "POST", "/accounts")
		return
	}
	h.respondJSON(w, http.StatusCreated, acc, "POST", "/accounts")
}

func (h *Handler) readIndividual(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	acc, err := h.store.Read(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			h.respondError(w, http.StatusNotFound, "account not found", "GET", "/accounts/{user_id}")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal error", "GET", "/accounts/{user_id}")
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "GET", "/accounts/{user_id}")
}

type balanceOpRequest struct {
	UserID string      `json:"user_id"`
	Amount money.Money `json:"amount"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	h.runAccountOp(w, r, "/balance/check", func(ctx requestCtx, req balanceOpRequest) (interface{}, error) {
		return nil, h.store.Check(ctx.ctx, req.UserID, req.Amount)
	})
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(lockWaitSeconds)
	defer timer.ObserveDuration()
	h.runAccountOp(w, r, "/balance/credit", func(ctx requestCtx, req balanceOpRequest) (interface{}, error) {
		return h.store.Credit(ctx.ctx, req.UserID, req.Amount)
	})
}

func (h *Handler) debit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(lockWaitSeconds)
	defer timer.ObserveDuration()
	h.runAccountOp(w, r, "/balance/debit", func(ctx requestCtx, req balanceOpRequest) (interface{}, error) {
		return h.store.Debit(ctx.ctx, req.UserID, req.Amount)
	})
}

type groupOpRequest struct {
	GroupID string      `json:"group_id"`
	Amount  money.Money `json:"amount"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid request", "POST", "/groups")
		return
	}
	g, err := h.store.CreateGroup(r.Context(), req.GroupID)
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			h.respondError(w, http.StatusConflict, "group already exists", "POST", "/groups")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal error", "POST", "/groups")
		return
	}
	h.respondJSON(w, http.StatusCreated, g, "POST", "/groups")
}

func (h *Handler) readGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["group_id"]
	g, err := h.store.ReadGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			h.respondError(w, http.StatusNotFound, "group not found", "GET", "/groups/{group_id}")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal error", "GET", "/groups/{group_id}")
		return
	}
	h.respondJSON(w, http.StatusOK, g, "GET", "/groups/{group_id}")
}

func (h *Handler) groupCheck(w http.ResponseWriter, r *http.Request) {
	h.runGroupOp(w, r, "/group_balance/check", func(ctx requestCtx, req groupOpRequest) (interface{}, error) {
		return nil, h.store.GroupCheck(ctx.ctx, req.GroupID, req.Amount)
	})
}

func (h *Handler) groupCredit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(lockWaitSeconds)
	defer timer.ObserveDuration()
	h.runGroupOp(w, r, "/group_balance/credit", func(ctx requestCtx, req groupOpRequest) (interface{}, error) {
		return h.store.GroupCredit(ctx.ctx, req.GroupID, req.Amount)
	})
}

func (h *Handler) groupDebit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(lockWaitSeconds)
	defer timer.ObserveDuration()
	h.runGroupOp(w, r, "/group_balance/debit", func(ctx requestCtx, req groupOpRequest) (interface{}, error) {
		return h.store.GroupDebit(ctx.ctx, req.GroupID, req.Amount)
	})
}
