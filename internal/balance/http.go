package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// requestCtx carries the request's context.Context into the op closures
// registered by runAccountOp/runGroupOp, keeping the handler bodies above
// free of per-op boilerplate.
type requestCtx struct {
	ctx context.Context
}

func promhttpHandler() http.Handler { return promhttp.Handler() }

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests emits one access-log line per request.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func httpRequestDurationTimer(endpoint, method string) func() {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(method, endpoint))
	return func() { timer.ObserveDuration() }
}

func (h *Handler) decodeAccountOp(w http.ResponseWriter, r *http.Request, endpoint string) (balanceOpRequest, bool) {
	var req balanceOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid request", r.Method, endpoint)
		return req, false
	}
	if err := req.Amount.MustPositive(); err != nil {
		h.respondError(w, http.StatusBadRequest, "amount must be positive", r.Method, endpoint)
		return req, false
	}
	return req, true
}

func (h *Handler) runAccountOp(w http.ResponseWriter, r *http.Request, endpoint string, op func(ctx requestCtx, req balanceOpRequest) (interface{}, error)) {
	done := httpRequestDurationTimer(endpoint, r.Method)
	defer done()

	req, ok := h.decodeAccountOp(w, r, endpoint)
	if !ok {
		return
	}

	result, err := op(requestCtx{r.Context()}, req)
	if err != nil {
		h.handleStoreError(w, err, r.Method, endpoint)
		return
	}
	if result == nil {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, r.Method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, result, r.Method, endpoint)
}

func (h *Handler) decodeGroupOp(w http.ResponseWriter, r *http.Request, endpoint string) (groupOpRequest, bool) {
	var req groupOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid request", r.Method, endpoint)
		return req, false
	}
	if err := req.Amount.MustPositive(); err != nil {
		h.respondError(w, http.StatusBadRequest, "amount must be positive", r.Method, endpoint)
		return req, false
	}
	return req, true
}

func (h *Handler) runGroupOp(w http.ResponseWriter, r *http.Request, endpoint string, op func(ctx requestCtx, req groupOpRequest) (interface{}, error)) {
	done := httpRequestDurationTimer(endpoint, r.Method)
	defer done()

	req, ok := h.decodeGroupOp(w, r, endpoint)
	if !ok {
		return
	}

	result, err := op(requestCtx{r.Context()}, req)
	if err != nil {
		h.handleStoreError(w, err, r.Method, endpoint)
		return
	}
	if result == nil {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, r.Method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, result, r.Method, endpoint)
}

func (h *Handler) handleStoreError(w http.ResponseWriter, err error, method, endpoint string) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		h.respondError(w, http.StatusNotFound, "account not found", method, endpoint)
	case errors.Is(err, ErrInsufficientFunds):
		h.respondError(w, http.StatusBadRequest, "insufficient funds", method, endpoint)
	default:
		h.log.Error("balance store error", zap.Error(err), zap.String("endpoint", endpoint))
		h.respondError(w, http.StatusInternalServerError, "internal error", method, endpoint)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
