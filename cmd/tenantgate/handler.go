package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
)

// checkResponse is the body of /v1/check and /v1/usage responses.
type checkResponse struct {
	Tenant       string `json:"tenant"`
	Decision     string `json:"decision,omitempty"`
	Count        int    `json:"count"`
	Remaining    int    `json:"remaining"`
	RetryAfterMs int64  `json:"retry_after_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// admissionHandler serves admission checks for one limiter.
type admissionHandler struct {
	limiter window.Limiter
	logger  *slog.Logger
}

func newAdmissionHandler(limiter window.Limiter, logger *slog.Logger) http.Handler {
	h := &admissionHandler{limiter: limiter, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/check", h.check)
	mux.HandleFunc("GET /v1/usage", h.usage)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// check admits or rejects one request for ?tenant=ID.
func (h *admissionHandler) check(w http.ResponseWriter, r *http.Request) {
	tenant := window.TenantID(r.URL.Query().Get("tenant"))
	now := h.limiter.Now()

	decision, err := h.limiter.CheckAllowed(tenant, now)
	if err != nil {
		h.writeError(w, tenant, err)
		return
	}

	u, err := h.limiter.Usage(tenant, now)
	if err != nil {
		h.writeError(w, tenant, err)
		return
	}

	status := http.StatusOK
	if decision == window.Denied {
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", retryAfterSeconds(u.RetryAfter))
	}
	writeJSON(w, status, checkResponse{
		Tenant:       string(tenant),
		Decision:     decision.String(),
		Count:        u.Count,
		Remaining:    u.Remaining,
		RetryAfterMs: u.RetryAfter.Milliseconds(),
	})
}

// usage reports ?tenant=ID's window without recording a request.
func (h *admissionHandler) usage(w http.ResponseWriter, r *http.Request) {
	tenant := window.TenantID(r.URL.Query().Get("tenant"))

	u, err := h.limiter.Usage(tenant, h.limiter.Now())
	if err != nil {
		h.writeError(w, tenant, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Tenant:       string(tenant),
		Count:        u.Count,
		Remaining:    u.Remaining,
		RetryAfterMs: u.RetryAfter.Milliseconds(),
	})
}

func (h *admissionHandler) writeError(w http.ResponseWriter, tenant window.TenantID, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gferrors.ErrInvalidTenant):
		status = http.StatusBadRequest
	case errors.Is(err, gferrors.ErrCapacityExceeded), errors.Is(err, gferrors.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("admission check failed",
			slog.String("tenant", string(tenant)),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
