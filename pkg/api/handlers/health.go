package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/directory"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can the pool list and directory state be read?
type HealthHandler struct {
	pools  directory.PoolLister
	domain defaults.DomainStateProvider
}

// NewHealthHandler creates a health handler. Either collaborator may be
// nil, in which case readiness reports it as not configured.
func NewHealthHandler(pools directory.PoolLister, domain defaults.DomainStateProvider) *HealthHandler {
	return &HealthHandler{pools: pools, domain: domain}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthyResponse(map[string]string{
		"service": "dittoacl",
	}))
}

// ReadinessStatus is the detail of a readiness probe.
type ReadinessStatus struct {
	Pools       []directory.Pool `json:"pools"`
	DomainState string           `json:"domain_state,omitempty"`
	Latency     string           `json:"latency"`
}

// Readiness handles GET /health/ready.
//
// Returns 503 when the pool list cannot be read: without it pool roots
// cannot be protected and every mutation would fail.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.pools == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("pool lister not configured", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	status := ReadinessStatus{Pools: []directory.Pool{}}

	pools, err := h.pools.ListPools(ctx)
	if err != nil {
		status.Latency = time.Since(start).String()
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error(), status))
		return
	}
	if pools != nil {
		status.Pools = pools
	}

	if h.domain != nil {
		state, err := h.domain.DomainState(ctx)
		if err != nil {
			status.Latency = time.Since(start).String()
			WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error(), status))
			return
		}
		status.DomainState = state
	}

	status.Latency = time.Since(start).String()
	WriteJSONOK(w, healthyResponse(status))
}
