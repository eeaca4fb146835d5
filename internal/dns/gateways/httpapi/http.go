// Package httpapi exposes the blocklist over HTTP: lookups, status, manual
// refresh and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/common/utils"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist"
)

const requestTimeout = 10 * time.Second

// Blocklist answers lookups and reports on the current snapshot.
type Blocklist interface {
	Contains(name string, includeSubdomains bool) bool
	Stats() blocklist.Stats
}

// Refresher starts background rebuilds.
type Refresher interface {
	Trigger(ctx context.Context, restoreFromCache bool)
	Count() uint64
}

// Options configures the routes.
type Options struct {
	Blocklist Blocklist
	Refresher Refresher
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Logger   log.Logger
	// BaseContext is handed to triggered rebuilds so they outlive the request.
	BaseContext context.Context
}

type api struct {
	bl      Blocklist
	refresh Refresher
	logger  log.Logger
	baseCtx context.Context
}

type lookupResponse struct {
	Name       string `json:"name"`
	Subdomains bool   `json:"subdomains"`
	Blocked    bool   `json:"blocked"`
}

type statusResponse struct {
	Domains       uint64     `json:"domains"`
	Published     uint64     `json:"published"`
	Generation    uint64     `json:"generation"`
	LastUpdate    *time.Time `json:"last_update,omitempty"`
	SourcesOK     int        `json:"sources_ok"`
	SourcesFailed int        `json:"sources_failed"`
	Cache         cacheStats `json:"cache"`
}

type cacheStats struct {
	Capacity  int    `json:"capacity"`
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// BindRoutes registers middleware and handlers on r.
func BindRoutes(r *chi.Mux, opts Options) {
	a := &api{bl: opts.Blocklist, refresh: opts.Refresher, logger: opts.Logger, baseCtx: opts.BaseContext}
	if a.logger == nil {
		a.logger = log.NewNoopLogger()
	}
	if a.baseCtx == nil {
		a.baseCtx = context.Background()
	}

	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(requestTimeout))

	r.Get("/healthz", a.health)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1/blocklist", func(br chi.Router) {
		br.Get("/lookup", a.lookup)
		br.Get("/status", a.status)
		br.Post("/refresh", a.triggerRefresh)
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *api) lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := utils.CanonicalDNSName(q.Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}
	subdomains := true
	if raw := q.Get("subdomains"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "subdomains must be a boolean"})
			return
		}
		subdomains = v
	}
	writeJSON(w, http.StatusOK, lookupResponse{
		Name:       name,
		Subdomains: subdomains,
		Blocked:    a.bl.Contains(name, subdomains),
	})
}

func (a *api) status(w http.ResponseWriter, r *http.Request) {
	st := a.bl.Stats()
	resp := statusResponse{
		Domains:       st.Domains,
		Generation:    st.Generation,
		SourcesOK:     st.SourcesOK,
		SourcesFailed: st.SourcesFailed,
		Cache: cacheStats{
			Capacity:  st.Cache.Capacity,
			Size:      st.Cache.Size,
			Hits:      st.Cache.Hits,
			Misses:    st.Cache.Misses,
			Evictions: st.Cache.Evictions,
		},
	}
	if a.refresh != nil {
		resp.Published = a.refresh.Count()
	}
	if !st.LastUpdate.IsZero() {
		t := st.LastUpdate.UTC()
		resp.LastUpdate = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) triggerRefresh(w http.ResponseWriter, r *http.Request) {
	if a.refresh == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "refresh not configured"})
		return
	}
	restore := false
	if raw := r.URL.Query().Get("restore"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "restore must be a boolean"})
			return
		}
		restore = v
	}
	a.logger.Info(map[string]any{
		"restore":    restore,
		"request_id": middleware.GetReqID(r.Context()),
	}, "refresh_requested")
	a.refresh.Trigger(a.baseCtx, restore)
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "restore": restore})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
