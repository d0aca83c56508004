package httpapi

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

type server struct {
	opt     Options
	store   *store.Store
	metrics *apiMetrics
	limiter *rate.Limiter
}

func newServer(opt Options) *server {
	opt = opt.withDefaults()
	return &server{
		opt:     opt,
		store:   opt.Store,
		metrics: newAPIMetrics(opt.Registry, opt.Store),
		limiter: rate.NewLimiter(opt.ImportRate, opt.ImportBurst),
	}
}

// NewMux returns the bare router without the access log middleware.
func NewMux(opt Options) *http.ServeMux {
	return newServer(opt).mux()
}

func (s *server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleEditor)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("GET /api/rules", s.handleListRules)
	mux.HandleFunc("POST /api/rules", s.handleAddRule)
	mux.HandleFunc("DELETE /api/rules", s.handleClearRules)
	mux.HandleFunc("PUT /api/rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/rules/{id}", s.handleDeleteRule)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/lint", s.handleLint)
	return mux
}
