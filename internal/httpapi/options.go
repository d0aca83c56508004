package httpapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// Store holds the session's rules. A fresh empty store is used when nil.
	Store *store.Store

	// Schema decides what a rule's group means (chain name or ASN).
	Schema model.Schema

	DefaultChain string
	DropTarget   string

	// FetchTimeout bounds a single import-from-URL download.
	FetchTimeout time.Duration

	// ImportRate and ImportBurst shape the token bucket in front of
	// import-from-URL. ImportRate <= 0 means rate.Inf.
	ImportRate  rate.Limit
	ImportBurst int

	Logger *zap.Logger

	// Registry receives the API metrics and backs /metrics. A private
	// registry is created when nil.
	Registry *prometheus.Registry

	// Now and Location drive the "Generated on" line of exports.
	Now      func() time.Time
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Store == nil {
		o.Store = store.New()
	}
	if o.Schema == "" {
		o.Schema = model.SchemaChain
	}
	if o.DefaultChain == "" {
		o.DefaultChain = routeros.DefaultChain
	}
	if o.DropTarget == "" {
		o.DropTarget = routeros.DefaultDropTarget
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.ImportRate <= 0 {
		o.ImportRate = rate.Inf
	}
	if o.ImportBurst <= 0 {
		o.ImportBurst = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
