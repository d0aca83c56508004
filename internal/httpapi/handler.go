package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/John-Robertt/bgpfilter-go/internal/logging"
)

// requestIDHeader is echoed back on every response and attached to every
// log line written while serving the request.
const requestIDHeader = "X-Request-Id"

// NewHandler returns the production handler: the mux wrapped in access
// logging, request ids and request metrics. Tests mostly use NewMux.
func NewHandler(opt Options) http.Handler {
	s := newServer(opt)
	return s.withObservability(s.mux())
}

// recorder remembers what a handler wrote so the middleware can report it.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *recorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

func (rec *recorder) code() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// requestID keeps a sane client-supplied id and mints one otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" && len(id) <= 64 {
		return id
	}
	return uuid.NewString()
}

func quietPath(p string) bool {
	return p == "/healthz" || p == "/metrics"
}

func (s *server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r)
		w.Header().Set(requestIDHeader, id)

		log := s.opt.Logger.With(zap.String("req", id))
		r = r.WithContext(logging.CtxWith(r.Context(), log))
		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		// r.Pattern is empty for 404/405 from the mux; a fixed label keeps
		// the metric low-cardinality.
		pattern := r.Pattern
		if pattern == "" {
			pattern = "(unmatched)"
		}
		s.metrics.incRequest(pattern, rec.code())

		if quietPath(r.URL.Path) {
			return
		}
		// Path only: import URLs in the query may carry credentials.
		log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("pattern", pattern),
			zap.Int("status", rec.code()),
			zap.Duration("dur", time.Since(start).Round(time.Millisecond)),
			zap.Int("bytes", rec.bytes),
		)
	})
}
