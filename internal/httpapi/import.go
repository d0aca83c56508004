package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/bgpfilter-go/internal/fetch"
	"github.com/John-Robertt/bgpfilter-go/internal/logging"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
)

type importRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type importResponse struct {
	ImportedCount int                `json:"importedCount"`
	Imported      []model.FilterRule `json:"imported"`
	Lines         int                `json:"lines"`
	Candidates    int                `json:"candidates"`
	Skipped       []int              `json:"skipped"`
	Message       string             `json:"message"`
}

func newImportResponse(res routeros.Result) importResponse {
	out := importResponse{
		ImportedCount: res.ImportedCount(),
		Imported:      res.Imported,
		Lines:         res.Lines,
		Candidates:    res.Candidates,
		Skipped:       res.Skipped,
		Message:       res.Message(),
	}
	if out.Imported == nil {
		out.Imported = []model.FilterRule{}
	}
	if out.Skipped == nil {
		out.Skipped = []int{}
	}
	return out
}

// parseRequest resolves the request body to configuration text and parses it.
func (s *server) parseRequest(w http.ResponseWriter, r *http.Request) (routeros.Result, error) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return routeros.Result{}, err
	}

	text := req.Text
	if u := strings.TrimSpace(req.URL); u != "" {
		if strings.TrimSpace(req.Text) != "" {
			return routeros.Result{}, requestError("INVALID_ARGUMENT", "text 与 url 只能二选一", "")
		}
		if !s.limiter.Allow() {
			return routeros.Result{}, apiError(http.StatusTooManyRequests, model.AppError{
				Code:    "RATE_LIMITED",
				Message: "导入请求过于频繁，请稍后再试",
				Stage:   fetch.Stage,
				URL:     u,
			}, nil)
		}
		fetched, err := fetch.Text(r.Context(), u, fetch.Options{Timeout: s.opt.FetchTimeout})
		if err != nil {
			return routeros.Result{}, err
		}
		text = fetched
	}

	return routeros.ParseText(text, routeros.Options{
		Schema:       s.opt.Schema,
		DefaultChain: s.opt.DefaultChain,
		DropTarget:   s.opt.DropTarget,
	}), nil
}

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRequest(w, r)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	s.store.Append(res.Imported...)
	s.metrics.imported.Add(float64(res.ImportedCount()))

	logging.FromCtx(r.Context()).Info("import",
		zap.Int("lines", res.Lines),
		zap.Int("candidates", res.Candidates),
		zap.Int("imported", res.ImportedCount()),
		zap.Int("skipped", len(res.Skipped)),
	)
	WriteJSON(w, http.StatusOK, newImportResponse(res))
}

// handleParse is handleImport without touching the store.
func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRequest(w, r)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newImportResponse(res))
}
