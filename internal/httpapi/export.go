package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/John-Robertt/bgpfilter-go/internal/lint"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/render"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
	"github.com/John-Robertt/bgpfilter-go/internal/template"
)

func (s *server) layout(raw string) (render.Layout, error) {
	if strings.TrimSpace(raw) == "" {
		return render.LayoutFor(s.opt.Schema), nil
	}
	l, ok := render.ParseLayout(raw)
	if !ok {
		return "", requestError("INVALID_ARGUMENT", "不支持的 layout（仅支持 chain/asn）", raw)
	}
	return l, nil
}

func (s *server) render(rs []model.FilterRule, layout render.Layout) (render.Output, error) {
	return render.Render(rs, s.opt.Now(), render.Options{
		Layout:     layout,
		Chain:      s.opt.DefaultChain,
		DropTarget: s.opt.DropTarget,
		Location:   s.opt.Location,
	})
}

func writeRendered(w http.ResponseWriter, count int, out render.Output) {
	w.Header().Set("X-Filter-Count", strconv.Itoa(count))
	w.Header().Set("Cache-Control", "no-store")
	if out.Empty() {
		w.Header().Set("X-Filter-Empty", "1")
	}
	WriteText(w, http.StatusOK, out.Text)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	layout, err := s.layout(q.Get("layout"))
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	if q.Has("fileName") {
		if err := setAttachmentHeaders(w, q.Get("fileName")); err != nil {
			s.writeErrorFromErr(w, r, err)
			return
		}
	}

	rs := s.store.All()
	out, err := s.render(rs, layout)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	writeRendered(w, len(rs), out)
}

type renderRequest struct {
	Layout string        `json:"layout"`
	Rules  []ruleRequest `json:"rules"`

	// Template, when set, receives the generated statements at its anchor
	// line instead of the standalone document.
	Template string `json:"template"`
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	layout, err := s.layout(req.Layout)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}

	rs := make([]model.FilterRule, 0, len(req.Rules))
	for i, rr := range req.Rules {
		rule, err := rules.Validate(rr.form(), s.opt.Schema)
		if err != nil {
			s.writeErrorFromErr(w, r, indexedValidationError(i, err))
			return
		}
		rs = append(rs, rule)
	}

	out, err := s.render(rs, layout)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	if req.Template != "" {
		text, err := template.Inject(req.Template, out.Body, "request")
		if err != nil {
			s.writeErrorFromErr(w, r, err)
			return
		}
		out.Text = text
	}
	writeRendered(w, len(rs), out)
}

func (s *server) handleLint(w http.ResponseWriter, r *http.Request) {
	rep, err := lint.Check(s.store.All())
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	if rep.Findings == nil {
		rep.Findings = []lint.Finding{}
	}
	if rep.Coverage == nil {
		rep.Coverage = []lint.Coverage{}
	}
	WriteJSON(w, http.StatusOK, rep)
}
