package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/John-Robertt/bgpfilter-go/internal/logging"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
)

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}

type positionedRule struct {
	Position int              `json:"position"`
	Rule     model.FilterRule `json:"rule"`
}

type listResponse struct {
	Schema model.Schema     `json:"schema"`
	Rules  []positionedRule `json:"rules"`
	Stats  model.Stats      `json:"stats"`
}

func (s *server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all := s.store.All()
	resp := listResponse{
		Schema: s.opt.Schema,
		Rules:  make([]positionedRule, 0, len(all)),
		Stats:  model.ComputeStats(all),
	}
	for i, rule := range all {
		resp.Rules = append(resp.Rules, positionedRule{Position: i + 1, Rule: rule})
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.store.Stats())
}

func (s *server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	rule, err := rules.Validate(req.form(), s.opt.Schema)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	rule.ID = model.NewID()
	s.store.Add(rule)
	logging.FromCtx(r.Context()).Info("rule added", zap.String("id", rule.ID), zap.String("group", rule.Group), zap.String("prefix", rule.Prefix))
	WriteJSON(w, http.StatusCreated, rule)
}

func (s *server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	rule, err := rules.Validate(req.form(), s.opt.Schema)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	updated, err := s.store.UpdateByID(id, rule)
	if err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	logging.FromCtx(r.Context()).Info("rule updated", zap.String("id", id))
	WriteJSON(w, http.StatusOK, updated)
}

func (s *server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.RemoveByID(id); err != nil {
		s.writeErrorFromErr(w, r, err)
		return
	}
	logging.FromCtx(r.Context()).Info("rule deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearRules(w http.ResponseWriter, r *http.Request) {
	n := s.store.Len()
	s.store.Clear()
	logging.FromCtx(r.Context()).Info("rules cleared", zap.Int("count", n))
	w.WriteHeader(http.StatusNoContent)
}
