package model

import (
	"strings"

	"github.com/google/uuid"
)

// Action is the closed set of filter outcomes.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionDrop   Action = "drop"
)

// Actions lists every action in render bucket order.
var Actions = []Action{ActionAccept, ActionReject, ActionDrop}

// ParseAction accepts the three action keywords case-insensitively.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAccept:
		return ActionAccept, true
	case ActionReject:
		return ActionReject, true
	case ActionDrop:
		return ActionDrop, true
	default:
		return "", false
	}
}

// Title returns the capitalized action name used in banners and labels.
func (a Action) Title() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// Schema selects what FilterRule.Group means.
type Schema string

const (
	// SchemaChain keys rules by filter chain name.
	SchemaChain Schema = "chain"
	// SchemaASN keys rules by remote AS number.
	SchemaASN Schema = "asn"
)

// ParseSchema accepts "chain" or "asn" case-insensitively.
func ParseSchema(s string) (Schema, bool) {
	switch Schema(strings.ToLower(strings.TrimSpace(s))) {
	case SchemaChain:
		return SchemaChain, true
	case SchemaASN:
		return SchemaASN, true
	default:
		return "", false
	}
}

// UnknownASN is the group used when an imported line carries no AS number.
const UnknownASN = "unknown"

// FilterRule is one exported routing filter statement.
type FilterRule struct {
	ID string `json:"id" yaml:"-"`

	// Group is the chain name or the remote ASN, depending on the schema.
	Group  string `json:"group" yaml:"group"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Action Action `json:"action" yaml:"action"`

	// Prepend is 0 when unset, otherwise 1..10. Only meaningful for accept.
	Prepend int `json:"prepend,omitempty" yaml:"prepend,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// Expression is a raw RouterOS filter expression. When set it replaces
	// the synthesized action/prefix tokens on output. Its syntax is not checked.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Label returns the display label: description, then comment.
func (r FilterRule) Label() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Comment
}

// NewID mints a process-unique rule id.
func NewID() string {
	return uuid.NewString()
}

// Stats is the summary shown next to the rule table.
type Stats struct {
	Total             int `json:"total"`
	Accepted          int `json:"accepted"`
	RejectedOrDropped int `json:"rejectedOrDropped"`
	Groups            int `json:"groups"`
}

// ComputeStats counts actions and distinct groups.
func ComputeStats(rules []FilterRule) Stats {
	st := Stats{Total: len(rules)}
	groups := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		switch r.Action {
		case ActionAccept:
			st.Accepted++
		case ActionReject, ActionDrop:
			st.RejectedOrDropped++
		}
		groups[r.Group] = struct{}{}
	}
	st.Groups = len(groups)
	return st
}
