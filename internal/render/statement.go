package render

import (
	"strconv"
	"strings"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
)

// actionTokens synthesizes the key=value tokens for a rule without a raw
// expression.
func actionTokens(r model.FilterRule, dropTarget string) string {
	if r.Action == model.ActionDrop {
		return "action=jump jump-target=" + dropTarget + " prefix=" + r.Prefix
	}
	return "action=" + string(r.Action) + " prefix=" + r.Prefix
}

// prependPath is the AS path used by LayoutASN: asn repeated n times.
func prependPath(asn string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = asn
	}
	return strings.Join(parts, ",")
}

func commentToken(label string) string {
	return "comment=" + routeros.Quote(label)
}

// chainStatement renders one rule for LayoutChain.
func chainStatement(r model.FilterRule, opt Options) string {
	var b strings.Builder
	b.WriteString(routeros.CommandPath)
	b.WriteString(" add chain=")
	b.WriteString(r.Group)
	if r.Expression != "" {
		b.WriteString(" rule=")
		b.WriteString(routeros.Quote(r.Expression))
	} else {
		b.WriteByte(' ')
		b.WriteString(actionTokens(r, opt.DropTarget))
		if r.Action == model.ActionAccept && r.Prepend > 0 {
			b.WriteString(" set-bgp-prepend-path=")
			b.WriteString(strconv.Itoa(r.Prepend))
		}
	}
	b.WriteByte(' ')
	b.WriteString(commentToken(chainLabel(r)))
	return b.String()
}

// asnStatement renders one rule for LayoutASN.
func asnStatement(r model.FilterRule, opt Options) string {
	var b strings.Builder
	b.WriteString(routeros.CommandPath)
	b.WriteString(" add chain=")
	b.WriteString(opt.Chain)
	b.WriteString(" remote-as=")
	b.WriteString(r.Group)
	b.WriteByte(' ')
	b.WriteString(actionTokens(r, opt.DropTarget))
	if r.Action == model.ActionAccept && r.Prepend > 0 {
		b.WriteString(" set-bgp-prepend-path=")
		b.WriteString(routeros.Quote(prependPath(r.Group, r.Prepend)))
	}
	b.WriteByte(' ')
	b.WriteString(commentToken(asnLabel(r)))
	return b.String()
}

func chainLabel(r model.FilterRule) string {
	if l := r.Label(); l != "" {
		return l
	}
	return r.Action.Title() + " prefix " + r.Prefix
}

func asnLabel(r model.FilterRule) string {
	if l := r.Label(); l != "" {
		return l
	}
	return r.Action.Title() + " AS" + r.Group + " prefix " + r.Prefix
}

// Expression builds the canonical raw filter expression for action and
// prefix, e.g. `if (dst == 10.0.0.0/8) { reject; }`.
func Expression(action model.Action, prefix, dropTarget string) string {
	if dropTarget == "" {
		dropTarget = routeros.DefaultDropTarget
	}
	body := string(action)
	switch action {
	case model.ActionDrop:
		body = "jump-target=" + dropTarget
	case model.ActionAccept, model.ActionReject:
	default:
		body = string(model.ActionAccept)
	}
	return "if (dst == " + prefix + ") { " + body + "; }"
}
