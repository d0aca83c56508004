package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
)

type Layout string

const (
	// LayoutChain groups statements by chain, then by action.
	LayoutChain Layout = "chain"
	// LayoutASN emits one address list per ASN, then groups statements by action.
	LayoutASN Layout = "asn"
)

// ParseLayout accepts a layout name; "" means LayoutChain.
func ParseLayout(s string) (Layout, bool) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutChain:
		return LayoutChain, true
	case LayoutASN:
		return LayoutASN, true
	default:
		return "", false
	}
}

// LayoutFor returns the natural layout of a schema.
func LayoutFor(schema model.Schema) Layout {
	if schema == model.SchemaASN {
		return LayoutASN
	}
	return LayoutChain
}

type Options struct {
	Layout Layout

	// Chain is the filter chain used by LayoutASN statements.
	Chain string

	// DropTarget is the chain that drop rules jump to.
	DropTarget string

	// Location for the generation timestamp. Defaults to now's own location.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Layout == "" {
		o.Layout = LayoutChain
	}
	if o.Chain == "" {
		o.Chain = routeros.DefaultChain
	}
	if o.DropTarget == "" {
		o.DropTarget = routeros.DefaultDropTarget
	}
	return o
}

// Output is a rendered configuration document.
type Output struct {
	Text string

	// Body is the part of Text between the generated header and the example
	// peer boilerplate: banners and statements only.
	Body string

	Statements int // filter statements, excluding banners and boilerplate
}

// Empty reports the "nothing to export" outcome. Text is still a valid
// document in that case.
func (o Output) Empty() bool { return o.Statements == 0 }

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

const timestampLayout = "2006-01-02 15:04:05 MST"

// Render turns rules into RouterOS commands. Apart from the timestamp line
// the output depends only on rules and opt.
func Render(rules []model.FilterRule, now time.Time, opt Options) (Output, error) {
	opt = opt.withDefaults()
	if opt.Location != nil {
		now = now.In(opt.Location)
	}

	w := &writer{}
	w.line("# Generated BGP Filter Configuration for MikroTik RouterOS v7")
	w.line("# Generated on: " + now.Format(timestampLayout))
	w.line("")
	bodyStart := w.b.Len()

	switch opt.Layout {
	case LayoutChain:
		renderByChain(w, rules, opt)
	case LayoutASN:
		renderByASN(w, rules, opt)
	default:
		return Output{}, &RenderError{
			AppError: model.AppError{
				Code:    "UNSUPPORTED_LAYOUT",
				Message: fmt.Sprintf("不支持的 layout：%s", opt.Layout),
				Stage:   "render",
				Hint:    "expected: chain | asn",
			},
		}
	}

	bodyEnd := w.b.Len()
	w.line("# Example BGP peer configuration with filters")
	w.line("# Replace with your actual peer details")
	w.line("/routing/bgp/session add name=peer-1 remote.address=192.168.1.1 remote.as=65001 in.routing-filter=bgp-in")

	text := w.b.String()
	return Output{Text: text, Body: text[bodyStart:bodyEnd], Statements: w.statements}, nil
}

type writer struct {
	b          strings.Builder
	statements int
}

func (w *writer) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) statement(s string) {
	w.line(s)
	w.statements++
}

// buckets splits rules by action, keeping relative order.
type buckets map[model.Action][]model.FilterRule

func bucketize(rules []model.FilterRule) buckets {
	b := make(buckets, len(model.Actions))
	for _, r := range rules {
		b[r.Action] = append(b[r.Action], r)
	}
	return b
}

// groupOrder returns the distinct groups in first-seen order.
func groupOrder(rules []model.FilterRule) ([]string, map[string][]model.FilterRule) {
	var order []string
	byGroup := make(map[string][]model.FilterRule)
	for _, r := range rules {
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}
		byGroup[r.Group] = append(byGroup[r.Group], r)
	}
	return order, byGroup
}
