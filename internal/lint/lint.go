// Package lint reports prefix overlaps between filter rules.
package lint

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

type Kind string

const (
	// KindDuplicate: the same prefix and action appear more than once in a group.
	KindDuplicate Kind = "duplicate"
	// KindConflict: overlapping or equal prefixes in a group carry different actions.
	KindConflict Kind = "conflict"
)

// Finding names two rules by their 1-based store positions.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Group   string `json:"group"`
	First   int    `json:"first"`
	Second  int    `json:"second"`
	Message string `json:"message"`
}

// Coverage is the accepted address space of one group, aggregated.
type Coverage struct {
	Group    string   `json:"group"`
	Accepted []string `json:"accepted"`
}

// Report lists findings in group order, then pair order.
type Report struct {
	Findings []Finding  `json:"findings"`
	Coverage []Coverage `json:"coverage"`
}

// Conflicts counts conflict findings.
func (r Report) Conflicts() int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == KindConflict {
			n++
		}
	}
	return n
}

type indexed struct {
	pos    int
	rule   model.FilterRule
	prefix netip.Prefix
}

// Check inspects rules pairwise within each group. Rules whose prefix does
// not parse are ignored.
func Check(rules []model.FilterRule) (Report, error) {
	var order []string
	byGroup := make(map[string][]indexed)
	for i, r := range rules {
		p, err := netip.ParsePrefix(r.Prefix)
		if err != nil || !p.Addr().Is4() {
			continue
		}
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}
		byGroup[r.Group] = append(byGroup[r.Group], indexed{pos: i + 1, rule: r, prefix: p.Masked()})
	}

	var rep Report
	for _, g := range order {
		items := byGroup[g]
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				a, b := items[i], items[j]
				switch {
				case a.prefix.Overlaps(b.prefix) && a.rule.Action != b.rule.Action:
					rep.Findings = append(rep.Findings, Finding{
						Kind:    KindConflict,
						Group:   g,
						First:   a.pos,
						Second:  b.pos,
						Message: fmt.Sprintf("#%d（%s %s）与 #%d（%s %s）重叠且动作不同", a.pos, a.rule.Action, a.prefix, b.pos, b.rule.Action, b.prefix),
					})
				case a.prefix == b.prefix:
					rep.Findings = append(rep.Findings, Finding{
						Kind:    KindDuplicate,
						Group:   g,
						First:   a.pos,
						Second:  b.pos,
						Message: fmt.Sprintf("#%d 与 #%d 的前缀相同（%s）", a.pos, b.pos, a.prefix),
					})
				}
			}
		}

		var sb netipx.IPSetBuilder
		for _, it := range items {
			if it.rule.Action == model.ActionAccept {
				sb.AddPrefix(it.prefix)
			}
		}
		set, err := sb.IPSet()
		if err != nil {
			return Report{}, err
		}
		cov := Coverage{Group: g, Accepted: []string{}}
		for _, p := range set.Prefixes() {
			cov.Accepted = append(cov.Accepted, p.String())
		}
		rep.Coverage = append(rep.Coverage, cov)
	}
	return rep, nil
}
