package render

import "github.com/John-Robertt/bgpfilter-go/internal/model"

func renderByChain(w *writer, rules []model.FilterRule, opt Options) {
	order, byGroup := groupOrder(rules)
	for _, chain := range order {
		bk := bucketize(byGroup[chain])
		for _, action := range model.Actions {
			if len(bk[action]) == 0 {
				continue
			}
			w.line("# " + action.Title() + " filters for chain " + chain)
			for _, r := range bk[action] {
				w.statement(chainStatement(r, opt))
			}
			w.line("")
		}
	}
}
