package render

import "github.com/John-Robertt/bgpfilter-go/internal/model"

// AddressListPath is the command path of address-list entries.
const AddressListPath = "/ip/firewall/address-list"

// renderByASN writes one address list per ASN, then all filter statements
// bucketed by action across every ASN.
func renderByASN(w *writer, rules []model.FilterRule, opt Options) {
	order, byGroup := groupOrder(rules)
	for _, asn := range order {
		w.line("# Address list for AS" + asn)
		seen := make(map[string]struct{})
		for _, r := range byGroup[asn] {
			if _, dup := seen[r.Prefix]; dup {
				continue
			}
			seen[r.Prefix] = struct{}{}
			w.line(AddressListPath + " add list=AS" + asn + " address=" + r.Prefix + " " + commentToken(asnLabel(r)))
		}
		w.line("")
	}

	bk := bucketize(rules)
	for _, action := range model.Actions {
		if len(bk[action]) == 0 {
			continue
		}
		w.line("# " + action.Title() + " filters")
		for _, r := range bk[action] {
			w.statement(asnStatement(r, opt))
		}
		w.line("")
	}
}
