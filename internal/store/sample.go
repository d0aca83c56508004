package store

import "github.com/John-Robertt/bgpfilter-go/internal/model"

// SampleRules returns the demo rules used to seed a fresh session. Under
// the asn schema the chains are replaced by documentation AS numbers.
func SampleRules(schema model.Schema) []model.FilterRule {
	rs := []model.FilterRule{
		{
			Group:       "isp-HE-out",
			Prefix:      "23.145.224.0/24",
			Action:      model.ActionAccept,
			Description: "Announce prefix - CX Bradford Broadband",
			Comment:     "Announce prefix - CX Bradford Broadband",
		},
		{
			Group:       "bgp-in",
			Prefix:      "10.0.0.0/8",
			Action:      model.ActionReject,
			Description: "RFC 1918 space",
			Comment:     "Block private IP space",
		},
		{
			Group:       "bgp-out",
			Prefix:      "203.0.113.0/24",
			Action:      model.ActionAccept,
			Prepend:     1,
			Description: "Test network",
			Comment:     "Documentation network",
		},
	}
	asns := []string{"6939", "64496", "64497"}
	for i := range rs {
		rs[i].ID = model.NewID()
		if schema == model.SchemaASN {
			rs[i].Group = asns[i]
		}
	}
	return rs
}
