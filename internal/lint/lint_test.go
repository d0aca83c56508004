package lint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

func TestCheck_FindingsAndCoverage(t *testing.T) {
	rules := []model.FilterRule{
		{Group: "bgp-in", Prefix: "10.0.0.0/8", Action: model.ActionReject},
		{Group: "bgp-in", Prefix: "10.1.0.0/16", Action: model.ActionAccept},
		{Group: "bgp-in", Prefix: "10.0.0.0/8", Action: model.ActionReject},
		{Group: "bgp-out", Prefix: "203.0.113.0/25", Action: model.ActionAccept},
		{Group: "bgp-out", Prefix: "203.0.113.128/25", Action: model.ActionAccept},
		{Group: "bgp-out", Prefix: "10.1.0.0/16", Action: model.ActionDrop},
		{Group: "peer", Prefix: "192.0.2.0/24", Action: model.ActionAccept},
		{Group: "peer", Prefix: "192.0.2.0/24", Action: model.ActionReject},
	}

	rep, err := Check(rules)
	require.NoError(t, err)

	require.Len(t, rep.Findings, 4)
	require.Equal(t, Finding{Kind: KindConflict, Group: "bgp-in", First: 1, Second: 2, Message: rep.Findings[0].Message}, rep.Findings[0])
	require.Equal(t, KindDuplicate, rep.Findings[1].Kind)
	require.Equal(t, [2]int{1, 3}, [2]int{rep.Findings[1].First, rep.Findings[1].Second})
	require.Equal(t, KindConflict, rep.Findings[2].Kind)
	require.Equal(t, [2]int{2, 3}, [2]int{rep.Findings[2].First, rep.Findings[2].Second})
	// Same prefix with different actions is a conflict, not a duplicate.
	require.Equal(t, Finding{Kind: KindConflict, Group: "peer", First: 7, Second: 8, Message: rep.Findings[3].Message}, rep.Findings[3])
	require.Equal(t, 3, rep.Conflicts())

	require.Equal(t, []Coverage{
		{Group: "bgp-in", Accepted: []string{"10.1.0.0/16"}},
		{Group: "bgp-out", Accepted: []string{"203.0.113.0/24"}},
		{Group: "peer", Accepted: []string{"192.0.2.0/24"}},
	}, rep.Coverage)
}

func TestCheck_HostBitsMasked(t *testing.T) {
	rules := []model.FilterRule{
		{Group: "g", Prefix: "192.0.2.1/24", Action: model.ActionAccept},
		{Group: "g", Prefix: "192.0.2.0/24", Action: model.ActionAccept},
	}
	rep, err := Check(rules)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	require.Equal(t, KindDuplicate, rep.Findings[0].Kind)
}

func TestCheck_Empty(t *testing.T) {
	rep, err := Check(nil)
	require.NoError(t, err)
	require.Empty(t, rep.Findings)
	require.Empty(t, rep.Coverage)
	require.Zero(t, rep.Conflicts())
}
