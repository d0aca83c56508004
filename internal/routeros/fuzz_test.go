package routeros

import (
	"testing"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
)

func FuzzParseText(f *testing.F) {
	seed := []string{
		"",
		"  \n",
		"# comment",
		`/routing/filter/rule add chain=bgp-in action=accept prefix=10.1.0.0/16 comment="x"`,
		`/routing/filter/rule add chain=bgp-in rule="if (dst == 10.0.0.0/8) { reject; }"`,
		`/routing/filter/rule add remote-as=65001 action=accept prefix=1.2.3.0/24 set-bgp-prepend-path="65001,65001"`,
		"/routing/filter/rule add chain=x \\\n prefix=1.2.3.4/32",
		`/routing/filter/rule add prefix=999.1.1.1/8`,
		`/routing/filter/rule add comment="unterminated`,
	}
	for _, s := range seed {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, text string) {
		for _, schema := range []model.Schema{model.SchemaChain, model.SchemaASN} {
			res := ParseText(text, Options{Schema: schema})
			if res.ImportedCount()+len(res.Skipped) != res.Candidates {
				t.Fatalf("imported=%d skipped=%d candidates=%d", res.ImportedCount(), len(res.Skipped), res.Candidates)
			}
			for _, r := range res.Imported {
				if r.ID == "" || r.Group == "" {
					t.Fatalf("missing id/group: %+v", r)
				}
				if err := rules.ValidatePrefix(r.Prefix); err != nil {
					t.Fatalf("invalid prefix %q entered result: %v", r.Prefix, err)
				}
				if _, ok := model.ParseAction(string(r.Action)); !ok {
					t.Fatalf("action outside closed set: %q", r.Action)
				}
				if r.Prepend != 0 && (r.Action != model.ActionAccept || r.Prepend > rules.MaxPrepend) {
					t.Fatalf("bad prepend: %+v", r)
				}
			}
		}
	})
}
