package routeros

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
)

// Options controls how lines are read; the zero value parses the chain schema.
type Options struct {
	// Schema decides whether the group comes from chain= or remote-as=.
	Schema model.Schema

	// DefaultChain is used when a line has no chain= token (chain schema).
	DefaultChain string

	// DropTarget is the jump target that means "drop".
	DropTarget string

	// NewID mints rule ids. Defaults to model.NewID.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Schema == "" {
		o.Schema = model.SchemaChain
	}
	if o.DefaultChain == "" {
		o.DefaultChain = DefaultChain
	}
	if o.DropTarget == "" {
		o.DropTarget = DefaultDropTarget
	}
	if o.NewID == nil {
		o.NewID = model.NewID
	}
	return o
}

// Result is the outcome of one import. Nothing in it is an error: lines that
// do not parse are only counted.
type Result struct {
	Imported []model.FilterRule

	Lines      int   // non-blank logical lines
	Candidates int   // lines carrying CommandPath
	Skipped    []int // 1-based line numbers of candidates that produced no rule
}

func (r Result) ImportedCount() int { return len(r.Imported) }

// Empty reports the "nothing imported" outcome.
func (r Result) Empty() bool { return len(r.Imported) == 0 }

// Message is the user-facing summary of the import.
func (r Result) Message() string {
	switch {
	case r.Lines == 0:
		return "请先粘贴 RouterOS 命令"
	case r.Empty():
		return "输入中没有找到有效的 BGP filter 命令"
	default:
		return fmt.Sprintf("成功导入 %d 条规则", len(r.Imported))
	}
}

// ParseText extracts filter rules from pasted configuration text. Each
// logical line is handled on its own; trailing-backslash continuations as
// written by /export are joined first.
func ParseText(text string, opt Options) Result {
	opt = opt.withDefaults()

	var res Result
	for _, ln := range logicalLines(text) {
		res.Lines++
		if !strings.Contains(ln.text, CommandPath) {
			continue
		}
		res.Candidates++

		r, ok := parseLine(ln.text, opt)
		if !ok {
			res.Skipped = append(res.Skipped, ln.number)
			continue
		}
		r.ID = opt.NewID()
		res.Imported = append(res.Imported, r)
	}
	return res
}

type logicalLine struct {
	number int // 1-based physical line where it starts
	text   string
}

func logicalLines(text string) []logicalLine {
	raw := strings.Split(text, "\n")
	out := make([]logicalLine, 0, len(raw))

	var cur strings.Builder
	start := 0
	for i, l := range raw {
		l = strings.TrimSpace(strings.TrimSuffix(l, "\r"))
		if cur.Len() == 0 {
			start = i + 1
		} else {
			cur.WriteByte(' ')
		}
		if strings.HasSuffix(l, `\`) {
			cur.WriteString(strings.TrimSpace(strings.TrimSuffix(l, `\`)))
			continue
		}
		cur.WriteString(l)
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, logicalLine{number: start, text: s})
		}
		cur.Reset()
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, logicalLine{number: start, text: s})
	}
	return out
}

var (
	quotedValue = `"((?:[^"\\]|\\.)*)"`

	commentRe    = regexp.MustCompile(`(?i)(?:^|\s)comment=` + quotedValue)
	expressionRe = regexp.MustCompile(`(?i)(?:^|\s)rule=` + quotedValue)
	maskRe       = regexp.MustCompile(`(?i)((?:^|\s)(?:comment|rule)=)"(?:[^"\\]|\\.)*"`)

	chainRe   = regexp.MustCompile(`(?i)(?:^|\s)chain=([^\s"]+)`)
	asnRe     = regexp.MustCompile(`(?i)(?:^|\s)remote(?:-as|\.as)=(?:AS)?(\d+)`)
	prefixRe  = regexp.MustCompile(`(?i)(?:^|\s)prefix=(\S+)`)
	actionRe  = regexp.MustCompile(`(?i)(?:^|\s)action=(accept|reject|drop)\b`)
	jumpRe    = regexp.MustCompile(`(?i)(?:^|\s)jump-target=([^\s;"]+)`)
	prependRe = regexp.MustCompile(`(?i)(?:^|\s)set-bgp-prepend-path=("[^"]*"|\S+)`)

	exprPrefixRe = regexp.MustCompile(`dst\s*==\s*(\d{1,3}(?:\.\d{1,3}){3}/\d{1,2}|\[[0-9a-fA-F:.]+\]/\d+)`)
	exprActionRe = regexp.MustCompile(`(?i)\{\s*(accept|reject)\s*;`)
	exprJumpRe   = regexp.MustCompile(`(?i)jump-target\s*=\s*([^\s;}]+)`)
)

// lineFields holds the optional matches of one line.
type lineFields struct {
	group      string
	prefix     string
	action     model.Action
	prepend    int
	comment    string
	hasComment bool
	expression string
}

// extractor fills at most one field. They run in order and never fail.
type extractor func(line, bare string, opt Options, f *lineFields)

var extractors = []extractor{
	extractGroup,
	extractPrefix,
	extractAction,
	extractPrepend,
	extractComment,
	extractExpression,
	prefixFromExpression,
	actionFromExpression,
}

func parseLine(line string, opt Options) (model.FilterRule, bool) {
	// Quoted values may contain anything, including text that looks like
	// key=value tokens; the bare form masks them out.
	bare := maskRe.ReplaceAllString(line, `${1}""`)

	var f lineFields
	for _, ex := range extractors {
		ex(line, bare, opt, &f)
	}

	if f.group == "" && f.prefix == "" {
		return model.FilterRule{}, false
	}
	if f.prefix != "" && rules.ValidatePrefix(f.prefix) != nil {
		return model.FilterRule{}, false
	}

	r := model.FilterRule{
		Group:       f.group,
		Prefix:      f.prefix,
		Action:      f.action,
		Prepend:     f.prepend,
		Description: DefaultDescription,
		Comment:     DefaultComment,
		Expression:  f.expression,
	}
	if r.Group == "" {
		if opt.Schema == model.SchemaASN {
			r.Group = model.UnknownASN
		} else {
			r.Group = opt.DefaultChain
		}
	}
	if r.Prefix == "" {
		r.Prefix = DefaultPrefix
	}
	if r.Action == "" {
		r.Action = model.ActionAccept
	}
	if f.hasComment {
		r.Description = f.comment
		r.Comment = f.comment
	}
	if r.Action != model.ActionAccept {
		r.Prepend = 0
	}
	return r, true
}

func extractGroup(_, bare string, opt Options, f *lineFields) {
	re := chainRe
	if opt.Schema == model.SchemaASN {
		re = asnRe
	}
	if m := re.FindStringSubmatch(bare); m != nil {
		f.group = m[1]
	}
}

func extractPrefix(_, bare string, _ Options, f *lineFields) {
	if m := prefixRe.FindStringSubmatch(bare); m != nil {
		f.prefix = m[1]
	}
}

func extractAction(_, bare string, opt Options, f *lineFields) {
	if m := actionRe.FindStringSubmatch(bare); m != nil {
		f.action, _ = model.ParseAction(m[1])
		return
	}
	if m := jumpRe.FindStringSubmatch(bare); m != nil && strings.EqualFold(m[1], opt.DropTarget) {
		f.action = model.ActionDrop
	}
}

// extractPrepend reads either a plain count (set-bgp-prepend-path=2) or an
// AS path list ("65001,65001"), whose length is the count.
func extractPrepend(_, bare string, _ Options, f *lineFields) {
	m := prependRe.FindStringSubmatch(bare)
	if m == nil {
		return
	}
	v := m[1]
	n := 0
	if strings.HasPrefix(v, `"`) {
		v = strings.Trim(v, `"`)
		for _, p := range strings.Split(v, ",") {
			if strings.TrimSpace(p) != "" {
				n++
			}
		}
	} else if x, err := strconv.Atoi(v); err == nil {
		n = x
	}
	if n >= rules.MinPrepend && n <= rules.MaxPrepend {
		f.prepend = n
	}
}

func extractComment(line, _ string, _ Options, f *lineFields) {
	if m := commentRe.FindStringSubmatch(line); m != nil {
		f.comment = unquoteBody(m[1])
		f.hasComment = true
	}
}

func extractExpression(line, _ string, opt Options, f *lineFields) {
	if opt.Schema != model.SchemaChain {
		return
	}
	if m := expressionRe.FindStringSubmatch(line); m != nil {
		f.expression = unquoteBody(m[1])
	}
}

func prefixFromExpression(_, _ string, _ Options, f *lineFields) {
	if f.prefix != "" || f.expression == "" {
		return
	}
	if m := exprPrefixRe.FindStringSubmatch(f.expression); m != nil {
		f.prefix = m[1]
	}
}

func actionFromExpression(_, _ string, opt Options, f *lineFields) {
	if f.action != "" || f.expression == "" {
		return
	}
	if m := exprJumpRe.FindStringSubmatch(f.expression); m != nil && strings.EqualFold(m[1], opt.DropTarget) {
		f.action = model.ActionDrop
		return
	}
	if m := exprActionRe.FindStringSubmatch(f.expression); m != nil {
		f.action, _ = model.ParseAction(m[1])
	}
}
