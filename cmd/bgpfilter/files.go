package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/John-Robertt/bgpfilter-go/internal/fetch"
	"github.com/John-Robertt/bgpfilter-go/internal/lint"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/render"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
	"github.com/John-Robertt/bgpfilter-go/internal/rulefile"
	"github.com/John-Robertt/bgpfilter-go/internal/template"
)

// readInput reads the named file, or stdin for "" and "-".
func readInput(env cliEnv, name string) (string, string, error) {
	if name == "" || name == "-" {
		b, err := io.ReadAll(env.stdin)
		return "<stdin>", string(b), err
	}
	b, err := os.ReadFile(name)
	return name, string(b), err
}

func oneArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("expected at most one file argument, got %d", len(args))
	}
}

func loadRuleFile(env cliEnv, args []string) (*rulefile.Document, error) {
	name, err := oneArg(args)
	if err != nil {
		return nil, err
	}
	source, text, err := readInput(env, name)
	if err != nil {
		return nil, err
	}
	return rulefile.Parse(source, text)
}

func newImportCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter import", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	schemaFlag := fs.String("schema", string(model.SchemaChain), "规则分组方式：chain | asn")
	url := fs.String("url", "", "从 http/https URL 拉取 RouterOS 配置")
	defaultChain := fs.String("default-chain", routeros.DefaultChain, "缺省 filter chain")
	dropTarget := fs.String("drop-target", routeros.DefaultDropTarget, "drop 规则跳转的 chain")
	fetchTimeout := fs.Duration("fetch-timeout", fetch.DefaultTimeout, "URL 拉取超时")

	return &ffcli.Command{
		Name:       "import",
		ShortUsage: "bgpfilter import [flags] [file|-]",
		ShortHelp:  "把 RouterOS 命令转换为 YAML 规则文件（输出到 stdout）",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			schema, ok := model.ParseSchema(*schemaFlag)
			if !ok {
				return fmt.Errorf("invalid -schema %q (expected chain|asn)", *schemaFlag)
			}

			var text string
			if *url != "" {
				if len(args) > 0 {
					return fmt.Errorf("-url and a file argument are mutually exclusive")
				}
				t, err := fetch.Text(ctx, *url, fetch.Options{Timeout: *fetchTimeout})
				if err != nil {
					return err
				}
				text = t
			} else {
				name, err := oneArg(args)
				if err != nil {
					return err
				}
				if _, text, err = readInput(env, name); err != nil {
					return err
				}
			}

			res := routeros.ParseText(text, routeros.Options{
				Schema:       schema,
				DefaultChain: *defaultChain,
				DropTarget:   *dropTarget,
			})
			fmt.Fprintln(env.stderr, res.Message())
			if len(res.Skipped) > 0 {
				fmt.Fprintf(env.stderr, "skipped lines: %s\n", joinInts(res.Skipped))
			}
			if schema == model.SchemaASN {
				if n := countGroup(res.Imported, model.UnknownASN); n > 0 {
					fmt.Fprintf(env.stderr, "%d 条规则缺少 remote-as，group 记为 %s\n", n, model.UnknownASN)
				}
			}
			return rulefile.Write(env.stdout, rulefile.Document{Schema: schema, Rules: res.Imported})
		},
	}
}

func countGroup(rs []model.FilterRule, group string) int {
	n := 0
	for _, r := range rs {
		if r.Group == group {
			n++
		}
	}
	return n
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func newRenderCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter render", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	layoutFlag := fs.String("layout", "", "输出布局：chain | asn（缺省跟随规则文件的 schema）")
	chain := fs.String("chain", routeros.DefaultChain, "asn 布局下 filter 规则所在的 chain")
	dropTarget := fs.String("drop-target", routeros.DefaultDropTarget, "drop 规则跳转的 chain")
	tmplPath := fs.String("template", "", "RouterOS 脚本模板，生成的规则替换其中的 "+template.Anchor+" 行")

	return &ffcli.Command{
		Name:       "render",
		ShortUsage: "bgpfilter render [flags] [file.yaml|-]",
		ShortHelp:  "把 YAML 规则文件生成为 RouterOS 命令",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := loadRuleFile(env, args)
			if err != nil {
				return err
			}
			layout := render.LayoutFor(doc.Schema)
			if *layoutFlag != "" {
				l, ok := render.ParseLayout(*layoutFlag)
				if !ok {
					return fmt.Errorf("invalid -layout %q (expected chain|asn)", *layoutFlag)
				}
				layout = l
			}
			out, err := render.Render(doc.Rules, time.Now(), render.Options{
				Layout:     layout,
				Chain:      *chain,
				DropTarget: *dropTarget,
			})
			if err != nil {
				return err
			}
			if out.Empty() {
				fmt.Fprintln(env.stderr, "没有可生成的规则")
			}
			text := out.Text
			if *tmplPath != "" {
				b, err := os.ReadFile(*tmplPath)
				if err != nil {
					return err
				}
				if text, err = template.Inject(string(b), out.Body, *tmplPath); err != nil {
					return err
				}
			}
			_, err = io.WriteString(env.stdout, text)
			return err
		},
	}
}

func newLintCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter lint", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	coverage := fs.Bool("coverage", false, "同时输出每个分组 accept 的地址空间")

	return &ffcli.Command{
		Name:       "lint",
		ShortUsage: "bgpfilter lint [flags] [file.yaml|-]",
		ShortHelp:  "检查重复与动作冲突的前缀（存在冲突时返回非零）",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := loadRuleFile(env, args)
			if err != nil {
				return err
			}
			rep, err := lint.Check(doc.Rules)
			if err != nil {
				return err
			}
			for _, f := range rep.Findings {
				fmt.Fprintf(env.stdout, "%s\t%s\t%s\n", f.Kind, f.Group, f.Message)
			}
			if *coverage {
				for _, c := range rep.Coverage {
					fmt.Fprintf(env.stdout, "coverage\t%s\t%s\n", c.Group, strings.Join(c.Accepted, " "))
				}
			}
			if n := rep.Conflicts(); n > 0 {
				return fmt.Errorf("%d conflicting rule pairs", n)
			}
			return nil
		},
	}
}

func newListCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter list", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	noColor := fs.Bool("no-color", false, "禁用颜色输出")

	return &ffcli.Command{
		Name:       "list",
		ShortUsage: "bgpfilter list [flags] [file.yaml|-]",
		ShortHelp:  "以表格列出规则文件中的规则与统计",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := loadRuleFile(env, args)
			if err != nil {
				return err
			}
			writeTable(env.stdout, doc, !*noColor && !color.NoColor)
			return nil
		},
	}
}

func writeTable(w io.Writer, doc *rulefile.Document, colored bool) {
	accept := color.New(color.FgGreen)
	deny := color.New(color.FgRed)
	header := color.New(color.FgHiBlack)
	if !colored {
		accept.DisableColor()
		deny.DisableColor()
		header.DisableColor()
	}

	groupTitle := "CHAIN"
	if doc.Schema == model.SchemaASN {
		groupTitle = "ASN"
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"#", groupTitle, "PREFIX", "ACTION", "PREPEND", "DESCRIPTION"})
	for i, r := range doc.Rules {
		act := deny
		if r.Action == model.ActionAccept {
			act = accept
		}
		prepend := ""
		if r.Prepend > 0 {
			prepend = strconv.Itoa(r.Prepend)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Group,
			r.Prefix,
			act.Sprint(r.Action.Title()),
			prepend,
			r.Label(),
		})
	}
	table.Render()

	st := model.ComputeStats(doc.Rules)
	header.Fprintf(w, "total=%d accepted=%d rejected/dropped=%d groups=%d\n",
		st.Total, st.Accepted, st.RejectedOrDropped, st.Groups)
}
