// Package rulefile reads and writes rule sets as YAML documents:
//
//	version: 1
//	schema: chain
//	rules:
//	  - group: bgp-in
//	    prefix: 10.0.0.0/8
//	    action: reject
//
// Every rule goes through the same validation as the form path.
package rulefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
)

const Version = 1

type Document struct {
	Schema model.Schema
	Rules  []model.FilterRule
}

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

type rawDocument struct {
	Version int       `yaml:"version"`
	Schema  string    `yaml:"schema"`
	Rules   []rawRule `yaml:"rules"`
}

type rawRule struct {
	Group       string `yaml:"group"`
	Prefix      string `yaml:"prefix"`
	Action      string `yaml:"action"`
	Prepend     int    `yaml:"prepend"`
	Description string `yaml:"description"`
	Comment     string `yaml:"comment"`
	Expression  string `yaml:"expression"`
}

// Parse decodes and validates a rule document. source is only used in
// error payloads. Rules receive fresh ids.
func Parse(source string, content string) (*Document, error) {
	var rd rawDocument
	if err := yamlDecodeStrict(content, &rd); err != nil {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "RULEFILE_PARSE_ERROR",
				Message: "规则文件 YAML 解析失败",
				Stage:   "parse_rulefile",
				URL:     source,
				Snippet: truncateSnippet(content, 200),
			},
			Cause: err,
		}
	}

	if rd.Version != Version {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "RULEFILE_VALIDATE_ERROR",
				Message: "规则文件 version 必须为 1",
				Stage:   "parse_rulefile",
				URL:     source,
			},
		}
	}

	schema := model.SchemaChain
	if strings.TrimSpace(rd.Schema) != "" {
		s, ok := model.ParseSchema(rd.Schema)
		if !ok {
			return nil, &ParseError{
				AppError: model.AppError{
					Code:    "RULEFILE_VALIDATE_ERROR",
					Message: fmt.Sprintf("不支持的 schema：%s", rd.Schema),
					Stage:   "parse_rulefile",
					URL:     source,
					Hint:    "expected: chain | asn",
				},
			}
		}
		schema = s
	}

	lines := ruleLines(content)
	doc := &Document{Schema: schema, Rules: make([]model.FilterRule, 0, len(rd.Rules))}
	for i, rr := range rd.Rules {
		r, err := rules.ValidateStored(rr.form(), schema)
		if err != nil {
			app := model.AppError{
				Code:    "RULEFILE_VALIDATE_ERROR",
				Message: fmt.Sprintf("第 %d 条规则校验失败", i+1),
				Stage:   "parse_rulefile",
				URL:     source,
			}
			if i < len(lines) {
				app.Line = lines[i]
			}
			var ve *rules.ValidationError
			if errors.As(err, &ve) {
				app.Fields = ve.Fields
			}
			return nil, &ParseError{AppError: app, Cause: err}
		}
		r.ID = model.NewID()
		doc.Rules = append(doc.Rules, r)
	}
	return doc, nil
}

func (rr rawRule) form() rules.Form {
	f := rules.Form{
		Group:       rr.Group,
		Prefix:      rr.Prefix,
		Action:      rr.Action,
		Description: rr.Description,
		Comment:     rr.Comment,
		Expression:  rr.Expression,
	}
	if rr.Prepend != 0 {
		f.Prepend = strconv.Itoa(rr.Prepend)
	}
	return f
}

type outDocument struct {
	Version int                `yaml:"version"`
	Schema  model.Schema       `yaml:"schema"`
	Rules   []model.FilterRule `yaml:"rules"`
}

// Write encodes doc. Ids are process-local and are not written.
func Write(w io.Writer, doc Document) error {
	if doc.Schema == "" {
		doc.Schema = model.SchemaChain
	}
	rs := doc.Rules
	if rs == nil {
		rs = []model.FilterRule{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(outDocument{Version: Version, Schema: doc.Schema, Rules: rs}); err != nil {
		return err
	}
	return enc.Close()
}

// Marshal is Write into a string.
func Marshal(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ruleLines returns the 1-based source line of each entry under "rules".
func ruleLines(content string) []int {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil || len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != "rules" || m.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		seq := m.Content[i+1].Content
		out := make([]int, 0, len(seq))
		for _, n := range seq {
			out = append(out, n.Line)
		}
		return out
	}
	return nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
