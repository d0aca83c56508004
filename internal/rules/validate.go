package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

// Form is a rule as typed by a user: every field is raw text.
type Form struct {
	Group       string `json:"group"`
	Prefix      string `json:"prefix"`
	Action      string `json:"action"`
	Prepend     string `json:"prepend"`
	Description string `json:"description"`
	Comment     string `json:"comment"`
	Expression  string `json:"expression"`
}

// FormFromRule converts a stored rule back into editable form fields.
func FormFromRule(r model.FilterRule) Form {
	f := Form{
		Group:       r.Group,
		Prefix:      r.Prefix,
		Action:      string(r.Action),
		Description: r.Description,
		Comment:     r.Comment,
		Expression:  r.Expression,
	}
	if r.Prepend > 0 {
		f.Prepend = strconv.Itoa(r.Prepend)
	}
	return f
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "RULE_VALIDATE_ERROR: " + strings.Join(parts, "; ")
}

// AppError renders the validation failure as an API payload.
func (e *ValidationError) AppError() model.AppError {
	return model.AppError{
		Code:    "RULE_VALIDATE_ERROR",
		Message: "规则校验失败",
		Stage:   "validate_rule",
		Fields:  e.Fields,
	}
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, model.FieldError{Field: field, Message: message})
}

const (
	MinPrepend = 1
	MaxPrepend = 10
)

// Validate checks a form against the schema and builds a rule from it.
// The returned rule has no ID; the caller decides whether it is new or an edit.
func Validate(f Form, schema model.Schema) (model.FilterRule, error) {
	return validate(f, schema, false)
}

// ValidateStored is Validate for rules that came out of an import: under the
// asn schema it also accepts model.UnknownASN, the group the importer assigns
// to lines without a remote-as.
func ValidateStored(f Form, schema model.Schema) (model.FilterRule, error) {
	return validate(f, schema, true)
}

func validate(f Form, schema model.Schema, allowUnknownASN bool) (model.FilterRule, error) {
	verr := &ValidationError{}

	group := strings.TrimSpace(f.Group)
	switch {
	case group == "":
		if schema == model.SchemaASN {
			verr.add("group", "ASN 不能为空")
		} else {
			verr.add("group", "Chain 不能为空")
		}
	case schema == model.SchemaASN && allowUnknownASN && group == model.UnknownASN:
	case schema == model.SchemaASN:
		if err := ValidateASN(group); err != nil {
			verr.add("group", "ASN 不合法（1..4294967295）")
		}
	case strings.ContainsAny(group, " \t\r\n\"="):
		verr.add("group", "Chain 不能包含空白、引号或 '='")
	}

	prefix := strings.TrimSpace(f.Prefix)
	if prefix == "" {
		verr.add("prefix", "Prefix 不能为空")
	} else if err := ValidatePrefix(prefix); err != nil {
		verr.add("prefix", "Prefix 格式不合法")
	}

	action := model.ActionAccept
	if s := strings.TrimSpace(f.Action); s != "" {
		a, ok := model.ParseAction(s)
		if !ok {
			verr.add("action", fmt.Sprintf("不支持的 action：%s", s))
		} else {
			action = a
		}
	}

	prepend := 0
	if s := strings.TrimSpace(f.Prepend); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < MinPrepend || n > MaxPrepend {
			verr.add("prepend", "Prepend 必须在 1 到 10 之间")
		} else {
			prepend = n
		}
	}

	expr := strings.TrimSpace(f.Expression)
	switch {
	case expr != "" && schema == model.SchemaASN:
		verr.add("expression", "ASN 模式不支持 Rule 表达式")
	case strings.ContainsAny(expr, "\r\n\x00"):
		verr.add("expression", "Rule 表达式不能包含换行或控制字符")
	}

	description := strings.TrimSpace(f.Description)
	comment := strings.TrimSpace(f.Comment)
	if strings.ContainsAny(description, "\r\n\x00") {
		verr.add("description", "Description 不能包含换行或控制字符")
	}
	if strings.ContainsAny(comment, "\r\n\x00") {
		verr.add("comment", "Comment 不能包含换行或控制字符")
	}

	if len(verr.Fields) > 0 {
		return model.FilterRule{}, verr
	}
	return model.FilterRule{
		Group:       group,
		Prefix:      prefix,
		Action:      action,
		Prepend:     prepend,
		Description: description,
		Comment:     comment,
		Expression:  expr,
	}, nil
}

var ipv4PrefixRe = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}/\d{1,2}$`)

var (
	errPrefixSyntax = errors.New("expected a.b.c.d/n")
	errPrefixOctet  = errors.New("octet out of range")
	errPrefixLength = errors.New("prefix length out of range")
)

// ValidatePrefix accepts an IPv4 CIDR with octets in [0,255] and length in [0,32].
// Host bits are allowed to be set, matching what the router accepts.
func ValidatePrefix(s string) error {
	if !ipv4PrefixRe.MatchString(s) {
		return errPrefixSyntax
	}
	addr, bits, _ := strings.Cut(s, "/")
	n, err := strconv.Atoi(bits)
	if err != nil || n > 32 {
		return errPrefixLength
	}
	for _, o := range strings.Split(addr, ".") {
		v, err := strconv.Atoi(o)
		if err != nil || v > 255 {
			return errPrefixOctet
		}
	}
	return nil
}

// ValidateASN accepts a decimal 32-bit AS number other than 0.
func ValidateASN(s string) error {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("asn 0 is reserved")
	}
	return nil
}
