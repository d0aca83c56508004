package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
)

const maxBodyBytes = 4 * 1024 * 1024

// decodeJSON reads exactly one JSON value into out, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apiError(http.StatusRequestEntityTooLarge, model.AppError{
				Code:    "TOO_LARGE",
				Message: "请求体过大",
				Stage:   "validate_request",
			}, err)
		}
		return requestError("INVALID_ARGUMENT", "JSON body 解析失败", err.Error())
	}
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return requestError("INVALID_ARGUMENT", "JSON body 不允许多段", "")
	} else if !errors.Is(err, io.EOF) {
		return requestError("INVALID_ARGUMENT", "JSON body 解析失败", err.Error())
	}
	return nil
}

// flexString accepts a JSON string, number or null. Form fields such as
// prepend arrive either way depending on the client.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ruleRequest is the JSON shape of a rule form.
type ruleRequest struct {
	Group       string     `json:"group"`
	Chain       string     `json:"chain"`
	ASN         flexString `json:"asn"`
	Prefix      string     `json:"prefix"`
	Action      string     `json:"action"`
	Prepend     flexString `json:"prepend"`
	Description string     `json:"description"`
	Comment     string     `json:"comment"`
	Expression  string     `json:"expression"`
	Rule        string     `json:"rule"`
}

// form accepts the schema-specific aliases chain/asn for group and rule for
// expression.
func (q ruleRequest) form() rules.Form {
	group := q.Group
	if strings.TrimSpace(group) == "" {
		group = q.Chain
	}
	if strings.TrimSpace(group) == "" {
		group = string(q.ASN)
	}
	expr := q.Expression
	if expr == "" {
		expr = q.Rule
	}
	return rules.Form{
		Group:       group,
		Prefix:      q.Prefix,
		Action:      q.Action,
		Prepend:     string(q.Prepend),
		Description: q.Description,
		Comment:     q.Comment,
		Expression:  expr,
	}
}

// indexedValidationError tags a validation failure with the 1-based
// position of the offending rule in a batch.
func indexedValidationError(i int, err error) error {
	var ve *rules.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	app := ve.AppError()
	app.Line = i + 1
	app.Hint = "rules[" + strconv.Itoa(i) + "]"
	return apiError(http.StatusUnprocessableEntity, app, err)
}
