package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceExpr = regexp.MustCompile("```json\\s*|\\s*```")

// StripCodeFence removes markdown code fences models wrap around JSON.
func StripCodeFence(raw string) string {
	return strings.TrimSpace(codeFenceExpr.ReplaceAllString(raw, ""))
}

// Summary is the short description and due date extracted at ingestion.
type Summary struct {
	Summary string `json:"summary"`
	DueDate string `json:"dueDate"`
}

// ParseSummary decodes the summary completion. When the text is not a JSON
// object with a non-empty summary, the raw text becomes the summary and the
// due date is empty; ok reports which path was taken.
func ParseSummary(raw string) (summary Summary, ok bool) {
	cleaned := StripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return Summary{Summary: raw}, false
	}
	summary.Summary = strings.TrimSpace(summary.Summary)
	summary.DueDate = strings.TrimSpace(summary.DueDate)
	if summary.Summary == "" {
		return Summary{Summary: raw}, false
	}
	return summary, true
}

// Field is one label/value pair of a cover sheet section.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is a named group of cover sheet fields in model output order.
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// CoverSheet is the structured extraction rendered from the cover sheet JSON.
type CoverSheet struct {
	Sections []Section `json:"sections"`
}

// ParseCoverSheet decodes the cover sheet object keeping key order.
// Non-string field values are flattened: arrays join with "; ", other
// values keep their JSON text.
func ParseCoverSheet(raw string) (CoverSheet, error) {
	dec := json.NewDecoder(strings.NewReader(StripCodeFence(raw)))
	if err := expectDelim(dec, '{'); err != nil {
		return CoverSheet{}, err
	}

	var sheet CoverSheet
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return CoverSheet{}, err
		}
		var fields orderedFields
		if err := dec.Decode(&fields); err != nil {
			return CoverSheet{}, fmt.Errorf("section %s: %w", name, err)
		}
		sheet.Sections = append(sheet.Sections, Section{Name: name, Fields: fields})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return CoverSheet{}, err
	}
	return sheet, nil
}

type orderedFields []Field

func (o *orderedFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		label, err := readKey(dec)
		if err != nil {
			return err
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %s: %w", label, err)
		}
		*o = append(*o, Field{Label: label, Value: flattenValue(value)})
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func flattenValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, "; ")
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// SplitLabeled splits "Label: value; Label2: value2" into fields. Parts
// without a label keep an empty Label.
func SplitLabeled(text string) []Field {
	var fields []Field
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, found := strings.Cut(part, ": ")
		if !found || strings.TrimSpace(label) == "" {
			fields = append(fields, Field{Value: part})
			continue
		}
		fields = append(fields, Field{Label: strings.TrimSpace(label), Value: strings.TrimSpace(value)})
	}
	return fields
}

// FlexString accepts a JSON string, number, or array of those.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString(flattenValue(data))
	return nil
}

// Feasibility answers for a requirement row.
const (
	FeasibleYes       = "Yes"
	FeasibleNo        = "No"
	FeasibleUncertain = "Uncertain"
)

// FeasibilityRow is one assessed requirement.
type FeasibilityRow struct {
	ReqNo       FlexString `json:"req_no"`
	Section     FlexString `json:"section"`
	Requirement FlexString `json:"requirement"`
	Feasible    FlexString `json:"feasible"`
	Reason      FlexString `json:"reason"`
	Citations   FlexString `json:"citations"`
}

// ParseFeasibility decodes the feasibility array. An object wrapping a
// single array (e.g. {"requirements": [...]}) is unwrapped.
func ParseFeasibility(raw string) ([]FeasibilityRow, error) {
	cleaned := []byte(StripCodeFence(raw))

	var rows []FeasibilityRow
	if err := json.Unmarshal(cleaned, &rows); err == nil {
		return normalizeFeasibility(rows), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(cleaned, &wrapper); err != nil {
		return nil, fmt.Errorf("decode feasibility: %w", err)
	}
	for _, v := range wrapper {
		if err := json.Unmarshal(v, &rows); err == nil {
			return normalizeFeasibility(rows), nil
		}
	}
	return nil, fmt.Errorf("decode feasibility: no requirement array")
}

func normalizeFeasibility(rows []FeasibilityRow) []FeasibilityRow {
	for i := range rows {
		switch strings.ToLower(strings.TrimSpace(string(rows[i].Feasible))) {
		case "yes":
			rows[i].Feasible = FeasibleYes
		case "no":
			rows[i].Feasible = FeasibleNo
		default:
			rows[i].Feasible = FeasibleUncertain
		}
	}
	return rows
}

// CleanJSON strips code fences when what remains is valid JSON, otherwise
// the raw completion is kept untouched.
func CleanJSON(raw string) string {
	cleaned := StripCodeFence(raw)
	if json.Valid([]byte(cleaned)) {
		return cleaned
	}
	return raw
}
