package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// AnswerValue holds the raw JSON an answer was submitted with. It is only
// interpreted once the owning question's type is known, see Resolve.
type AnswerValue []byte

// MarshalJSON emits the stored JSON unchanged.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(v)) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON keeps a copy of the raw JSON.
func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	*v = append((*v)[0:0], b...)
	return nil
}

// TextValue, ItemsValue and NumberValue build answer values from Go values.
func TextValue(s string) AnswerValue { return mustValue(s) }

func ItemsValue(items ...string) AnswerValue {
	if items == nil {
		items = []string{}
	}
	return mustValue(items)
}

func NumberValue(n float64) AnswerValue { return mustValue(n) }

func mustValue(x any) AnswerValue {
	b, err := json.Marshal(x)
	if err != nil {
		return AnswerValue("null")
	}
	return AnswerValue(b)
}

// ValueKind tags the variant held by a resolved Value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindText
	KindItems
	KindNumber
)

// Value is an answer value resolved against its question type.
type Value struct {
	Kind   ValueKind
	Text   string
	Items  []string
	Number float64
}

func (v AnswerValue) decode() (any, bool) {
	if len(bytes.TrimSpace(v)) == 0 {
		return nil, false
	}
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return nil, false
	}
	return x, true
}

// Resolve interprets the raw value for a question of type qt. Values that
// do not fit the type resolve to KindNone rather than an error.
func (v AnswerValue) Resolve(qt QuestionType) Value {
	x, ok := v.decode()
	if !ok || x == nil {
		return Value{}
	}
	switch qt {
	case QuestionRating:
		if n, ok := x.(float64); ok {
			return Value{Kind: KindNumber, Number: n}
		}
		return Value{}
	case QuestionCheckbox:
		if list, ok := x.([]any); ok {
			return Value{Kind: KindItems, Items: coerceItems(list)}
		}
		if s, ok := coerceText(x); ok {
			return Value{Kind: KindItems, Items: []string{s}}
		}
		return Value{}
	case QuestionMultipleChoice:
		if list, ok := x.([]any); ok {
			return Value{Kind: KindItems, Items: coerceItems(list)}
		}
		if s, ok := coerceText(x); ok {
			return Value{Kind: KindText, Text: s}
		}
		return Value{}
	case QuestionText:
		if s, ok := coerceText(x); ok {
			return Value{Kind: KindText, Text: s}
		}
		return Value{Kind: KindText, Text: compact(v)}
	}
	return Value{}
}

// IsList reports whether the raw value is a JSON array.
func (v AnswerValue) IsList() bool {
	x, ok := v.decode()
	if !ok {
		return false
	}
	_, isList := x.([]any)
	return isList
}

// Cell renders the value for tabular export: lists are joined with ";",
// scalars are printed as text and null becomes the empty string.
func (v AnswerValue) Cell() string {
	x, ok := v.decode()
	if !ok || x == nil {
		return ""
	}
	if list, ok := x.([]any); ok {
		return strings.Join(coerceItems(list), ";")
	}
	if s, ok := coerceText(x); ok {
		return s
	}
	return compact(v)
}

func coerceItems(list []any) []string {
	out := make([]string, 0, len(list))
	for _, it := range list {
		if it == nil {
			continue
		}
		if s, ok := coerceText(it); ok {
			out = append(out, s)
			continue
		}
		b, err := json.Marshal(it)
		if err == nil {
			out = append(out, string(b))
		}
	}
	return out
}

func coerceText(x any) (string, bool) {
	switch t := x.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func compact(v AnswerValue) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
