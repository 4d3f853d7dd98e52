package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type AnswerKind string

const (
	AnswerBool    AnswerKind = "bool"
	AnswerIndices AnswerKind = "indices"
	AnswerText    AnswerKind = "text"
	AnswerNumeric AnswerKind = "numeric"
)

// Answer is a tagged union over the four submitted-answer shapes. The kind is
// resolved from the card's type at the boundary, so the grading engine never
// inspects raw JSON. Numeric answers keep their textual form: a non-numeric
// submission is graded incorrect, not rejected, so parsing happens at grading
// time.
type Answer struct {
	Kind    AnswerKind      `json:"kind"`
	Bool    bool            `json:"bool,omitempty"`
	Indices []int           `json:"indices,omitempty"`
	Text    string          `json:"text,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// ParseAnswer resolves a raw JSON answer into the variant expected by the
// card's type. A scalar index for a multiple_choice card is normalized to a
// singleton set. Numeric accepts both JSON numbers and strings; anything else
// is a format error.
func ParseAnswer(cardType MemocardType, raw json.RawMessage) (Answer, error) {
	switch cardType {
	case TypeTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Answer{}, fmt.Errorf("true_false answer must be a boolean: %w", err)
		}
		return Answer{Kind: AnswerBool, Bool: b, Raw: raw}, nil

	case TypeMultipleChoice:
		var indices []int
		if err := json.Unmarshal(raw, &indices); err == nil {
			return Answer{Kind: AnswerIndices, Indices: indices, Raw: raw}, nil
		}
		var single int
		if err := json.Unmarshal(raw, &single); err != nil {
			return Answer{}, fmt.Errorf("multiple_choice answer must be an option index or a list of indices: %w", err)
		}
		return Answer{Kind: AnswerIndices, Indices: []int{single}, Raw: raw}, nil

	case TypeText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, fmt.Errorf("text answer must be a string: %w", err)
		}
		return Answer{Kind: AnswerText, Text: s, Raw: raw}, nil

	case TypeNumeric:
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return Answer{Kind: AnswerNumeric, Text: strconv.FormatFloat(f, 'f', -1, 64), Raw: raw}, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, fmt.Errorf("numeric answer must be a number or a string: %w", err)
		}
		return Answer{Kind: AnswerNumeric, Text: s, Raw: raw}, nil

	default:
		return Answer{}, fmt.Errorf("unknown memocard type %q", cardType)
	}
}
