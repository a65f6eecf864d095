package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidAnswer is returned when a userAnswer is neither a string nor a list of strings
var ErrInvalidAnswer = errors.New("answer must be a string or an array of strings")

// AnswerKind tags which variant an Answer holds
type AnswerKind string

const (
	AnswerText  AnswerKind = "text"  // select, input
	AnswerOrder AnswerKind = "order" // ordering
)

// Answer is a submitted userAnswer. Text answers hold a single value,
// order answers a sequence of option identifiers.
type Answer struct {
	Kind  AnswerKind `bson:"kind"`
	Text  string     `bson:"text,omitempty"`
	Order []string   `bson:"order,omitempty"`

	// Wrapped is set when the answer arrived as {"order": [...]}
	Wrapped bool `json:"-" bson:"wrapped,omitempty"`
}

// TextAnswer builds a text answer
func TextAnswer(s string) Answer {
	return Answer{Kind: AnswerText, Text: s}
}

// OrderAnswer builds an order answer
func OrderAnswer(items ...string) Answer {
	if items == nil {
		items = []string{}
	}
	return Answer{Kind: AnswerOrder, Order: items}
}

// IsZero reports whether no answer was decoded
func (a Answer) IsZero() bool {
	return a.Kind == ""
}

// MarshalJSON writes the answer back in the shape it was submitted in
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerOrder:
		order := a.Order
		if order == nil {
			order = []string{}
		}
		if a.Wrapped {
			return json.Marshal(struct {
				Order []string `json:"order"`
			}{order})
		}
		return json.Marshal(order)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts "value", ["a","b"] and {"order":["a","b"]}
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidAnswer
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidAnswer
		}
		*a = TextAnswer(s)
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return ErrInvalidAnswer
		}
		*a = OrderAnswer(items...)
		return nil
	case '{':
		var obj struct {
			Order *[]string `json:"order"`
		}
		if err := json.Unmarshal(data, &obj); err != nil || obj.Order == nil {
			return ErrInvalidAnswer
		}
		*a = OrderAnswer(*obj.Order...)
		a.Wrapped = true
		return nil
	}
	return ErrInvalidAnswer
}

// SubmitAnswerRequest is the body of a submit call
type SubmitAnswerRequest struct {
	QuestionID *int     `json:"questionId"`
	UserAnswer Answer   `json:"userAnswer"`
	Order      []string `json:"order,omitempty"` // legacy ordering field
}

// Answer resolves the submitted answer, preferring userAnswer over order
func (r *SubmitAnswerRequest) Answer() (Answer, error) {
	if !r.UserAnswer.IsZero() {
		return r.UserAnswer, nil
	}
	if r.Order != nil {
		return OrderAnswer(r.Order...), nil
	}
	return Answer{}, ErrInvalidAnswer
}
