package service

import (
	"slices"

	"timedquiz/internal/model"
)

// Verify grades a submitted answer against the catalog question.
// Unsupported question types are graded as incorrect.
func Verify(q *model.Question, a model.Answer) bool {
	switch q.QuestionType {
	case model.QuestionTypeSelect, model.QuestionTypeInput:
		return a.Kind == model.AnswerText && a.Text == q.CorrectAnswer
	case model.QuestionTypeOrdering:
		if q.CorrectOrder == nil || a.Kind != model.AnswerOrder {
			return false
		}
		return slices.Equal(a.Order, q.CorrectOrder)
	default:
		return false
	}
}

// Supported reports whether Verify knows how to grade the type
func Supported(t model.QuestionType) bool {
	switch t {
	case model.QuestionTypeSelect, model.QuestionTypeInput, model.QuestionTypeOrdering:
		return true
	}
	return false
}
