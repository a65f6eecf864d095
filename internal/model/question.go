package model

// QuestionType defines how a question is graded
type QuestionType string

const (
	QuestionTypeSelect   QuestionType = "select"   // Pick one of Options, graded against CorrectAnswer
	QuestionTypeOrdering QuestionType = "ordering" // Arrange Options, graded against CorrectOrder
	QuestionTypeInput    QuestionType = "input"    // Free text, graded against CorrectAnswer
)

// Blank is a fill-in part of a question
type Blank struct {
	Question      string `json:"question" yaml:"question" bson:"question"`
	CorrectAnswer string `json:"correctAnswer" yaml:"correctAnswer" bson:"correctAnswer"`
}

// Question is a catalog question including its grading data
type Question struct {
	ID            int          `json:"id" yaml:"id" bson:"id"`
	QuestionText  string       `json:"questionText" yaml:"questionText" bson:"questionText"`
	QuestionType  QuestionType `json:"questionType" yaml:"questionType" bson:"questionType"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"` // select, input
	CorrectOrder  []string     `json:"correctOrder,omitempty" yaml:"correctOrder,omitempty" bson:"correctOrder,omitempty"`    // ordering
	Blanks        []Blank      `json:"blanks,omitempty" yaml:"blanks,omitempty" bson:"blanks,omitempty"`
	TimeLimit     int          `json:"timeLimit" yaml:"timeLimit" bson:"timeLimit"` // seconds
}

// BlankView is a blank without its answer
type BlankView struct {
	Question string `json:"question"`
}

// QuestionView is the client-facing question: no grading fields
type QuestionView struct {
	ID           int          `json:"id"`
	QuestionText string       `json:"questionText"`
	QuestionType QuestionType `json:"questionType"`
	Options      []string     `json:"options,omitempty"`
	Blanks       []BlankView  `json:"blanks,omitempty"`
	TimeLimit    int          `json:"timeLimit"`
}

// View strips correctAnswer, correctOrder and blank answers
func (q *Question) View() QuestionView {
	v := QuestionView{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		TimeLimit:    q.TimeLimit,
	}
	for _, b := range q.Blanks {
		v.Blanks = append(v.Blanks, BlankView{Question: b.Question})
	}
	return v
}
