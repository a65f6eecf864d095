package model

import "time"

// TestStatus is the catalog lifecycle of a test
type TestStatus string

const (
	TestActive    TestStatus = "active"
	TestInactive  TestStatus = "inactive"
	TestCompleted TestStatus = "completed"
)

// Test is an immutable catalog entry
type Test struct {
	ID        string     `json:"id" yaml:"id" bson:"_id"`
	Name      string     `json:"name" yaml:"name" bson:"name"`
	Status    TestStatus `json:"status" yaml:"status" bson:"status"`
	TotalTime int        `json:"totalTime" yaml:"totalTime" bson:"totalTime"` // seconds
	Questions []Question `json:"questions" yaml:"questions" bson:"questions"`
}

// Question finds a question by id
func (t *Test) Question(id int) (*Question, bool) {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i], true
		}
	}
	return nil, false
}

// TestDescriptor is what clients get to see of a test
type TestDescriptor struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Questions []QuestionView `json:"questions"`
	TotalTime int            `json:"totalTime"`
	StartTime *time.Time     `json:"startTime,omitempty"`
}

// Descriptor builds the redacted descriptor of a test
func (t *Test) Descriptor() *TestDescriptor {
	d := &TestDescriptor{
		ID:        t.ID,
		Name:      t.Name,
		Questions: make([]QuestionView, 0, len(t.Questions)),
		TotalTime: t.TotalTime,
	}
	for i := range t.Questions {
		d.Questions = append(d.Questions, t.Questions[i].View())
	}
	return d
}

// TestSummary is a list entry for active tests
type TestSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
