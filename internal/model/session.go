package model

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
)

// Result is the recorded outcome of one submission
type Result struct {
	QuestionID int    `json:"questionId" bson:"questionId"`
	IsCorrect  bool   `json:"isCorrect" bson:"isCorrect"`
	UserAnswer Answer `json:"userAnswer" bson:"userAnswer"`
}

// Session is one attempt at a test, keyed by its token
type Session struct {
	Token       string
	TestID      string
	StartTime   time.Time
	TotalTime   int // seconds, copied from the test
	Status      SessionStatus
	Results     []Result
	CompletedAt *time.Time
}

// Record snapshots the session for persistence
func (s *Session) Record() *SessionRecord {
	results := make([]Result, len(s.Results))
	copy(results, s.Results)
	rec := &SessionRecord{
		Token:     s.Token,
		TestID:    s.TestID,
		StartTime: s.StartTime,
		TotalTime: s.TotalTime,
		Status:    s.Status,
		Results:   results,
	}
	if s.CompletedAt != nil {
		rec.CompletedAt = *s.CompletedAt
	}
	return rec
}

// SessionRecord is an immutable snapshot of a finalized session
type SessionRecord struct {
	Token       string        `json:"token" bson:"_id"`
	TestID      string        `json:"testId" bson:"testId"`
	StartTime   time.Time     `json:"startTime" bson:"startTime"`
	CompletedAt time.Time     `json:"completedAt" bson:"completedAt"`
	TotalTime   int           `json:"totalTime" bson:"totalTime"`
	Status      SessionStatus `json:"status" bson:"status"`
	Results     []Result      `json:"results" bson:"results"`
}

// SessionView is the read-only projection returned by token lookups
type SessionView struct {
	Token     string          `json:"token"`
	Test      *TestDescriptor `json:"test"`
	Status    SessionStatus   `json:"status"`
	Elapsed   int             `json:"elapsed"`   // seconds since start
	Remaining int             `json:"remaining"` // seconds left of totalTime, never negative
	Results   []Result        `json:"results,omitempty"`
}
