package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timedquiz/internal/catalog"
	"timedquiz/internal/model"
)

const defaultSinkTimeout = 5 * time.Second

// ResultSink receives finalized sessions (fire-and-forget)
type ResultSink interface {
	SaveResult(ctx context.Context, rec *model.SessionRecord) error
}

// ResultLookup serves sessions that are no longer held in memory
type ResultLookup interface {
	GetResult(ctx context.Context, token string) (*model.SessionRecord, error)
}

// ResultHistory lists the persisted sessions of one test
type ResultHistory interface {
	GetByTestID(ctx context.Context, testID string) ([]*model.SessionRecord, error)
}

// StartedTest is returned when a session is opened
type StartedTest struct {
	Token string                `json:"token"`
	Test  *model.TestDescriptor `json:"test"`
}

// TestService owns the token -> session table
type TestService struct {
	catalog catalog.Catalog
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*model.Session

	sinks       []ResultSink
	lookup      ResultLookup
	history     ResultHistory
	sinkTimeout time.Duration
	pending     sync.WaitGroup

	now      func() time.Time
	newToken func() string
}

// NewTestService creates a new test service
func NewTestService(c catalog.Catalog, logger *zap.Logger) *TestService {
	return &TestService{
		catalog:     c,
		logger:      logger,
		sessions:    make(map[string]*model.Session),
		sinkTimeout: defaultSinkTimeout,
		now:         time.Now,
		newToken:    newSessionToken,
	}
}

// SetClock replaces the time source
func (s *TestService) SetClock(now func() time.Time) {
	s.now = now
}

// AddResultSink registers a collaborator that receives completed sessions
func (s *TestService) AddResultSink(sink ResultSink) {
	s.sinks = append(s.sinks, sink)
}

// SetResultLookup sets the fallback for evicted sessions
func (s *TestService) SetResultLookup(l ResultLookup) {
	s.lookup = l
}

// SetResultHistory sets the store that lists finalized sessions per test
func (s *TestService) SetResultHistory(h ResultHistory) {
	s.history = h
}

// newSessionToken returns 32 hex chars from a random UUID
func newSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// StartTest opens a session on an active test
func (s *TestService) StartTest(testID string) (*StartedTest, error) {
	test, ok := s.catalog.Find(testID)
	if !ok {
		return nil, ErrTestNotFound
	}
	if test.Status != model.TestActive {
		return nil, ErrTestInactive
	}

	s.mu.Lock()
	token := s.newToken()
	for s.sessions[token] != nil {
		token = s.newToken()
	}
	s.sessions[token] = &model.Session{
		Token:     token,
		TestID:    test.ID,
		StartTime: s.now(),
		TotalTime: test.TotalTime,
		Status:    model.SessionInProgress,
		Results:   []model.Result{},
	}
	s.mu.Unlock()

	s.logger.Info("test started", zap.String("testId", test.ID), zap.String("token", token))

	return &StartedTest{Token: token, Test: test.Descriptor()}, nil
}

// SubmitAnswer grades and records one answer.
// The time limit is checked against time elapsed since the session started.
func (s *TestService) SubmitAnswer(token string, questionID int, answer model.Answer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return false, ErrSessionNotFound
	}
	if session.Status == model.SessionCompleted {
		return false, ErrAlreadyCompleted
	}

	test, ok := s.catalog.Find(session.TestID)
	if !ok {
		return false, ErrTestNotFound
	}
	question, ok := test.Question(questionID)
	if !ok {
		return false, ErrQuestionNotFound
	}

	elapsed := int(s.now().Sub(session.StartTime) / time.Second)
	if elapsed > question.TimeLimit {
		return false, ErrTimeExpired
	}

	if !Supported(question.QuestionType) {
		s.logger.Warn("unverifiable question type graded as incorrect",
			zap.String("testId", test.ID),
			zap.Int("questionId", questionID),
			zap.String("questionType", string(question.QuestionType)),
		)
	}
	isCorrect := Verify(question, answer)

	session.Results = append(session.Results, model.Result{
		QuestionID: questionID,
		IsCorrect:  isCorrect,
		UserAnswer: answer,
	})
	return isCorrect, nil
}

// CompleteTest finalizes a session and hands it to the result sinks
func (s *TestService) CompleteTest(token string) ([]model.Result, error) {
	s.mu.Lock()
	session, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if session.Status == model.SessionCompleted {
		s.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	now := s.now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	rec := session.Record()
	s.mu.Unlock()

	s.logger.Info("test completed",
		zap.String("token", token),
		zap.String("testId", rec.TestID),
		zap.Int("answers", len(rec.Results)),
	)
	s.persist(rec)

	return rec.Results, nil
}

func (s *TestService) persist(rec *model.SessionRecord) {
	for _, sink := range s.sinks {
		s.pending.Add(1)
		go func(sink ResultSink) {
			defer s.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("recovered from panic in result sink", zap.Any("panic", r))
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), s.sinkTimeout)
			defer cancel()
			if err := sink.SaveResult(ctx, rec); err != nil {
				s.logger.Warn("failed to persist test results", zap.String("token", rec.Token), zap.Error(err))
			}
		}(sink)
	}
}

// Wait blocks until every pending sink hand-off has returned
func (s *TestService) Wait() {
	s.pending.Wait()
}

// GetSessionByToken returns the read-only projection of a session
func (s *TestService) GetSessionByToken(ctx context.Context, token string) (*model.SessionView, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	var rec *model.SessionRecord
	if ok {
		rec = session.Record()
	}
	s.mu.RUnlock()

	if !ok {
		var err error
		if rec, err = s.lookupRecord(ctx, token); err != nil {
			return nil, err
		}
	}

	test, found := s.catalog.Find(rec.TestID)
	if !found {
		return nil, ErrTestNotFound
	}

	end := s.now()
	if rec.Status == model.SessionCompleted {
		end = rec.CompletedAt
	}
	elapsed := int(end.Sub(rec.StartTime) / time.Second)
	remaining := rec.TotalTime - elapsed
	if remaining < 0 {
		remaining = 0
	}

	desc := test.Descriptor()
	desc.TotalTime = rec.TotalTime
	start := rec.StartTime
	desc.StartTime = &start

	view := &model.SessionView{
		Token:     rec.Token,
		Test:      desc,
		Status:    rec.Status,
		Elapsed:   elapsed,
		Remaining: remaining,
	}
	if rec.Status == model.SessionCompleted {
		view.Results = rec.Results
	}
	return view, nil
}

// GetResults returns the results recorded so far
func (s *TestService) GetResults(ctx context.Context, token string) ([]model.Result, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	var results []model.Result
	if ok {
		results = make([]model.Result, len(session.Results))
		copy(results, session.Results)
	}
	s.mu.RUnlock()

	if ok {
		return results, nil
	}
	rec, err := s.lookupRecord(ctx, token)
	if err != nil {
		return nil, err
	}
	return rec.Results, nil
}

func (s *TestService) lookupRecord(ctx context.Context, token string) (*model.SessionRecord, error) {
	if s.lookup == nil {
		return nil, ErrSessionNotFound
	}
	rec, err := s.lookup.GetResult(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}
	return rec, nil
}

// ListTestResults returns the persisted sessions of a test, newest first
func (s *TestService) ListTestResults(ctx context.Context, testID string) ([]*model.SessionRecord, error) {
	if _, ok := s.catalog.Find(testID); !ok {
		return nil, ErrTestNotFound
	}
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	records, err := s.history.GetByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if records == nil {
		records = []*model.SessionRecord{}
	}
	return records, nil
}

// ListActiveTests returns id and name of every active test
func (s *TestService) ListActiveTests() []model.TestSummary {
	out := []model.TestSummary{}
	for _, t := range s.catalog.All() {
		if t.Status == model.TestActive {
			out = append(out, model.TestSummary{ID: t.ID, Name: t.Name})
		}
	}
	return out
}

// EvictCompleted drops completed sessions finished more than olderThan ago
func (s *TestService) EvictCompleted(olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, session := range s.sessions {
		if session.Status == model.SessionCompleted && session.CompletedAt != nil && session.CompletedAt.Before(cutoff) {
			delete(s.sessions, token)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("evicted completed sessions", zap.Int("count", n))
	}
	return n
}
