package service

import (
	"context"
	"sync"
	"time"

	"timedquiz/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSink struct {
	mu      sync.Mutex
	records []*model.SessionRecord
	err     error
}

func (f *fakeSink) SaveResult(_ context.Context, rec *model.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSink) saved() []*model.SessionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.SessionRecord(nil), f.records...)
}

type panicSink struct{}

func (panicSink) SaveResult(context.Context, *model.SessionRecord) error {
	panic("sink exploded")
}

type fakeLookup struct {
	records map[string]*model.SessionRecord
	err     error
}

func (f *fakeLookup) GetResult(_ context.Context, token string) (*model.SessionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[token], nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	jobs      map[string]func()
	intervals map[string]time.Duration
	cancelled []string
	err       error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		jobs:      make(map[string]func()),
		intervals: make(map[string]time.Duration),
	}
}

func (f *fakeScheduler) Every(tag string, interval time.Duration, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs[tag] = fn
	f.intervals[tag] = interval
	return nil
}

func (f *fakeScheduler) Cancel(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, tag)
	f.cancelled = append(f.cancelled, tag)
}

func (f *fakeScheduler) job(tag string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[tag]
}

// fire runs the job for tag if one is armed
func (f *fakeScheduler) fire(tag string) bool {
	fn := f.job(tag)
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (f *fakeScheduler) armed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type sentMessage struct {
	connID  string
	msgType string
	update  model.TimeUpdate
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeBroadcaster) SendToConn(connID string, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update, _ := payload.(model.TimeUpdate)
	f.sent = append(f.sent, sentMessage{connID: connID, msgType: msgType, update: update})
}

func (f *fakeBroadcaster) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeBroadcaster) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeTopicStore struct {
	mu     sync.Mutex
	totals map[model.TopicKey]int
}

func newFakeTopicStore() *fakeTopicStore {
	return &fakeTopicStore{totals: make(map[model.TopicKey]int)}
}

func (f *fakeTopicStore) SetTotal(_ context.Context, userID, topicID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[model.TopicKey{UserID: userID, TopicID: topicID}] = total
	return nil
}

func (f *fakeTopicStore) GetTotal(_ context.Context, userID, topicID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, ok := f.totals[model.TopicKey{UserID: userID, TopicID: topicID}]
	return total, ok, nil
}

type fakeHistory struct {
	records map[string][]*model.SessionRecord
	err     error
}

func (f *fakeHistory) GetByTestID(_ context.Context, testID string) ([]*model.SessionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[testID], nil
}
