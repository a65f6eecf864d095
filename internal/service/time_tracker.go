package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"timedquiz/internal/model"
)

const defaultStoreTimeout = 3 * time.Second

// TickScheduler runs one periodic job per tag
type TickScheduler interface {
	Every(tag string, interval time.Duration, fn func()) error
	Cancel(tag string)
}

// TopicTimeStore keeps totals for keys no longer held in memory
type TopicTimeStore interface {
	SetTotal(ctx context.Context, userID, topicID string, total int) error
	GetTotal(ctx context.Context, userID, topicID string) (int, bool, error)
}

type accumulator struct {
	startTime time.Time
	totalTime int
}

type armedTimer struct {
	connID string
	gen    uint64
}

// TimeTracker accumulates whole seconds spent per (user, topic)
type TimeTracker struct {
	scheduler TickScheduler
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	accs   map[model.TopicKey]*accumulator
	timers map[model.TopicKey]armedTimer
	gen    uint64

	broadcaster Broadcaster
	store       TopicTimeStore
	pending     sync.WaitGroup

	now func() time.Time
}

// NewTimeTracker creates a tracker ticking every interval
func NewTimeTracker(scheduler TickScheduler, interval time.Duration, logger *zap.Logger) *TimeTracker {
	return &TimeTracker{
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
		accs:      make(map[model.TopicKey]*accumulator),
		timers:    make(map[model.TopicKey]armedTimer),
		now:       time.Now,
	}
}

// SetBroadcaster sets the sink for time updates
func (t *TimeTracker) SetBroadcaster(b Broadcaster) {
	t.broadcaster = b
}

// SetTopicStore sets the store mirrored on stop and read by TimeSpent
func (t *TimeTracker) SetTopicStore(s TopicTimeStore) {
	t.store = s
}

// SetClock replaces the time source
func (t *TimeTracker) SetClock(now func() time.Time) {
	t.now = now
}

func topicTag(key model.TopicKey) string {
	return fmt.Sprintf("topic:%d:%s:%s", len(key.UserID), key.UserID, key.TopicID)
}

// StartTopic begins or resumes tracking for a key owned by connID.
// Any other topic the user was being timed on is paused first.
func (t *TimeTracker) StartTopic(connID, userID, topicID string) (int, error) {
	if userID == "" || topicID == "" {
		return 0, ErrMissingIdentifiers
	}
	key := model.TopicKey{UserID: userID, TopicID: topicID}

	t.mu.Lock()
	defer t.mu.Unlock()

	for k := range t.timers {
		if k.UserID == userID {
			t.cancelLocked(k)
		}
	}

	acc, ok := t.accs[key]
	if !ok {
		acc = &accumulator{}
		t.accs[key] = acc
	}
	acc.startTime = t.now()

	sendTimeUpdate(t.broadcaster, connID, key, acc.totalTime)

	t.gen++
	gen := t.gen
	t.timers[key] = armedTimer{connID: connID, gen: gen}
	if err := t.scheduler.Every(topicTag(key), t.interval, func() { t.tick(key, gen) }); err != nil {
		delete(t.timers, key)
		return acc.totalTime, fmt.Errorf("failed to arm timer: %w", err)
	}

	t.logger.Debug("topic started",
		zap.String("userId", userID),
		zap.String("topicId", topicID),
		zap.String("connId", connID),
		zap.Int("totalTime", acc.totalTime),
	)
	return acc.totalTime, nil
}

func (t *TimeTracker) tick(key model.TopicKey, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[key]
	if !ok || timer.gen != gen {
		return
	}
	acc := t.accs[key]
	t.fold(acc)
	sendTimeUpdate(t.broadcaster, timer.connID, key, acc.totalTime)
}

// fold moves whole elapsed seconds into the total and keeps the remainder
func (t *TimeTracker) fold(acc *accumulator) {
	secs := int(t.now().Sub(acc.startTime) / time.Second)
	if secs <= 0 {
		return
	}
	acc.totalTime += secs
	acc.startTime = acc.startTime.Add(time.Duration(secs) * time.Second)
}

// StopTopic pauses tracking and emits the final total to connID.
// Stopping a key that is not being tracked changes nothing.
func (t *TimeTracker) StopTopic(connID, userID, topicID string) (int, error) {
	if userID == "" || topicID == "" {
		return 0, ErrMissingIdentifiers
	}
	key := model.TopicKey{UserID: userID, TopicID: topicID}

	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accs[key]
	if !ok {
		return 0, nil
	}
	if _, tracking := t.timers[key]; !tracking {
		return acc.totalTime, nil
	}

	t.fold(acc)
	sendTimeUpdate(t.broadcaster, connID, key, acc.totalTime)
	t.cancelLocked(key)
	t.mirror(key, acc.totalTime)

	t.logger.Debug("topic stopped",
		zap.String("userId", userID),
		zap.String("topicId", topicID),
		zap.Int("totalTime", acc.totalTime),
	)
	return acc.totalTime, nil
}

// Disconnect cancels every timer owned by connID.
// The interval since the last tick is not counted.
func (t *TimeTracker) Disconnect(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		if timer.connID != connID {
			continue
		}
		t.cancelLocked(key)
		t.mirror(key, t.accs[key].totalTime)
	}
}

// TimeSpent returns the total for a key, consulting the store for keys
// unknown in memory
func (t *TimeTracker) TimeSpent(ctx context.Context, userID, topicID string) (int, bool, error) {
	if userID == "" || topicID == "" {
		return 0, false, ErrMissingIdentifiers
	}
	key := model.TopicKey{UserID: userID, TopicID: topicID}

	t.mu.Lock()
	acc, ok := t.accs[key]
	var total int
	if ok {
		total = acc.totalTime
	}
	t.mu.Unlock()

	if ok {
		return total, true, nil
	}
	if t.store == nil {
		return 0, false, nil
	}
	total, found, err := t.store.GetTotal(ctx, userID, topicID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read topic time: %w", err)
	}
	return total, found, nil
}

// Tracking reports whether a key currently has an armed timer
func (t *TimeTracker) Tracking(userID, topicID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[model.TopicKey{UserID: userID, TopicID: topicID}]
	return ok
}

// Wait blocks until pending store writes have returned
func (t *TimeTracker) Wait() {
	t.pending.Wait()
}

func (t *TimeTracker) cancelLocked(key model.TopicKey) {
	delete(t.timers, key)
	t.scheduler.Cancel(topicTag(key))
}

func (t *TimeTracker) mirror(key model.TopicKey, total int) {
	if t.store == nil {
		return
	}
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("recovered from panic in topic store", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), defaultStoreTimeout)
		defer cancel()
		if err := t.store.SetTotal(ctx, key.UserID, key.TopicID, total); err != nil {
			t.logger.Warn("failed to store topic time",
				zap.String("userId", key.UserID),
				zap.String("topicId", key.TopicID),
				zap.Error(err),
			)
		}
	}()
}
