package routine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reminder is a local notification due at At.
type Reminder struct {
	UserID  string    `json:"user_id"`
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Notifier schedules reminders. Scheduling replaces the user's pending one.
type Notifier interface {
	Schedule(ctx context.Context, r Reminder) error
	Cancel(ctx context.Context, userID string) error
}

// LogNotifier keeps the pending reminder per user and logs every change.
// It does not deliver anything.
type LogNotifier struct {
	logger  *zap.SugaredLogger
	mu      sync.Mutex
	pending map[string]Reminder
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger, pending: make(map[string]Reminder)}
}

func (n *LogNotifier) Schedule(_ context.Context, r Reminder) error {
	n.mu.Lock()
	n.pending[r.UserID] = r
	n.mu.Unlock()
	n.logger.Infow("reminder scheduled", "user", r.UserID, "at", r.At, "message", r.Message)
	return nil
}

func (n *LogNotifier) Cancel(_ context.Context, userID string) error {
	n.mu.Lock()
	_, ok := n.pending[userID]
	delete(n.pending, userID)
	n.mu.Unlock()
	if ok {
		n.logger.Infow("reminder cancelled", "user", userID)
	}
	return nil
}

// Pending returns the user's scheduled reminder, if any.
func (n *LogNotifier) Pending(userID string) (Reminder, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.pending[userID]
	return r, ok
}
