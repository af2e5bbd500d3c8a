// Package auditlog records security-relevant user actions without blocking
// the caller. Records are queued and written by a background goroutine;
// failures are logged and dropped.
package auditlog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/metrics"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// Severity levels.
const (
	SeverityInfo     = "INFO"
	SeverityWarn     = "WARN"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// Actions.
const (
	ActionLogin              = "AUTH_LOGIN"
	ActionLoginFailed        = "AUTH_LOGIN_FAILED"
	ActionLogout             = "AUTH_LOGOUT"
	ActionScanBarcode        = "SCAN_EAN"
	ActionScanMeal           = "SCAN_MEAL"
	ActionMealAdded          = "MEAL_ADDED"
	ActionMealDeleted        = "MEAL_DELETED"
	ActionOnboardingComplete = "ONBOARDING_COMPLETE"
	ActionProfileUpdated     = "PROFILE_UPDATED"
)

const writeTimeout = 5 * time.Second

// Logger queues audit records for a storage.AuditWriter.
type Logger struct {
	w   storage.AuditWriter
	log *zap.Logger
	now func() time.Time

	mu     sync.RWMutex
	closed bool
	ch     chan storage.AuditRecord
	done   chan struct{}
}

// New starts the background writer. buffer is the queue capacity.
func New(w storage.AuditWriter, buffer int, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer < 0 {
		buffer = 0
	}
	l := &Logger{
		w:    w,
		log:  log.Named("audit"),
		now:  time.Now,
		ch:   make(chan storage.AuditRecord, buffer),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Log enqueues r and returns immediately. It reports false when the record
// was dropped because the queue is full or the logger is closed.
func (l *Logger) Log(r storage.AuditRecord) bool {
	if r.Severity == "" {
		r.Severity = SeverityInfo
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	select {
	case l.ch <- r:
		return true
	default:
		metrics.AuditDropped.WithLabelValues("queue_full").Inc()
		l.log.Warn("audit queue full, dropping record", zap.String("action", r.Action))
		return false
	}
}

func (l *Logger) run() {
	defer close(l.done)
	for r := range l.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := l.w.WriteAudit(ctx, r)
		cancel()
		if err != nil {
			metrics.AuditDropped.WithLabelValues("write_failed").Inc()
			l.log.Warn("audit write failed",
				zap.String("action", r.Action),
				zap.String("user_id", r.UserID),
				zap.Error(err))
		}
	}
}

// Close stops accepting records and waits for queued ones to be written,
// or for ctx to end.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
