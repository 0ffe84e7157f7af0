package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"
)

// Writer persists a batch of audit entries.
type Writer interface {
	InsertAuditLogs(ctx context.Context, entries []events.Entry) error
}

// PublishFunc sends a payload to a bus subject.
type PublishFunc func(subject string, data []byte) error

// AlertFunc is notified of operational problems such as overflow or repeated
// write failures.
type AlertFunc func(ctx context.Context, subject, message string)

// Alert subjects.
const (
	SubjectBufferOverflow = "callboard.system.audit.buffer_overflow"
	SubjectWriteFailure   = "callboard.system.audit.write_failure"
)

// Batcher buffers audit entries and writes them in batches.
type Batcher struct {
	store          Writer
	flushInterval  time.Duration
	flushThreshold int
	bufferMax      int

	mu              sync.Mutex
	buffer          []events.Entry
	consecutiveFail int
	publish         PublishFunc
	alert           AlertFunc

	done chan struct{}
}

type Config struct {
	FlushInterval  time.Duration
	FlushThreshold int
	BufferMax      int
}

// DefaultFlushInterval is used when Config.FlushInterval is not positive.
const DefaultFlushInterval = 5 * time.Second

// New creates a batcher. Non-positive limits are raised to 1 and a
// non-positive interval falls back to DefaultFlushInterval.
func New(w Writer, cfg Config) *Batcher {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	cfg.FlushThreshold = max(cfg.FlushThreshold, 1)
	cfg.BufferMax = max(cfg.BufferMax, 1)
	return &Batcher{
		store:          w,
		flushInterval:  cfg.FlushInterval,
		flushThreshold: cfg.FlushThreshold,
		bufferMax:      cfg.BufferMax,
		buffer:         make([]events.Entry, 0, cfg.FlushThreshold),
		done:           make(chan struct{}),
	}
}

// SetPublisher sets the function used to fan flushed entries out to the bus.
func (b *Batcher) SetPublisher(fn PublishFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publish = fn
}

// SetAlerter sets the function notified on overflow and write failures.
func (b *Batcher) SetAlerter(fn AlertFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alert = fn
}

// Record enqueues an entry for batched writing.
func (b *Batcher) Record(e events.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Backpressure: drop oldest if buffer full.
	if len(b.buffer) >= b.bufferMax {
		dropped := len(b.buffer) - b.bufferMax + 1
		b.buffer = b.buffer[dropped:]
		slog.Warn("audit buffer overflow, dropping oldest entries", "dropped", dropped, "buffer_size", b.bufferMax)
		b.raise(SubjectBufferOverflow, "audit buffer overflow, dropping entries")
	}

	b.buffer = append(b.buffer, e)

	if len(b.buffer) >= b.flushThreshold {
		go b.flush()
	}
}

// Start begins the periodic flush ticker.
func (b *Batcher) Start(ctx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.flush()
			case <-ctx.Done():
				// Final flush on shutdown.
				b.flush()
				close(b.done)
				return
			}
		}
	}()
}

// Wait blocks until the batcher has completed its final flush.
func (b *Batcher) Wait() {
	<-b.done
}

// BufferLen returns the current buffer size (for health checks).
func (b *Batcher) BufferLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buffer
	b.buffer = make([]events.Entry, 0, b.flushThreshold)
	publish := b.publish
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.store.InsertAuditLogs(ctx, batch); err != nil {
		slog.Error("failed to insert audit logs", "error", err, "count", len(batch))
		b.handleWriteFailure(batch)
		return
	}

	b.mu.Lock()
	b.consecutiveFail = 0
	b.mu.Unlock()

	if publish != nil {
		for _, e := range batch {
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := publish(e.Subject(), data); err != nil {
				slog.Warn("failed to publish audit entry", "subject", e.Subject(), "error", err)
			}
		}
	}

	slog.Debug("audit batch flushed", "count", len(batch))
}

func (b *Batcher) handleWriteFailure(batch []events.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFail++

	// Re-queue the failed batch ahead of anything recorded since.
	b.buffer = append(batch, b.buffer...)

	if len(b.buffer) > b.bufferMax {
		b.buffer = b.buffer[len(b.buffer)-b.bufferMax:]
	}

	if b.consecutiveFail >= 3 {
		slog.Error("3 consecutive audit write failures", "buffer_size", len(b.buffer))
		b.raise(SubjectWriteFailure, "3 consecutive audit log write failures")
	}
}

// raise must be called with b.mu held.
func (b *Batcher) raise(subject, message string) {
	if b.publish != nil {
		data, _ := json.Marshal(map[string]string{"message": message})
		if err := b.publish(subject, data); err != nil {
			slog.Error("failed to publish alert", "subject", subject, "error", err)
		}
	}
	if b.alert != nil {
		go b.alert(context.Background(), subject, message)
	}
}
