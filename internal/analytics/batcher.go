package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize     = 10
	DefaultFlushInterval = 5 * time.Second

	// heartbeatInterval is how often a time_on_page event is emitted.
	heartbeatInterval = 30 * time.Second
)

type Config struct {
	WebsiteID     string
	Endpoint      string
	BatchSize     int
	FlushInterval time.Duration
}

// Batcher buffers tracked events in an ordered in-memory queue and delivers
// them in batches: on a fixed interval, when the queue reaches the batch
// size, and best-effort on shutdown. Delivery failures are internal; they
// are logged and retried, never surfaced to the host flow.
type Batcher struct {
	mu        sync.Mutex
	flushMu   sync.Mutex
	cfg       Config
	sessionID string
	userID    string
	queue     []Event
	enabled   bool
	started   time.Time

	sender   Sender
	snapshot SnapshotFunc
	logger   *zap.SugaredLogger
}

// New builds a batcher with a fresh session ID. A missing website ID or
// endpoint disables it: tracking calls become logged no-ops and no network
// call is ever made.
func New(cfg Config, sender Sender, snapshot SnapshotFunc, logger *zap.SugaredLogger) *Batcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if snapshot == nil {
		snapshot = func() Snapshot { return Snapshot{} }
	}

	b := &Batcher{
		cfg:       cfg,
		sessionID: uuid.New().String(),
		enabled:   cfg.WebsiteID != "" && cfg.Endpoint != "",
		started:   time.Now(),
		sender:    sender,
		snapshot:  snapshot,
		logger:    logger,
	}

	if !b.enabled {
		logger.Warnw("analytics disabled: missing website id or endpoint")
		return b
	}

	// Synthetic page_view marks the start of the session
	b.Track("page_view", nil)
	return b
}

func (b *Batcher) SessionID() string {
	return b.sessionID
}

// Track enqueues one event with fresh descriptors and flushes immediately
// when the queue reaches the batch size. Never blocks on a failing
// collector and never panics when misconfigured.
func (b *Batcher) Track(name string, data map[string]interface{}) {
	if !b.enabled {
		b.logger.Warnw("track called on disabled batcher", "event", name)
		return
	}

	snap := b.snapshot()

	b.mu.Lock()
	b.queue = append(b.queue, Event{
		ID:        uuid.New().String(),
		Name:      name,
		Data:      data,
		Timestamp: time.Now(),
		SessionID: b.sessionID,
		UserID:    b.userID,
		Page:      snap.Page,
		Device:    snap.Device,
		Browser:   snap.Browser,
	})
	full := len(b.queue) >= b.cfg.BatchSize
	b.mu.Unlock()

	if full {
		b.Flush(context.Background(), false)
	}
}

// Identify sets the user ID for subsequent events (not retroactive to
// already-queued ones) and emits a marker event.
func (b *Batcher) Identify(userID string, userData map[string]interface{}) {
	if !b.enabled {
		b.logger.Warnw("identify called on disabled batcher")
		return
	}

	b.mu.Lock()
	b.userID = userID
	b.mu.Unlock()

	data := map[string]interface{}{"userId": userID}
	for k, v := range userData {
		data[k] = v
	}
	b.Track("user_identified", data)
}

// Convert emits a conversion marker event.
func (b *Batcher) Convert(name string, value float64, data map[string]interface{}) {
	if !b.enabled {
		b.logger.Warnw("convert called on disabled batcher")
		return
	}

	payload := map[string]interface{}{"conversion": name, "value": value}
	for k, v := range data {
		payload[k] = v
	}
	b.Track("conversion", payload)
}

// Flush delivers the queued events as one batch. Non-forced: the queue is
// cleared optimistically and the batch is pushed back to the front on
// failure, preserving original order for the next attempt. Forced (the
// shutdown path): the queue is cleared regardless of network outcome,
// trading delivery for not blocking teardown.
func (b *Batcher) Flush(ctx context.Context, force bool) error {
	// One flush at a time: a failed batch must be back at the front of the
	// queue before the next flush takes its snapshot, otherwise the timer
	// and size triggers firing together could requeue out of order.
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return nil
	}
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	err := b.sender.Send(ctx, Batch{
		Events:    batch,
		WebsiteID: b.cfg.WebsiteID,
		SessionID: b.sessionID,
		Timestamp: time.Now(),
	})
	if err == nil {
		return nil
	}

	if force {
		b.logger.Warnw("forced flush failed, discarding events", "count", len(batch), "error", err)
		return err
	}

	// Requeue at the front so the retry keeps original ordering relative to
	// events tracked while the send was in flight
	b.mu.Lock()
	b.queue = append(batch, b.queue...)
	b.mu.Unlock()

	b.logger.Warnw("flush failed, events requeued", "count", len(batch), "error", err)
	return err
}

// Run drives the periodic flush and the time_on_page heartbeat until the
// context is canceled, then performs the best-effort final flush.
func (b *Batcher) Run(ctx context.Context) {
	if !b.enabled {
		return
	}

	flushTicker := time.NewTicker(b.cfg.FlushInterval)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer flushTicker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-flushTicker.C:
			b.Flush(ctx, false)
		case <-heartbeat.C:
			b.Track("time_on_page", map[string]interface{}{
				"seconds": int(time.Since(b.started).Seconds()),
			})
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			b.Flush(flushCtx, true)
			cancel()
			return
		}
	}
}

// QueueLen reports how many events are waiting for the next flush.
func (b *Batcher) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
