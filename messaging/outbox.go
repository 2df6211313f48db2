package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/store"
)

const drainBatch = 50

// Enqueue stores env in the outbox for later delivery to topic.
func Enqueue(db *store.DB, topic string, env *Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return db.EnqueueOutbox(topic, data, env.Type, env.Src)
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db       *store.DB
	pub      Publisher
	interval time.Duration
	log      *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

func NewOutboxDrainer(db *store.DB, pub Publisher, interval time.Duration, log *zap.Logger) *OutboxDrainer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboxDrainer{
		db:       db,
		pub:      pub,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	if d.started.CompareAndSwap(false, true) {
		go d.run()
	}
}

// Stop halts the drainer and waits for an in-flight drain to finish.
func (d *OutboxDrainer) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	if d.started.Load() {
		<-d.done
	}
}

func (d *OutboxDrainer) run() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.Drain(context.Background())
		}
	}
}

// Drain sends one batch of pending messages and returns how many were
// delivered. Failed messages stay pending with their retry count bumped.
func (d *OutboxDrainer) Drain(ctx context.Context) int {
	msgs, err := d.db.ListPendingOutbox(drainBatch)
	if err != nil {
		d.log.Error("list pending outbox", zap.Error(err))
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.pub.Publish(ctx, msg.Topic, msg.Payload); err != nil {
			d.log.Warn("outbox publish failed",
				zap.String("topic", msg.Topic),
				zap.Int64("id", msg.ID),
				zap.Int("retries", msg.Retries),
				zap.Error(err))
			if err := d.db.IncrementOutboxRetries(msg.ID); err != nil {
				d.log.Error("bump outbox retries", zap.Int64("id", msg.ID), zap.Error(err))
			}
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			d.log.Error("ack outbox", zap.Int64("id", msg.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
