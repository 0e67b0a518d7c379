package queue

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/api/metrics"
	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes inbound chat events to a fixed set of workers using
// consistent hashing on the conversation id. All events of one conversation
// land on the same worker, so a step handler's read-modify-write of session
// state never interleaves with another event for the same user; different
// conversations run fully concurrently.
type Dispatcher struct {
	workers   []chan domain.Event
	processor ports.EventProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.EventProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.Event, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker owning its conversation. Blocks only
// when that worker's buffer is full, so a slow conversation cannot starve
// the others.
func (d *Dispatcher) Enqueue(event domain.Event) {
	idx := d.shardIndex(event.ConversationID)
	metrics.EventsReceivedTotal.WithLabelValues(kindLabel(event.Kind)).Inc()
	d.workers[idx] <- event
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a conversation id deterministically to a worker index.
func (d *Dispatcher) shardIndex(conversationID int64) int {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(conversationID))
	h := fnv.New32a()
	_, _ = h.Write(buf[:])
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.processor.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Int64("conversation_id", event.ConversationID).
					Int("worker_id", id).
					Msg("event processing failed")
			}
			metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

func kindLabel(kind domain.EventKind) string {
	if kind == domain.KindCallback {
		return "callback"
	}
	return "message"
}
