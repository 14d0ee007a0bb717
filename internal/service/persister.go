package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the durable key-value collaborator. Implementations must be safe
// for concurrent use.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
}

const persistTimeout = 10 * time.Second

type writeRequest struct {
	key   string
	value string
}

// Persister is a single writer in front of a Store. Enqueued values are
// coalesced per key until the writer picks them up and written in the order
// the keys were first enqueued; the last value for a key wins. Write failures
// are logged and dropped.
type Persister struct {
	store    Store
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	pending []writeRequest
	index   map[string]int
	flushes []chan struct{}

	wake chan struct{}
	done chan struct{}
}

// NewPersister starts the writer goroutine. A zero debounce starts writing as
// soon as a value is enqueued.
func NewPersister(store Store, log *zap.Logger, debounce time.Duration) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Persister{
		store:    store,
		log:      log.Named("persister"),
		debounce: debounce,
		index:    make(map[string]int),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules value to be written under key. It never waits for the
// write itself, even while the store is slow.
func (p *Persister) Enqueue(key, value string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("write dropped after close", zap.String("key", key))
		return
	}
	if i, seen := p.index[key]; seen {
		p.pending[i].value = value
	} else {
		p.index[key] = len(p.pending)
		p.pending = append(p.pending, writeRequest{key: key, value: value})
	}
	p.mu.Unlock()

	p.signal()
}

// Flush writes everything enqueued so far and waits for it to finish.
func (p *Persister) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.flushes = append(p.flushes, ack)
	p.mu.Unlock()
	p.signal()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.signal()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run() {
	defer close(p.done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	for {
		fired := false
		select {
		case <-p.wake:
		case <-timerC:
			timer, timerC, fired = nil, nil, true
		}

		p.mu.Lock()
		closed, flushing := p.closed, len(p.flushes) > 0
		p.mu.Unlock()

		if p.debounce > 0 && !fired && !closed && !flushing {
			if timer == nil {
				timer = time.NewTimer(p.debounce)
				timerC = timer.C
			}
			continue
		}
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}

		p.writePending()
		if closed {
			return
		}
	}
}

// writePending takes the current batch under the lock and writes it without
// holding it, so Enqueue keeps collecting while the store is busy.
func (p *Persister) writePending() {
	p.mu.Lock()
	batch, acks := p.pending, p.flushes
	p.pending, p.flushes = nil, nil
	clear(p.index)
	p.mu.Unlock()

	for _, req := range batch {
		p.write(req)
	}
	for _, ack := range acks {
		close(ack)
	}
}

func (p *Persister) write(req writeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := p.store.SetItem(ctx, req.key, req.value); err != nil {
		p.log.Error("persist item", zap.String("key", req.key), zap.Error(err))
		return
	}
	p.log.Debug("persisted item", zap.String("key", req.key), zap.Int("bytes", len(req.value)))
}
