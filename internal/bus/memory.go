package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBufferSize bounds each in-memory queue.
const DefaultBufferSize = 256

// Memory is a goroutine-safe in-process Bus. Each queue is a buffered
// channel; publishers block while it is full.
type Memory struct {
	mu      sync.Mutex
	buffer  int
	queues  map[string]chan Message
	deleted map[string]struct{}
	done    chan struct{}
	closed  bool

	published atomic.Uint64
	delivered atomic.Uint64
}

// NewMemory creates a bus whose queues hold up to buffer messages.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Memory{
		buffer:  buffer,
		queues:  make(map[string]chan Message),
		deleted: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
}

func (b *Memory) queue(name string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if _, gone := b.deleted[name]; gone {
		return nil, fmt.Errorf("%w: %s", ErrQueueDeleted, name)
	}
	ch, ok := b.queues[name]
	if !ok {
		ch = make(chan Message, b.buffer)
		b.queues[name] = ch
	}
	return ch, nil
}

// Publish implements Bus.
func (b *Memory) Publish(ctx context.Context, msg Message) error {
	msg.Queue = strings.TrimSpace(msg.Queue)
	if msg.Queue == "" {
		return ErrNoQueue
	}
	ch, err := b.queue(msg.Queue)
	if err != nil {
		return err
	}
	if msg.PublishedAt.IsZero() {
		msg.PublishedAt = time.Now().UTC()
	}
	select {
	case ch <- msg:
		b.published.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// Receive implements Bus.
func (b *Memory) Receive(ctx context.Context, queue string) (Message, error) {
	ch, err := b.queue(strings.TrimSpace(queue))
	if err != nil {
		return Message{}, err
	}
	select {
	case msg := <-ch:
		b.delivered.Add(1)
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-b.done:
		return Message{}, ErrClosed
	}
}

// Delete implements Bus.
func (b *Memory) Delete(queue string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	delete(b.queues, queue)
	b.deleted[queue] = struct{}{}
	return nil
}

// Close implements Bus.
func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

// Stats returns counters and the current depth of every live queue.
func (b *Memory) Stats() Stats {
	b.mu.Lock()
	depths := make(map[string]int, len(b.queues))
	for name, ch := range b.queues {
		depths[name] = len(ch)
	}
	b.mu.Unlock()
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Depths:    depths,
	}
}
