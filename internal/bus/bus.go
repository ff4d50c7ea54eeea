// Package bus carries work requests between the workflow manager and the
// detector and markup workers.
//
// Messages travel on named queues with competing-consumer semantics: each
// message is received by exactly one consumer. Replies are sent to the queue
// named in ReplyTo and matched by CorrelationID. Bodies are msgpack encoded
// with the same field names as the JSON forms of the payload types.
//
// Memory is the in-process implementation used by the daemon and tests. A
// networked broker can satisfy the same Bus interface.
package bus

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by operations on a closed bus.
	ErrClosed = errors.New("bus closed")
	// ErrQueueDeleted is returned when publishing to or receiving from a
	// queue that was deleted.
	ErrQueueDeleted = errors.New("queue deleted")
	// ErrNoQueue is returned for messages without a destination queue.
	ErrNoQueue = errors.New("message has no queue")
)

// Message is one envelope on the bus.
type Message struct {
	ID            string            `json:"id"`
	Queue         string            `json:"queue"`
	ReplyTo       string            `json:"reply_to,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Type          string            `json:"type"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          []byte            `json:"body"`
	PublishedAt   time.Time         `json:"published_at"`
}

// Bus is the transport contract.
type Bus interface {
	// Publish enqueues msg, blocking while the queue is full.
	Publish(ctx context.Context, msg Message) error
	// Receive blocks until a message is available on queue.
	Receive(ctx context.Context, queue string) (Message, error)
	// Delete drops queue and any pending messages. Later operations on the
	// queue fail with ErrQueueDeleted.
	Delete(queue string) error
	// Close releases the bus. Blocked operations return ErrClosed.
	Close() error
}

// Stats is a point-in-time view of bus activity.
type Stats struct {
	Published uint64         `json:"published"`
	Delivered uint64         `json:"delivered"`
	Depths    map[string]int `json:"depths"`
}

// NewMessage encodes payload into a message addressed to queue.
func NewMessage(queue, msgType string, payload any) (Message, error) {
	body, err := Encode(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:    uuid.NewString(),
		Queue: queue,
		Type:  msgType,
		Body:  body,
	}, nil
}

// Reply builds the response to req, addressed to its ReplyTo queue and
// carrying its correlation id.
func Reply(req Message, msgType string, payload any) (Message, error) {
	msg, err := NewMessage(req.ReplyTo, msgType, payload)
	if err != nil {
		return Message{}, err
	}
	msg.CorrelationID = req.CorrelationID
	return msg, nil
}
