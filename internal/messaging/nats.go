// Package messaging provides a NATS client wrapper for pub/sub messaging
// across chat-core services. It handles connection lifecycle, subject-based
// subscriptions, and convenience methods for the out-of-band moderation
// pipeline.
package messaging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subject patterns used across chat-core services.
const (
	// SubjectModerationSubmit carries gate.SubmitRequest payloads from
	// platform services that want a message evaluated.
	SubjectModerationSubmit = "moderation.submit"

	// SubjectModerationVerdict carries gate.SubmitResult payloads back,
	// suffixed with ".<submission_id>".
	SubjectModerationVerdict = "moderation.verdict"

	// SubjectRoomEvents carries history.RoomEvent payloads for cross-gateway
	// room fan-out, suffixed with ".<room_id>".
	SubjectRoomEvents = "room.events"
)

// Client wraps the NATS connection with helper methods for pub/sub.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "chat-core",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewClient connects to NATS with the given config and returns a ready client.
// It returns an error if the initial connection fails.
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &Client{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *Client) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// SubscribeModerationSubmit subscribes to moderation submissions from
// platform services.
func (c *Client) SubscribeModerationSubmit(handler func(data []byte)) error {
	return c.Subscribe(SubjectModerationSubmit, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishModerationVerdict publishes an evaluation outcome for a submission.
func (c *Client) PublishModerationVerdict(submissionID string, data []byte) error {
	return c.Publish(SubjectModerationVerdict+"."+submissionID, data)
}

// SubscribeModerationVerdict subscribes to the verdict for one submission.
func (c *Client) SubscribeModerationVerdict(submissionID string, handler func(data []byte)) error {
	return c.Subscribe(SubjectModerationVerdict+"."+submissionID, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishModerationSubmit publishes a submission for evaluation.
func (c *Client) PublishModerationSubmit(data []byte) error {
	return c.Publish(SubjectModerationSubmit, data)
}

// PublishRoomEvent publishes data to the room.events.<roomID> subject.
func (c *Client) PublishRoomEvent(roomID string, data []byte) error {
	return c.Publish(SubjectRoomEvents+"."+roomID, data)
}

// SubscribeRoomEvents subscribes to one room's event stream. Each client
// holds at most one subscription per room.
func (c *Client) SubscribeRoomEvents(roomID string, handler func(data []byte)) error {
	return c.Subscribe(SubjectRoomEvents+"."+roomID, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// UnsubscribeRoomEvents removes the subscription for one room's event stream.
func (c *Client) UnsubscribeRoomEvents(roomID string) error {
	return c.Unsubscribe(SubjectRoomEvents + "." + roomID)
}

// Unsubscribe removes the stored subscription for a subject, if any.
func (c *Client) Unsubscribe(subject string) error {
	c.mu.Lock()
	sub, ok := c.subs[subject]
	if ok {
		delete(c.subs, subject)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return sub.Unsubscribe()
}

// Close drains all subscriptions and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	for subject, sub := range c.subs {
		_ = sub.Unsubscribe()
		delete(c.subs, subject)
	}
	c.mu.Unlock()

	c.conn.Close()
}
