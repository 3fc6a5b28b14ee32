package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/amana-transportation/fleetview/internal/dashboard"
	"github.com/amana-transportation/fleetview/internal/selection"
)

// Conn is the part of *nats.Conn the publisher uses
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher emits selection changes as JSON events. Only state changes
// are published; no-op events are dropped.
type NATSPublisher struct {
	dashboard.NopObserver

	nc      Conn
	prefix  string
	metrics PublisherMetrics
	now     func() time.Time
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("fleetview"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return newPublisher(nc, prefix, m), nil
}

func newPublisher(nc Conn, prefix string, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix, metrics: m, now: time.Now}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// SelectionMessage is the payload of one selection change
type SelectionMessage struct {
	SessionID string          `json:"sessionId"`
	Event     string          `json:"event"`
	From      selection.State `json:"from"`
	To        selection.State `json:"to"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// Transitioned implements dashboard.Observer. Publish errors are logged and
// counted; they never fail the dashboard event.
func (p *NATSPublisher) Transitioned(sessionID string, t selection.Transition) {
	if !t.Changed() {
		return
	}
	msg := SelectionMessage{
		SessionID: sessionID,
		Event:     t.Event,
		From:      t.From,
		To:        t.To,
		Status:    t.To.String(),
		Timestamp: p.now().UTC(),
	}
	if err := p.PublishSelection(msg); err != nil {
		log.Printf("nats publish failed for session %s: %v", sessionID, err)
	}
}

// PublishSelection sends msg on <prefix>.<session>.<event>
func (p *NATSPublisher) PublishSelection(msg SelectionMessage) error {
	subject := p.subject(msg.SessionID, msg.Event)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func (p *NATSPublisher) subject(sessionID, event string) string {
	if p.prefix == "" {
		return fmt.Sprintf("%s.%s", subjectToken(sessionID), subjectToken(event))
	}
	return fmt.Sprintf("%s.%s.%s", p.prefix, subjectToken(sessionID), subjectToken(event))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
