package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

const (
	streamName = "TACTILEMAP_EVENTS"

	subjectEvents         = "tactilemap.events.>"
	subjectGesture        = "tactilemap.events.gesture."
	subjectAnnouncement   = "tactilemap.events.announcement."
	SubjectDatasetChanged = "tactilemap.dataset.changed"
	SubjectAudioSettings  = "tactilemap.settings.audio"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
// Session events go to a stream; dataset notices are plain publishes so
// every running instance sees them.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	origin string
}

// NewPublisher connects to NATS and enables JetStream. origin identifies
// this process in dataset notices.
func NewPublisher(url, origin string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectEvents},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js, origin: origin}, nil
}

func (p *Publisher) PublishGesture(ctx context.Context, sessionID string, kind domain.GestureKind) error {
	data, err := encodeEvent(map[string]interface{}{
		"session": sessionID,
		"gesture": string(kind),
		"at":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectGesture+sessionID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishAnnouncement(ctx context.Context, sessionID, text string) error {
	data, err := encodeEvent(map[string]interface{}{
		"session": sessionID,
		"text":    text,
		"at":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectAnnouncement+sessionID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishDatasetChanged(ctx context.Context, source string) error {
	data, err := encodeDatasetChange(datasetChange{Origin: p.origin, Source: source})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectDatasetChanged, data)
}

// PublishAudioSettings broadcasts new audio settings to every instance.
func (p *Publisher) PublishAudioSettings(ctx context.Context, a domain.AudioSettings) error {
	data, err := encodeAudioSettings(a)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectAudioSettings, data)
}

// Conn exposes the connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection that keeps reconnecting.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("tactilemap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
