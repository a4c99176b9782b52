package natsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber with core NATS
// subscriptions. Subscriptions end when the context passed to Subscribe*
// is done, or on Close.
type Subscriber struct {
	conn   *nats.Conn
	origin string

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS. Dataset notices published with the same
// origin are ignored.
func NewSubscriber(url, origin string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn, origin: origin}, nil
}

func (s *Subscriber) SubscribeAudioSettings(ctx context.Context, handler func(ctx context.Context, a domain.AudioSettings) error) error {
	return s.subscribe(ctx, SubjectAudioSettings, func(msg *nats.Msg) {
		a, err := decodeAudioSettings(msg.Data)
		if err != nil {
			slog.Warn("dropping audio settings message", "error", err)
			return
		}
		if err := handler(ctx, a); err != nil {
			slog.Warn("audio settings handler failed", "error", err)
		}
	})
}

func (s *Subscriber) SubscribeDatasetChanged(ctx context.Context, handler func(ctx context.Context, source string) error) error {
	return s.subscribe(ctx, SubjectDatasetChanged, func(msg *nats.Msg) {
		c, err := decodeDatasetChange(msg.Data)
		if err != nil {
			slog.Warn("dropping dataset change message", "error", err)
			return
		}
		if c.Origin != "" && c.Origin == s.origin {
			return
		}
		if err := handler(ctx, c.Source); err != nil {
			slog.Warn("dataset change handler failed", "source", c.Source, "error", err)
		}
	})
}

func (s *Subscriber) subscribe(ctx context.Context, subject string, cb nats.MsgHandler) error {
	sub, err := s.conn.Subscribe(subject, cb)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	context.AfterFunc(ctx, func() { _ = sub.Unsubscribe() })
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
	s.mu.Unlock()
	_ = s.conn.Drain()
}
