package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
	"github.com/samirrijal/tactilemap/internal/pkg/metrics"
)

const (
	localSessionID = "session_id"

	pingInterval  = 5 * time.Second
	clientTimeout = 10 * time.Second
)

// clientMessage is sent by the touch device.
//
//	{"type":"touch","phase":"start","touches":[{"id":0,"x":10,"y":20,"timestamp":1.5}],"changed":[...]}
//	{"type":"resize","width":1024,"height":768}
type clientMessage struct {
	Type    string               `json:"type"`
	Phase   domain.Phase         `json:"phase"`
	Touches []domain.TouchSample `json:"touches"`
	Changed []domain.TouchSample `json:"changed"`
	Width   float64              `json:"width"`
	Height  float64              `json:"height"`
}

// serverMessage is pushed to the touch device: speech, tone control,
// session greeting and errors.
type serverMessage struct {
	Type      string   `json:"type"`
	Session   string   `json:"session,omitempty"`
	Text      string   `json:"text,omitempty"`
	Utterance uint64   `json:"utterance,omitempty"`
	Action    string   `json:"action,omitempty"`
	Hz        float64  `json:"hz,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// wsSink implements the speech and audio sinks by sending JSON to the
// device, which owns the synthesiser and oscillator. A newer utterance
// number tells the device to cancel the one in progress.
type wsSink struct {
	mu        sync.Mutex
	write     func(data []byte) error
	utterance uint64
}

func newWSSink(write func(data []byte) error) *wsSink {
	return &wsSink{write: write}
}

func (s *wsSink) send(m serverMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

func (s *wsSink) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	s.utterance++
	n := s.utterance
	s.mu.Unlock()
	return s.send(serverMessage{Type: "speak", Text: text, Utterance: n})
}

func (s *wsSink) SetFrequency(hz float64) error {
	return s.send(serverMessage{Type: "tone", Action: "frequency", Hz: hz})
}

func (s *wsSink) PlayTone() error {
	return s.send(serverMessage{Type: "tone", Action: "play"})
}

func (s *wsSink) PauseTone() error {
	return s.send(serverMessage{Type: "tone", Action: "pause"})
}

func (s *wsSink) SetVolume(v float64) error {
	return s.send(serverMessage{Type: "tone", Action: "volume", Volume: &v})
}

// WebSocketUpgrade rejects plain HTTP on /ws and assigns a session id.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals(localSessionID, uuid.NewString())
		return c.Next()
	}
}

// WebSocketHandler runs one touch session per connection. The screen size
// may be given as ?width=&height= and changed later with a resize message.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id, _ := c.Locals(localSessionID).(string)
		if id == "" {
			id = uuid.NewString()
		}
		log := slog.Default().With("session", id, "remote", c.RemoteAddr().String())

		var writeMu sync.Mutex
		write := func(msgType int, data []byte) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = c.SetWriteDeadline(time.Now().Add(clientTimeout))
			return c.WriteMessage(msgType, data)
		}
		sink := newWSSink(func(data []byte) error { return write(websocket.TextMessage, data) })

		width := queryFloat(c.Query("width"), deps.Defaults.ScreenWidth)
		height := queryFloat(c.Query("height"), deps.Defaults.ScreenHeight)
		vp, err := viewport.New(deps.Defaults.Bounds, width, height)
		if err != nil {
			_ = sink.send(serverMessage{Type: "error", Message: err.Error()})
			return
		}
		session, err := usecases.NewTouchSession(id, vp, deps.sessionDeps(), sink, sink)
		if err != nil {
			_ = sink.send(serverMessage{Type: "error", Message: err.Error()})
			return
		}

		deps.Sessions.Add(session)
		metrics.ActiveSessions.Inc()
		log.Info("touch session connected", "width", width, "height", height)
		defer func() {
			deps.Sessions.Remove(id)
			metrics.ActiveSessions.Dec()
			log.Info("touch session disconnected")
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_ = sink.send(serverMessage{Type: "session", Session: id})
		session.Start()

		_ = c.SetReadDeadline(time.Now().Add(clientTimeout))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(clientTimeout))
		})

		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				log.Debug("read ended", "error", err)
				return
			}
			_ = c.SetReadDeadline(time.Now().Add(clientTimeout))

			if reply := handleClientMessage(ctx, session, raw); reply != nil {
				_ = sink.send(*reply)
			}
		}
	}
}

// handleClientMessage applies one device message to the session and
// returns an error reply, or nil.
func handleClientMessage(ctx context.Context, session *usecases.TouchSession, raw []byte) *serverMessage {
	var m clientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return &serverMessage{Type: "error", Message: "invalid JSON"}
	}

	switch m.Type {
	case "touch":
		res, err := session.HandleTouch(ctx, domain.TouchEvent{Phase: m.Phase, Touches: m.Touches, Changed: m.Changed})
		if err != nil {
			return &serverMessage{Type: "error", Message: err.Error()}
		}
		if res.Feedback.Sampled {
			metrics.TouchSamples.Inc()
		}
		if res.Feedback.Utterance != "" {
			metrics.Announcements.Inc()
		}
		if res.Recognized {
			metrics.Gestures.WithLabelValues(string(res.Gesture)).Inc()
		}
		return nil
	case "resize":
		if err := session.Resize(m.Width, m.Height); err != nil {
			return &serverMessage{Type: "error", Message: err.Error()}
		}
		return nil
	}
	return &serverMessage{Type: "error", Message: fmt.Sprintf("unknown message type %q", m.Type)}
}

func queryFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
