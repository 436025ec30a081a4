package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/observability"
)

const (
	sessionSendBuffer = 32
	keepaliveInterval = 30 * time.Second

	// websocket.PingMessage; kept as a literal so fakes in tests do not need
	// a websocket dependency.
	pingMessage = 9
)

// Conn is the minimal surface a session needs from its transport. Both
// *websocket.Conn and the in-memory fakes used by tests satisfy it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// pinger is implemented by real websocket connections; fakes may omit it.
type pinger interface {
	WriteMessage(messageType int, data []byte) error
}

// Session is one authenticated live connection. It is created after the
// credential check succeeds and destroyed on disconnect; nothing about it is
// persisted.
type Session struct {
	UserID   string
	UserName string
	Role     string

	conn   Conn
	send   chan dto.EnvelopeOut
	closed chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

// NewSession wraps a verified connection.
func NewSession(conn Conn, userID, userName, role string, logger zerolog.Logger) *Session {
	return &Session{
		UserID:   userID,
		UserName: userName,
		Role:     role,
		conn:     conn,
		send:     make(chan dto.EnvelopeOut, sessionSendBuffer),
		closed:   make(chan struct{}),
		log:      logger.With().Str("component", "session").Str("user_id", userID).Logger(),
	}
}

// trySend queues an event for the writer without blocking. Slow consumers
// lose events rather than stalling the sender; delivery is at-most-once.
func (s *Session) trySend(event string, payload any) {
	select {
	case <-s.closed:
		return
	default:
	}

	select {
	case s.send <- dto.EnvelopeOut{Event: event, Data: payload}:
	default:
		observability.RealtimeDropped().WithLabelValues(event).Inc()
		s.log.Warn().Str("event", event).Msg("dropping event for slow session")
	}
}

// writer drains the send queue onto the connection and keeps it alive with
// periodic pings. Runs until the session closes or a write fails.
func (s *Session) writer() {
	defer s.close()

	for {
		select {
		case envelope, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.WriteJSON(envelope); err != nil {
				s.log.Debug().Err(err).Msg("session write loop terminated")
				return
			}
		case <-time.After(keepaliveInterval):
			p, ok := s.conn.(pinger)
			if !ok {
				continue
			}
			if err := p.WriteMessage(pingMessage, []byte("keepalive")); err != nil {
				s.log.Debug().Err(err).Msg("session ping failed")
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// Closed reports whether the session has shut down.
func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
