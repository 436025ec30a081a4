package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/observability"
)

// PersonalRoom names the room every user is auto-joined to on connect.
func PersonalRoom(userID string) string {
	return "user:" + userID
}

// publisher forwards room events to peer nodes. Implemented by Bridge; nil
// when the process runs standalone.
type publisher interface {
	Publish(room, event string, payload any)
}

// Registry tracks every live session and its room memberships, and owns the
// system's only fan-out primitive. All components address peers through
// rooms; nothing outside this package holds direct session references.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Session]struct{}
	joined map[*Session]map[string]struct{}

	bridge publisher
	log    zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Session]struct{}),
		joined: make(map[*Session]map[string]struct{}),
		log:    logger.With().Str("component", "session_registry").Logger(),
	}
}

// AttachBridge wires cross-node fan-out. Must be called before traffic.
func (r *Registry) AttachBridge(b publisher) {
	r.bridge = b
}

// Add registers a session, starts its writer and joins its personal room.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.joined[s] = make(map[string]struct{})
	r.mu.Unlock()

	go s.writer()
	r.Join(s, PersonalRoom(s.UserID))

	observability.RealtimeConnections().Inc()
	r.log.Debug().Str("user_id", s.UserID).Msg("session registered")
}

// Join adds the session to a named room. Idempotent; joining twice is a
// no-op. Unknown sessions are ignored.
func (r *Registry) Join(s *Session, room string) {
	if room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	memberships, ok := r.joined[s]
	if !ok {
		return
	}
	if _, ok := memberships[room]; ok {
		return
	}

	memberships[room] = struct{}{}
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[*Session]struct{})
	}
	r.rooms[room][s] = struct{}{}
}

// Remove drops the session from every room and closes it. No further events
// are delivered to or accepted from it.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	memberships, ok := r.joined[s]
	if ok {
		for room := range memberships {
			if members, exists := r.rooms[room]; exists {
				delete(members, s)
				if len(members) == 0 {
					delete(r.rooms, room)
				}
			}
		}
		delete(r.joined, s)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	s.close()
	observability.RealtimeConnections().Dec()
	r.log.Debug().Str("user_id", s.UserID).Msg("session removed")
}

// SendToRoom delivers an event to every member of a room, here and on peer
// nodes. An empty room is a no-op, not an error. Best effort, at-most-once.
func (r *Registry) SendToRoom(room, event string, payload any) {
	r.deliverLocal(room, event, payload)
	if r.bridge != nil {
		r.bridge.Publish(room, event, payload)
	}
}

// Broadcast sends an event to every connected session.
func (r *Registry) Broadcast(event string, payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.joined {
		s.trySend(event, payload)
	}
}

// BroadcastExcept sends an event to every session other than the given one.
func (r *Registry) BroadcastExcept(except *Session, event string, payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.joined {
		if s == except {
			continue
		}
		s.trySend(event, payload)
	}
}

// SessionCount reports the number of live sessions on this node.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined)
}

// RoomSize reports the local membership of a room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// deliverLocal fans out to sessions on this node only; bridge consumption
// lands here to avoid publish loops.
func (r *Registry) deliverLocal(room, event string, payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.rooms[room] {
		s.trySend(event, payload)
	}
}
