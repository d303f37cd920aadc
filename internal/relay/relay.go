// Package relay routes generation events to the connections subscribed
// to a session. The registry owns session lifecycle and room membership;
// transports (websocket, SSE) plug in behind the Subscriber interface.
package relay

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
)

// Subscriber is one live client connection. Send must not block: a
// subscriber that cannot accept the message returns false and is
// dropped from the room without affecting delivery to others.
type Subscriber interface {
	ID() string
	Send(msg models.WSMessage) bool
}

type session struct {
	id        string
	projectID string
	status    models.SessionStatus
	progress  int
}

// Registry maps session ids to live generation runs and fans published
// events out to the room subscribed to each session. All methods are
// safe for concurrent use; fan-out for a given session happens under
// the registry lock, so every subscriber observes publishes in call
// order.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*session
	byProject map[string]string
	rooms     map[string]map[string]Subscriber
}

func New() *Registry {
	return &Registry{
		sessions:  make(map[string]*session),
		byProject: make(map[string]string),
		rooms:     make(map[string]map[string]Subscriber),
	}
}

// Start allocates a new ACTIVE session for the project and returns its
// id. A project may have at most one ACTIVE session; a second Start
// before End fails with a conflict.
func (r *Registry) Start(projectID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sid, ok := r.byProject[projectID]; ok {
		return "", apperr.Conflict("project %s already has active session %s", projectID, sid)
	}

	sid := uuid.New().String()
	r.sessions[sid] = &session{id: sid, projectID: projectID, status: models.SessionActive}
	r.byProject[projectID] = sid
	r.rooms[sid] = make(map[string]Subscriber)
	return sid, nil
}

// Join subscribes a connection to all future events for the session.
// Joining twice is a no-op. An unknown session id is not an error; the
// connection simply never receives anything.
func (r *Registry) Join(sub Subscriber, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[sessionID]
	if !ok {
		return
	}
	room[sub.ID()] = sub
}

// Leave removes the connection from every room it joined. Called on
// disconnect.
func (r *Registry) Leave(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		delete(room, sub.ID())
	}
}

// Publish delivers msg to every current subscriber of the session, in
// the order Publish was called. Subscribers that fail to accept the
// message are dropped. Publishing to an ended or unknown session is a
// warn-logged no-op.
func (r *Registry) Publish(sessionID string, msg models.WSMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.status != models.SessionActive {
		log.Printf("relay: publish to inactive session %s dropped (type=%s)", sessionID, msg.Type)
		return
	}

	if msg.SessionID == "" {
		msg.SessionID = sessionID
	}
	if p, ok := msg.Payload.(models.ProgressPayload); ok && p.Progress > s.progress {
		s.progress = p.Progress
	}

	for id, sub := range r.rooms[sessionID] {
		if !sub.Send(msg) {
			delete(r.rooms[sessionID], id)
		}
	}
}

// End marks the session COMPLETED or FAILED, stops further publishes,
// and releases room bookkeeping. Ending an unknown session is a no-op.
func (r *Registry) End(sessionID string, final models.SessionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	s.status = final
	delete(r.byProject, s.projectID)
	delete(r.rooms, sessionID)
}

// Active returns the id of the project's ACTIVE session, if any.
func (r *Registry) Active(projectID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sid, ok := r.byProject[projectID]
	return sid, ok
}

// Progress returns the highest progress published for the session.
func (r *Registry) Progress(sessionID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return 0, false
	}
	return s.progress, true
}
