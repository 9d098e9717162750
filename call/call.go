// Package call runs the signaling state machine for one-to-one calls.
// Call state lives in memory only; a restart drops every active call.
package call

import (
	"strconv"
	"sync"
	"time"

	"chat-service/apperr"
	"chat-service/config"
	"chat-service/registry"

	"github.com/google/uuid"
)

type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
	StateEnded    State = "ended"
	StateMissed   State = "missed"
)

type Kind string

const (
	KindVoice Kind = "voice"
	KindVideo Kind = "video"
)

// Socket event names pushed to call participants.
const (
	EventIncoming = "call_incoming"
	EventAccepted = "call_accepted"
	EventRejected = "call_rejected"
	EventEnded    = "call_ended"
	EventMissed   = "call_missed"
)

type Call struct {
	ID         string    `json:"id"`
	CallerID   uint      `json:"caller_id"`
	ReceiverID uint      `json:"receiver_id"`
	Kind       Kind      `json:"kind"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	AnsweredAt time.Time `json:"answered_at,omitempty"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

func (c *Call) involves(userID uint) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

func (c *Call) other(userID uint) uint {
	if c.CallerID == userID {
		return c.ReceiverID
	}
	return c.CallerID
}

// Manager tracks active calls under one mutex. Terminal calls linger for
// a short grace period so a racing answer still finds the row and gets a
// conflict instead of a not-found.
type Manager struct {
	mu    sync.Mutex
	calls map[string]*Call
	reg   *registry.Registry

	ringTimeout time.Duration
	evictDelay  time.Duration
}

func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		calls:       make(map[string]*Call),
		reg:         reg,
		ringTimeout: config.Duration("CALL_RING_TIMEOUT", 45*time.Second),
		evictDelay:  config.Duration("CALL_EVICT_DELAY", 5*time.Second),
	}
}

// Initiate rings the receiver. One active call per pair; the receiver
// must currently be reachable.
func (m *Manager) Initiate(callerID, receiverID uint, kind Kind) (*Call, error) {
	if callerID == receiverID {
		return nil, apperr.InvalidArgument("cannot call yourself")
	}
	if kind != KindVoice && kind != KindVideo {
		return nil, apperr.InvalidArgument("call kind must be voice or video")
	}
	if !m.reg.Registered(subject(receiverID)) {
		return nil, apperr.ErrUnavailable
	}

	m.mu.Lock()
	for _, c := range m.calls {
		if c.State != StatePending && c.State != StateAccepted {
			continue
		}
		if c.involves(callerID) || c.involves(receiverID) {
			m.mu.Unlock()
			return nil, apperr.Conflict("a call involving one of the parties is already active")
		}
	}
	c := &Call{
		ID:         uuid.NewString(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		Kind:       kind,
		State:      StatePending,
		StartedAt:  time.Now(),
	}
	m.calls[c.ID] = c
	snapshot := *c
	m.mu.Unlock()

	if !m.reg.Push(subject(receiverID), EventIncoming, snapshot) {
		m.mu.Lock()
		delete(m.calls, c.ID)
		m.mu.Unlock()
		return nil, apperr.ErrUnavailable
	}

	time.AfterFunc(m.ringTimeout, func() { m.timeout(c.ID) })
	return &snapshot, nil
}

// Accept answers a pending call.
func (m *Manager) Accept(callID string, userID uint) (*Call, error) {
	return m.transition(callID, userID, StateAccepted)
}

// Reject declines a pending call. When the caller rejects, the ring is
// cancelled.
func (m *Manager) Reject(callID string, userID uint) (*Call, error) {
	return m.transition(callID, userID, StateRejected)
}

// End hangs up an accepted call. Either participant.
func (m *Manager) End(callID string, userID uint) (*Call, error) {
	return m.transition(callID, userID, StateEnded)
}

// Get returns the call if userID participates in it.
func (m *Manager) Get(callID string, userID uint) (*Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !c.involves(userID) {
		return nil, apperr.Forbidden("not a participant of this call")
	}
	snapshot := *c
	return &snapshot, nil
}

func (m *Manager) transition(callID string, userID uint, to State) (*Call, error) {
	m.mu.Lock()
	c, ok := m.calls[callID]
	if !ok {
		m.mu.Unlock()
		return nil, apperr.ErrNotFound
	}
	if !c.involves(userID) {
		m.mu.Unlock()
		return nil, apperr.Forbidden("not a participant of this call")
	}

	var event string
	switch to {
	case StateAccepted, StateRejected:
		if c.State != StatePending {
			m.mu.Unlock()
			return nil, apperr.Conflict("call is no longer ringing")
		}
		if to == StateAccepted {
			c.AnsweredAt = time.Now()
			event = EventAccepted
		} else {
			event = EventRejected
		}
	case StateEnded:
		if c.State != StateAccepted {
			m.mu.Unlock()
			return nil, apperr.Conflict("call is not in progress")
		}
		event = EventEnded
	default:
		m.mu.Unlock()
		return nil, apperr.InvalidArgument("unknown call state")
	}

	c.State = to
	if to != StateAccepted {
		c.EndedAt = time.Now()
	}
	snapshot := *c
	m.mu.Unlock()

	m.reg.Push(subject(snapshot.CallerID), event, snapshot)
	m.reg.Push(subject(snapshot.ReceiverID), event, snapshot)

	if to != StateAccepted {
		m.scheduleEvict(snapshot.ID)
	}
	return &snapshot, nil
}

// timeout marks a still-pending call as missed once the ring window
// elapses.
func (m *Manager) timeout(callID string) {
	m.mu.Lock()
	c, ok := m.calls[callID]
	if !ok || c.State != StatePending {
		m.mu.Unlock()
		return
	}
	c.State = StateMissed
	c.EndedAt = time.Now()
	snapshot := *c
	m.mu.Unlock()

	m.reg.Push(subject(snapshot.CallerID), EventMissed, snapshot)
	m.reg.Push(subject(snapshot.ReceiverID), EventMissed, snapshot)
	m.scheduleEvict(callID)
}

func (m *Manager) scheduleEvict(callID string) {
	time.AfterFunc(m.evictDelay, func() {
		m.mu.Lock()
		delete(m.calls, callID)
		m.mu.Unlock()
	})
}

func subject(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
