package call

import (
	"errors"
	"testing"
	"time"

	"chat-service/apperr"
	"chat-service/registry"
	"chat-service/testutil"
)

func newTestManager(t *testing.T) (*Manager, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	m := NewManager(reg)
	m.ringTimeout = 100 * time.Millisecond
	m.evictDelay = 50 * time.Millisecond
	return m, reg
}

func register(reg *registry.Registry, userID uint) *testutil.FakeCallback {
	cb := &testutil.FakeCallback{}
	reg.Register(subject(userID), cb)
	return cb
}

func TestInitiate(t *testing.T) {
	m, reg := newTestManager(t)
	register(reg, 1)
	receiver := register(reg, 2)

	t.Run("rings the receiver", func(t *testing.T) {
		c, err := m.Initiate(1, 2, KindVideo)
		if err != nil {
			t.Fatalf("initiate: %v", err)
		}
		if c.State != StatePending {
			t.Errorf("state = %s, want pending", c.State)
		}
		if c.Kind != KindVideo {
			t.Errorf("kind = %s, want video", c.Kind)
		}
		if receiver.Count(EventIncoming) != 1 {
			t.Errorf("receiver got %d incoming events, want 1", receiver.Count(EventIncoming))
		}
		last, ok := receiver.Last()
		if !ok {
			t.Fatal("no push recorded")
		}
		if pushed, ok := last.Payload.(Call); !ok || pushed.Kind != KindVideo {
			t.Errorf("pushed payload = %+v, want video call", last.Payload)
		}
	})

	t.Run("busy party", func(t *testing.T) {
		register(reg, 3)
		if _, err := m.Initiate(3, 2, KindVoice); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("self call", func(t *testing.T) {
		if _, err := m.Initiate(1, 1, KindVoice); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		register(reg, 5)
		register(reg, 6)
		if _, err := m.Initiate(5, 6, Kind("screen")); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("offline receiver", func(t *testing.T) {
		register(reg, 4)
		if _, err := m.Initiate(4, 9, KindVoice); !errors.Is(err, apperr.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})
}

func TestAccept(t *testing.T) {
	m, reg := newTestManager(t)
	caller := register(reg, 1)
	receiver := register(reg, 2)

	c, err := m.Initiate(1, 2, KindVoice)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	t.Run("outsider cannot accept", func(t *testing.T) {
		if _, err := m.Accept(c.ID, 7); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("receiver accepts", func(t *testing.T) {
		accepted, err := m.Accept(c.ID, 2)
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if accepted.State != StateAccepted {
			t.Errorf("state = %s, want accepted", accepted.State)
		}
		if caller.Count(EventAccepted) != 1 || receiver.Count(EventAccepted) != 1 {
			t.Error("both parties should see the accept")
		}
	})

	t.Run("accept is not repeatable", func(t *testing.T) {
		if _, err := m.Accept(c.ID, 2); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("end finishes the call", func(t *testing.T) {
		ended, err := m.End(c.ID, 1)
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		if ended.State != StateEnded {
			t.Errorf("state = %s, want ended", ended.State)
		}
	})
}

func TestReject(t *testing.T) {
	m, reg := newTestManager(t)
	caller := register(reg, 1)
	register(reg, 2)

	c, err := m.Initiate(1, 2, KindVoice)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := m.Reject(c.ID, 2); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if caller.Count(EventRejected) != 1 {
		t.Error("caller not told about the rejection")
	}

	// A late accept during the grace window conflicts instead of 404ing.
	if _, err := m.Accept(c.ID, 2); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("late accept err = %v, want ErrConflict", err)
	}

	// After the grace window the call is gone.
	time.Sleep(120 * time.Millisecond)
	if _, err := m.Get(c.ID, 2); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after eviction", err)
	}
}

func TestCallerCancelsRingingCall(t *testing.T) {
	m, reg := newTestManager(t)
	register(reg, 1)
	receiver := register(reg, 2)

	c, err := m.Initiate(1, 2, KindVoice)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	cancelled, err := m.Reject(c.ID, 1)
	if err != nil {
		t.Fatalf("caller reject: %v", err)
	}
	if cancelled.State != StateRejected {
		t.Errorf("state = %s, want rejected", cancelled.State)
	}
	if receiver.Count(EventRejected) != 1 {
		t.Error("receiver not told the ring was cancelled")
	}

	// The receiver's late answer finds a settled call.
	if _, err := m.Accept(c.ID, 2); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("late accept err = %v, want ErrConflict", err)
	}
}

func TestEndRequiresAcceptedCall(t *testing.T) {
	m, reg := newTestManager(t)
	register(reg, 1)
	register(reg, 2)

	c, _ := m.Initiate(1, 2, KindVoice)
	if _, err := m.End(c.ID, 1); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("end of pending call err = %v, want ErrConflict", err)
	}
}

func TestRingTimeout(t *testing.T) {
	m, reg := newTestManager(t)
	caller := register(reg, 1)
	receiver := register(reg, 2)

	c, err := m.Initiate(1, 2, KindVoice)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	if caller.Count(EventMissed) != 1 || receiver.Count(EventMissed) != 1 {
		t.Error("missed event not delivered to both parties")
	}
	active, err := m.Get(c.ID, 1)
	if err == nil && active.State != StateMissed {
		t.Errorf("state = %s, want missed", active.State)
	}
}

func TestGetAuthorization(t *testing.T) {
	m, reg := newTestManager(t)
	register(reg, 1)
	register(reg, 2)

	c, _ := m.Initiate(1, 2, KindVoice)
	if _, err := m.Get(c.ID, 3); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if _, err := m.Get("no-such-call", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
