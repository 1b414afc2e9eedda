package server

import (
	"testing"
	"time"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	ss := &SessionState{ID: "s1", Broadcaster: NewBroadcaster(), CreatedAt: time.Now().UTC()}

	if err := r.Register("s1", ss); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("s1", ss); err == nil {
		t.Fatalf("duplicate id must be rejected")
	}

	got, ok := r.Get("s1")
	if !ok || got != ss {
		t.Fatalf("Get: %v %v", got, ok)
	}
	if _, ok := r.Get("absent"); ok {
		t.Fatalf("Get(absent) must miss")
	}
	if list := r.List(); len(list) != 1 {
		t.Fatalf("List: %d", len(list))
	}
}

func TestSessionRegistry_CloseAll(t *testing.T) {
	r := NewSessionRegistry()
	b := NewBroadcaster()
	if err := r.Register("s1", &SessionState{ID: "s1", Broadcaster: b}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, done, unsub := b.Subscribe()
	defer unsub()

	r.CloseAll()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcaster not closed")
	}
}
