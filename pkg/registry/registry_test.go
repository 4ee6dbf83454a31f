package registry

import "testing"

type fakeSender struct{ msgs [][]byte }

func (f *fakeSender) TrySend(msg []byte) bool {
	f.msgs = append(f.msgs, msg)
	return true
}

func TestRegisterAndIdentity(t *testing.T) {
	r := New()
	c := &fakeSender{}
	r.Register("alice", c)
	if r.Len() != 1 {
		t.Fatalf("expected 1 connection, got %d", r.Len())
	}
	id, ok := r.Identity(c)
	if !ok || id != "alice" {
		t.Fatalf("identity lookup failed: %q %v", id, ok)
	}
}

func TestJoinLeaveRooms(t *testing.T) {
	r := New()
	c := &fakeSender{}
	r.Register("alice", c)
	r.JoinRoom(c, "r1")
	r.JoinRoom(c, "r2")
	if got := len(r.Rooms(c)); got != 2 {
		t.Fatalf("expected 2 rooms, got %d", got)
	}
	// Joining the same room twice is idempotent.
	r.JoinRoom(c, "r1")
	if got := len(r.Rooms(c)); got != 2 {
		t.Fatalf("duplicate join changed room count: %d", got)
	}
	r.LeaveRoom(c, "r1")
	if got := len(r.Rooms(c)); got != 1 {
		t.Fatalf("expected 1 room after leave, got %d", got)
	}
	// Leaving a room never joined is a no-op.
	r.LeaveRoom(c, "r9")
	if got := len(r.Rooms(c)); got != 1 {
		t.Fatalf("phantom leave changed room count: %d", got)
	}
}

func TestJoinUnknownConnectionIsNoop(t *testing.T) {
	r := New()
	c := &fakeSender{}
	r.JoinRoom(c, "r1")
	if len(r.MembersOf("r1", nil)) != 0 {
		t.Fatalf("unregistered connection must not appear in a room")
	}
}

func TestMembersOfExcluding(t *testing.T) {
	r := New()
	a, b, c := &fakeSender{}, &fakeSender{}, &fakeSender{}
	r.Register("alice", a)
	r.Register("bob", b)
	r.Register("carol", c)
	r.JoinRoom(a, "r1")
	r.JoinRoom(b, "r1")
	r.JoinRoom(c, "r2")

	members := r.MembersOf("r1", a)
	if len(members) != 1 || members[0] != Sender(b) {
		t.Fatalf("expected only b, got %d members", len(members))
	}
	if got := len(r.MembersOf("r1", nil)); got != 2 {
		t.Fatalf("expected 2 members without exclusion, got %d", got)
	}
	if got := len(r.MembersOf("empty", nil)); got != 0 {
		t.Fatalf("unknown room should have no members, got %d", got)
	}
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	r := New()
	c := &fakeSender{}
	r.Register("alice", c)
	r.JoinRoom(c, "r1")
	r.JoinRoom(c, "r2")
	r.Unregister(c)
	if r.Len() != 0 {
		t.Fatalf("connection still registered")
	}
	if len(r.MembersOf("r1", nil)) != 0 || len(r.MembersOf("r2", nil)) != 0 {
		t.Fatalf("unregistered connection still a room member")
	}
	if _, ok := r.Identity(c); ok {
		t.Fatalf("identity survived unregister")
	}
}

func TestMultipleConnectionsPerIdentity(t *testing.T) {
	r := New()
	a1, a2 := &fakeSender{}, &fakeSender{}
	r.Register("alice", a1)
	r.Register("alice", a2)
	r.JoinRoom(a1, "r1")
	r.JoinRoom(a2, "r1")
	if got := len(r.MembersOf("r1", nil)); got != 2 {
		t.Fatalf("both connections should be members, got %d", got)
	}
	r.Unregister(a1)
	if got := len(r.MembersOf("r1", nil)); got != 1 {
		t.Fatalf("second connection should survive, got %d", got)
	}
}

func TestHasIdentity(t *testing.T) {
	r := New()
	a1, a2 := &fakeSender{}, &fakeSender{}
	r.Register("alice", a1)
	r.Register("alice", a2)
	if !r.HasIdentity("alice") {
		t.Fatalf("registered identity not found")
	}
	if r.HasIdentity("bob") {
		t.Fatalf("unknown identity reported present")
	}
	r.Unregister(a1)
	if !r.HasIdentity("alice") {
		t.Fatalf("identity lost while a connection remains")
	}
	r.Unregister(a2)
	if r.HasIdentity("alice") {
		t.Fatalf("identity survived its last connection")
	}
}
