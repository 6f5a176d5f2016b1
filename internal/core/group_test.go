package core

import "testing"

func TestGroupAddRemove(t *testing.T) {
	g := NewGroup(1)
	c := NewClient("c1", 1, "alice")

	if !g.Add(c) {
		t.Error("first add should report true")
	}
	if g.Add(c) {
		t.Error("second add of same client should report false")
	}
	if g.Len() != 1 {
		t.Errorf("len = %d, want 1", g.Len())
	}

	if !g.Remove(c) {
		t.Error("remove should report true")
	}
	if g.Remove(c) {
		t.Error("second remove should report false")
	}
	if g.Len() != 0 {
		t.Errorf("len = %d, want 0", g.Len())
	}
}

func TestGroupPublishReachesAllMembers(t *testing.T) {
	g := NewGroup(1)
	a := NewClient("c1", 1, "alice")
	b := NewClient("c2", 2, "bob")
	g.Add(a)
	g.Add(b)

	g.Publish(Event{Kind: EventSendMessage, RoomID: 1, MessageID: 7})

	for _, c := range []*Client{a, b} {
		select {
		case ev := <-c.Events:
			if ev.MessageID != 7 {
				t.Errorf("client %s got message %d, want 7", c.ID, ev.MessageID)
			}
		default:
			t.Errorf("client %s received nothing", c.ID)
		}
	}
}

func TestGroupPublishDropsOnFullQueue(t *testing.T) {
	g := NewGroup(1)
	c := NewClient("c1", 1, "alice")
	g.Add(c)

	// Saturate the queue and one more; the overflow must not block.
	for i := 0; i < cap(c.Events)+1; i++ {
		g.Publish(Event{Kind: EventSendMessage, RoomID: 1, MessageID: int64(i)})
	}

	if len(c.Events) != cap(c.Events) {
		t.Errorf("queue len = %d, want full %d", len(c.Events), cap(c.Events))
	}
}

func TestRegistryLazyCreateAndGC(t *testing.T) {
	r := NewRegistry()
	a := NewClient("c1", 1, "alice")
	b := NewClient("c2", 2, "bob")

	if r.GroupLen(1) != 0 {
		t.Error("registry should start empty")
	}

	r.Join(1, a)
	r.Join(1, b)
	if r.GroupLen(1) != 2 {
		t.Errorf("group len = %d, want 2", r.GroupLen(1))
	}

	r.Leave(1, a)
	if r.GroupLen(1) != 1 {
		t.Errorf("group len = %d, want 1", r.GroupLen(1))
	}

	// Last leave discards the group entirely.
	r.Leave(1, b)
	if r.GroupLen(1) != 0 {
		t.Errorf("group len = %d, want 0", r.GroupLen(1))
	}
	if _, ok := r.groups[1]; ok {
		t.Error("empty group should be removed from the registry")
	}

	// Leaving a room never joined is a no-op.
	r.Leave(2, a)
}

func TestRegistryPublishIsolatedPerRoom(t *testing.T) {
	r := NewRegistry()
	a := NewClient("c1", 1, "alice")
	b := NewClient("c2", 2, "bob")
	r.Join(1, a)
	r.Join(2, b)

	r.Publish(1, Event{Kind: EventSendMessage, RoomID: 1, MessageID: 5})

	select {
	case ev := <-a.Events:
		if ev.RoomID != 1 {
			t.Errorf("got event for room %d, want 1", ev.RoomID)
		}
	default:
		t.Error("room 1 member received nothing")
	}

	select {
	case <-b.Events:
		t.Error("room 2 member must not receive room 1 events")
	default:
	}

	// Publishing to a room with no group is a no-op.
	r.Publish(99, Event{Kind: EventSendMessage, RoomID: 99, MessageID: 1})
}
