package http

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func (e *testEnv) wsURL(roomID int64, token string) string {
	base := "ws" + strings.TrimPrefix(e.srv.URL, "http")
	return fmt.Sprintf("%s/ws/rooms/%d?token=%s", base, roomID, token)
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, roomID int64, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, e.wsURL(roomID, token), nil)
	if err != nil {
		t.Fatalf("dial room %d: %v", roomID, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestWebsocketSendBroadcastsPerViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, alice := env.register(t, "alice")
	bobToken, bob := env.register(t, "bob")

	room, err := env.store.CreateRoom(ctx, "general", alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := env.store.AddMember(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}

	aliceConn := env.dial(t, ctx, room.ID, aliceToken)
	bobConn := env.dial(t, ctx, room.ID, bobToken)

	frame := map[string]any{"action": "send", "message": "hello everyone"}
	if err := wsjson.Write(ctx, aliceConn, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var fromAlice, fromBob Outbound
	if err := wsjson.Read(ctx, aliceConn, &fromAlice); err != nil {
		t.Fatalf("read on alice conn: %v", err)
	}
	if err := wsjson.Read(ctx, bobConn, &fromBob); err != nil {
		t.Fatalf("read on bob conn: %v", err)
	}

	for name, out := range map[string]Outbound{"alice": fromAlice, "bob": fromBob} {
		if out.Type != "event" || out.Event != "send_message" {
			t.Errorf("%s got envelope %s/%s, want event/send_message", name, out.Type, out.Event)
		}
		if out.Data == nil || out.Data.Content != "hello everyone" {
			t.Errorf("%s got data %+v", name, out.Data)
		}
	}

	// The same message renders differently per viewer.
	if !fromAlice.Data.IsMine {
		t.Error("sender's view should mark is_mine")
	}
	if fromBob.Data.IsMine {
		t.Error("receiver's view must not mark is_mine")
	}
	if fromBob.Data.Author.Username != "alice" {
		t.Errorf("author = %q, want alice", fromBob.Data.Author.Username)
	}
}

func TestWebsocketEditAndDeleteEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, alice := env.register(t, "alice")
	room, err := env.store.CreateRoom(ctx, "general", alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	conn := env.dial(t, ctx, room.ID, aliceToken)

	if err := wsjson.Write(ctx, conn, map[string]any{"action": "send", "message": "v1"}); err != nil {
		t.Fatalf("write send: %v", err)
	}
	var created Outbound
	if err := wsjson.Read(ctx, conn, &created); err != nil {
		t.Fatalf("read send event: %v", err)
	}

	edit := map[string]any{"action": "edit", "message_pk": created.Data.ID, "content": "v2"}
	if err := wsjson.Write(ctx, conn, edit); err != nil {
		t.Fatalf("write edit: %v", err)
	}
	var edited Outbound
	if err := wsjson.Read(ctx, conn, &edited); err != nil {
		t.Fatalf("read edit event: %v", err)
	}
	if edited.Event != "edit_message" || edited.Data.Content != "v2" || !edited.Data.Edited {
		t.Errorf("got %+v, want edited v2", edited)
	}

	del := map[string]any{"action": "delete", "message_pk": created.Data.ID}
	if err := wsjson.Write(ctx, conn, del); err != nil {
		t.Fatalf("write delete: %v", err)
	}
	var deleted Outbound
	if err := wsjson.Read(ctx, conn, &deleted); err != nil {
		t.Fatalf("read delete event: %v", err)
	}
	if deleted.Event != "delete_message" || !deleted.Data.Deleted {
		t.Errorf("got %+v, want delete event", deleted)
	}
	if deleted.Data.Content != "" {
		t.Errorf("deleted view content = %q, want redacted", deleted.Data.Content)
	}
}

func TestWebsocketRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, _ := env.register(t, "alice")
	_, bob := env.register(t, "bob")

	room, err := env.store.CreateRoom(ctx, "general", bob.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	conn, _, err := websocket.Dial(ctx, env.wsURL(room.ID, aliceToken), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The server accepts the upgrade and then closes with a policy violation.
	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("close status = %v, want policy violation", websocket.CloseStatus(err))
	}
}

func TestWebsocketUnknownActionCloses(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, alice := env.register(t, "alice")
	room, err := env.store.CreateRoom(ctx, "general", alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	conn := env.dial(t, ctx, room.ID, aliceToken)

	if err := wsjson.Write(ctx, conn, map[string]any{"action": "shout", "message": "HI"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("close status = %v, want policy violation", websocket.CloseStatus(err))
	}
}

func TestWebsocketRequiresValidToken(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, alice := env.register(t, "alice")
	room, err := env.store.CreateRoom(ctx, "general", alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	// Rejected before the upgrade, so the dial itself fails.
	if _, _, err := websocket.Dial(ctx, env.wsURL(room.ID, "bad-token"), nil); err == nil {
		t.Error("dial with bad token should fail")
	}
	if _, _, err := websocket.Dial(ctx, env.wsURL(9999, "bad-token"), nil); err == nil {
		t.Error("dial with bad token should fail")
	}
}
