package view

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ademetov/messenger-server/internal/store"
)

type fakeUsers struct {
	users map[int64]*store.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	panic("not used")
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	panic("not used")
}

// fakeClassifier records calls and returns a fixed relation.
type fakeClassifier struct {
	relation string
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, viewerID, subjectID int64) (string, error) {
	f.calls++
	return f.relation, nil
}

func testMessage(authorID *int64) *store.Message {
	return &store.Message{
		ID:        1,
		RoomID:    1,
		AuthorID:  authorID,
		Content:   "hello",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRenderBasicProjection(t *testing.T) {
	author := int64(10)
	users := &fakeUsers{users: map[int64]*store.User{
		10: {ID: 10, Username: "alice", FirstName: "Alice", LastName: "Smith"},
	}}
	classifier := &fakeClassifier{relation: "friend"}
	r := NewRenderer(users, classifier)

	images := []*store.MessageImage{{ID: 1, MessageID: 1, URL: "/media/a.png"}}
	out, err := r.Render(context.Background(), testMessage(&author), images, 20)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if out.Author.Username != "alice" || out.Author.FullName != "Alice Smith" {
		t.Errorf("author = %+v", out.Author)
	}
	if out.Author.FriendType != "friend" {
		t.Errorf("friend_type = %q, want friend", out.Author.FriendType)
	}
	if out.IsMine {
		t.Error("is_mine should be false for another viewer")
	}
	if len(out.Images) != 1 || out.Images[0].URL != "/media/a.png" {
		t.Errorf("images = %+v", out.Images)
	}
	if classifier.calls != 1 {
		t.Errorf("classifier called %d times, want 1", classifier.calls)
	}
}

func TestRenderIsMine(t *testing.T) {
	author := int64(10)
	users := &fakeUsers{users: map[int64]*store.User{
		10: {ID: 10, Username: "alice"},
	}}
	r := NewRenderer(users, &fakeClassifier{relation: "none"})

	out, err := r.Render(context.Background(), testMessage(&author), nil, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !out.IsMine {
		t.Error("is_mine should be true for the author")
	}

	// An absent viewer can never own a message.
	out, err = r.Render(context.Background(), testMessage(&author), nil, 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.IsMine {
		t.Error("is_mine should be false without a viewer")
	}
}

func TestRenderDeletedMessageIsRedacted(t *testing.T) {
	author := int64(10)
	users := &fakeUsers{users: map[int64]*store.User{
		10: {ID: 10, Username: "alice"},
	}}
	r := NewRenderer(users, &fakeClassifier{relation: "none"})

	msg := testMessage(&author)
	msg.Deleted = true
	images := []*store.MessageImage{{ID: 1, MessageID: 1, URL: "/media/a.png"}}

	out, err := r.Render(context.Background(), msg, images, 20)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !out.Deleted {
		t.Error("deleted flag should be exposed")
	}
	if out.Content != "" {
		t.Errorf("content = %q, want redacted empty", out.Content)
	}
	if len(out.Images) != 0 {
		t.Errorf("images = %+v, want none", out.Images)
	}
	// Identity survives redaction.
	if out.Author.Username != "alice" {
		t.Errorf("author = %+v, want alice", out.Author)
	}
}

func TestRenderDeletedAuthorPlaceholder(t *testing.T) {
	users := &fakeUsers{users: map[int64]*store.User{}}
	classifier := &fakeClassifier{relation: "friend"}
	r := NewRenderer(users, classifier)

	// Nil author (account removed, message kept).
	out, err := r.Render(context.Background(), testMessage(nil), nil, 20)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Author.Username != "DeletedAccount" || out.Author.FullName != "Deleted Account" {
		t.Errorf("author = %+v, want placeholder", out.Author)
	}
	if out.Author.FriendType != "none" {
		t.Errorf("friend_type = %q, want none", out.Author.FriendType)
	}
	if out.IsMine {
		t.Error("placeholder author is never the viewer")
	}
	if classifier.calls != 0 {
		t.Error("classifier must not run for the placeholder")
	}

	// Dangling author id behaves the same as a nil author.
	gone := int64(99)
	out, err = r.Render(context.Background(), testMessage(&gone), nil, 20)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Author.Username != "DeletedAccount" {
		t.Errorf("author = %+v, want placeholder", out.Author)
	}
}
