package friends

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore) {
	t.Helper()
	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func createUser(t *testing.T, st *sqlite.SQLiteStore, username string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestSendRequestValidation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	if _, err := svc.SendRequest(ctx, alice.ID, alice.ID); !errors.Is(err, ErrCannotFriendSelf) {
		t.Errorf("expected ErrCannotFriendSelf, got %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrRequestAlreadyExists) {
		t.Errorf("expected ErrRequestAlreadyExists, got %v", err)
	}
	// The reverse direction hits the same pending row.
	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrRequestAlreadyExists) {
		t.Errorf("expected ErrRequestAlreadyExists, got %v", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}

	// Only the receiver may accept.
	if err := svc.AcceptRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}

	if err := svc.AcceptRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	friends, err := svc.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("got %d friends, want 1", len(friends))
	}

	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrAlreadyFriends) {
		t.Errorf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestRejectRequest(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.RejectRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Rejection clears the row; a fresh request is possible.
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Errorf("send request after reject: %v", err)
	}
}

func TestListPendingRequestsOnlyIncoming(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	carol := createUser(t, st, "carol")

	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, carol.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}

	incoming, err := svc.ListPendingRequests(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(incoming) != 1 || incoming[0].UserID != bob.ID {
		t.Errorf("got %+v, want single request from bob", incoming)
	}
}

func TestClassify(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	carol := createUser(t, st, "carol")
	dave := createUser(t, st, "dave")

	// bob sent alice a request: from alice's view bob is "requested".
	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	// alice sent carol a request: from alice's view carol is "invited".
	if _, err := svc.SendRequest(ctx, alice.ID, carol.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	// alice and dave are friends.
	if _, err := svc.SendRequest(ctx, alice.ID, dave.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.AcceptRequest(ctx, dave.ID, alice.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	tests := []struct {
		name      string
		viewerID  int64
		subjectID int64
		want      string
	}{
		{"incoming pending", alice.ID, bob.ID, RelationRequested},
		{"outgoing pending", alice.ID, carol.ID, RelationInvited},
		{"accepted", alice.ID, dave.ID, RelationFriend},
		{"accepted reverse view", dave.ID, alice.ID, RelationFriend},
		{"stranger", bob.ID, carol.ID, RelationNone},
		{"self", alice.ID, alice.ID, RelationNone},
		{"absent viewer", 0, bob.ID, RelationNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Classify(ctx, tt.viewerID, tt.subjectID)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("classify = %q, want %q", got, tt.want)
			}
		})
	}
}
