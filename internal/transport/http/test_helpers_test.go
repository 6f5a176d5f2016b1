package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/auth"
	"github.com/ademetov/messenger-server/internal/blob"
	"github.com/ademetov/messenger-server/internal/config"
	"github.com/ademetov/messenger-server/internal/core"
	"github.com/ademetov/messenger-server/internal/service/friends"
	"github.com/ademetov/messenger-server/internal/service/rooms"
	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/store/sqlite"
	"github.com/ademetov/messenger-server/internal/view"
)

type testEnv struct {
	srv   *httptest.Server
	store *sqlite.SQLiteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blob.NewFSStore(t.TempDir(), "/media/messages")
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	cfg := config.Default()
	logger := zerolog.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})
	roomService := rooms.New(st)
	friendService := friends.New(st)
	renderer := view.NewRenderer(st, friendService)
	registry := core.NewRegistry()

	server := NewServer(registry, authService, st, roomService, friendService, renderer, blobs, &cfg, &logger)

	srv := httptest.NewServer(server.Handler)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: st}
}

// register creates an account over the API and returns its token and user row.
func (e *testEnv) register(t *testing.T, username string) (string, *store.User) {
	t.Helper()

	resp, body := e.doJSON(t, http.MethodPost, "/api/register", "", map[string]any{
		"username": username,
		"password": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, resp.StatusCode, body)
	}

	var out AuthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}

	user, err := e.store.GetUserByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("load registered user: %v", err)
	}
	return out.Token, user
}

func roomPath(roomID int64, suffix string) string {
	return fmt.Sprintf("/api/rooms/%d%s", roomID, suffix)
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, body
}
