// Package friends implements friend requests and the relationship
// classification consumed by the message view serializer.
package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/ademetov/messenger-server/internal/store"
)

// Relationship of a subject relative to a viewer.
const (
	RelationRequested = "requested" // subject sent the viewer a pending request
	RelationInvited   = "invited"   // viewer sent the subject a pending request
	RelationFriend    = "friend"
	RelationNone      = "none"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestAlreadyExists = errors.New("friend request already exists")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Store is the persistence surface the service needs.
type Store interface {
	store.FriendStore
	store.UserStore
}

// Service provides friend management business logic.
type Service struct {
	store Store
}

// New creates a new friend service.
func New(st Store) *Service {
	return &Service{
		store: st,
	}
}

// SendRequest sends a friend request from one user to another.
func (s *Service) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*store.Friend, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotFriendSelf
	}

	if _, err := s.store.GetUserByID(ctx, toUserID); err != nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.store.GetFriendship(ctx, fromUserID, toUserID)
	if err == nil {
		switch existing.Status {
		case store.FriendStatusAccepted:
			return nil, ErrAlreadyFriends
		case store.FriendStatusPending:
			return nil, ErrRequestAlreadyExists
		}
	}

	friend, err := s.store.CreateFriendRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}

	return friend, nil
}

// AcceptRequest accepts a pending friend request sent to userID.
func (s *Service) AcceptRequest(ctx context.Context, userID, fromUserID int64) error {
	existing, err := s.store.GetFriendship(ctx, fromUserID, userID)
	if err != nil {
		return ErrRequestNotFound
	}

	// Must be pending and directed to the accepting user.
	if existing.Status != store.FriendStatusPending || existing.FriendID != userID {
		return ErrRequestNotFound
	}

	if err := s.store.UpdateFriendStatus(ctx, existing.UserID, existing.FriendID, store.FriendStatusAccepted); err != nil {
		return fmt.Errorf("accept request: %w", err)
	}

	return nil
}

// RejectRequest rejects a pending friend request sent to userID.
func (s *Service) RejectRequest(ctx context.Context, userID, fromUserID int64) error {
	existing, err := s.store.GetFriendship(ctx, fromUserID, userID)
	if err != nil {
		return ErrRequestNotFound
	}

	if existing.Status != store.FriendStatusPending || existing.FriendID != userID {
		return ErrRequestNotFound
	}

	if err := s.store.DeleteFriendship(ctx, existing.UserID, existing.FriendID); err != nil {
		return fmt.Errorf("reject request: %w", err)
	}

	return nil
}

// ListFriends returns all accepted friendship rows for a user.
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]*store.Friend, error) {
	status := store.FriendStatusAccepted
	friends, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// ListPendingRequests returns incoming pending friend requests for a user.
func (s *Service) ListPendingRequests(ctx context.Context, userID int64) ([]*store.Friend, error) {
	status := store.FriendStatusPending
	all, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	var incoming []*store.Friend
	for _, f := range all {
		if f.FriendID == userID {
			incoming = append(incoming, f)
		}
	}

	return incoming, nil
}

// Classify reports the relationship of subject relative to viewer. An
// absent viewer (id 0) or the viewer themselves classifies as none.
func (s *Service) Classify(ctx context.Context, viewerID, subjectID int64) (string, error) {
	if viewerID == 0 || viewerID == subjectID {
		return RelationNone, nil
	}

	requested, err := s.store.HasPendingRequest(ctx, subjectID, viewerID)
	if err != nil {
		return "", fmt.Errorf("check incoming request: %w", err)
	}
	if requested {
		return RelationRequested, nil
	}

	invited, err := s.store.HasPendingRequest(ctx, viewerID, subjectID)
	if err != nil {
		return "", fmt.Errorf("check outgoing request: %w", err)
	}
	if invited {
		return RelationInvited, nil
	}

	friends, err := s.store.AreFriends(ctx, viewerID, subjectID)
	if err != nil {
		return "", fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return RelationFriend, nil
	}

	return RelationNone, nil
}
