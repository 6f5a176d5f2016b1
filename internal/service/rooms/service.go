// Package rooms fronts room administration and the membership gate the
// chat core consults before every persistence-affecting action.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ademetov/messenger-server/internal/store"
)

// Common errors for room operations.
var (
	ErrEmptyName          = errors.New("room name is required")
	ErrRoomExists         = errors.New("room with this name already exists")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotMember          = errors.New("user is not a room member")
	ErrNotAdmin           = errors.New("user is not a room admin")
	ErrCannotInviteSelf   = errors.New("cannot invite yourself")
	ErrAlreadyInvited     = errors.New("invitation already exists")
	ErrAlreadyMember      = errors.New("user is already a member")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrUserNotFound       = errors.New("user not found")
)

// Store is the persistence surface the service needs.
type Store interface {
	store.RoomStore
	store.UserStore
}

// Service provides room management business logic.
type Service struct {
	store Store
}

// New creates a new room service.
func New(st Store) *Service {
	return &Service{
		store: st,
	}
}

// Create makes a new room; the creator becomes member and admin.
func (s *Service) Create(ctx context.Context, name string, creatorID int64) (*store.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if _, err := s.store.GetRoomByName(ctx, name); err == nil {
		return nil, ErrRoomExists
	}

	room, err := s.store.CreateRoom(ctx, name, creatorID)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	return room, nil
}

// Get retrieves a room by ID.
func (s *Service) Get(ctx context.Context, roomID int64) (*store.Room, error) {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListForUser lists rooms the user is a member of.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*store.Room, error) {
	rooms, err := s.store.ListUserRooms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// IsMember is the authoritative membership predicate.
func (s *Service) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	return s.store.IsMember(ctx, roomID, userID)
}

// IsAdmin reports whether the user is in the room's creator set.
func (s *Service) IsAdmin(ctx context.Context, roomID, userID int64) (bool, error) {
	return s.store.IsAdmin(ctx, roomID, userID)
}

// Invite creates an invitation into the room. Only admins may invite; the
// receiver must exist, must not be the sender, must not already be invited
// and must not already be a member.
func (s *Service) Invite(ctx context.Context, roomID, senderID, receiverID int64) (*store.RoomInvitation, error) {
	if err := s.requireAdmin(ctx, roomID, senderID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, ErrCannotInviteSelf
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.store.GetInvitation(ctx, roomID, receiverID); err == nil {
		return nil, ErrAlreadyInvited
	}

	member, err := s.store.IsMember(ctx, roomID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if member {
		return nil, ErrAlreadyMember
	}

	inv, err := s.store.CreateInvitation(ctx, roomID, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	return inv, nil
}

// CancelInvite withdraws a pending invitation. Admin-only.
func (s *Service) CancelInvite(ctx context.Context, roomID, senderID, receiverID int64) error {
	if err := s.requireAdmin(ctx, roomID, senderID); err != nil {
		return err
	}

	inv, err := s.store.GetInvitation(ctx, roomID, receiverID)
	if err != nil {
		return ErrInvitationNotFound
	}

	if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	return nil
}

// Accept consumes the receiver's invitation and adds them as a member.
func (s *Service) Accept(ctx context.Context, roomID, receiverID int64) error {
	inv, err := s.store.GetInvitation(ctx, roomID, receiverID)
	if err != nil {
		return ErrInvitationNotFound
	}

	if err := s.store.AddMember(ctx, roomID, receiverID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	return nil
}

// Reject declines the receiver's invitation.
func (s *Service) Reject(ctx context.Context, roomID, receiverID int64) error {
	inv, err := s.store.GetInvitation(ctx, roomID, receiverID)
	if err != nil {
		return ErrInvitationNotFound
	}

	if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	return nil
}

// Leave removes the user from the room. A leaving creator loses admin
// rights; when the last member leaves the room is deleted.
func (s *Service) Leave(ctx context.Context, roomID, userID int64) error {
	member, err := s.store.IsMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return ErrNotMember
	}

	if err := s.store.RemoveMember(ctx, roomID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	return nil
}

// ListInvitations lists invitations addressed to the user.
func (s *Service) ListInvitations(ctx context.Context, userID int64) ([]*store.RoomInvitation, error) {
	invitations, err := s.store.ListUserInvitations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

func (s *Service) requireAdmin(ctx context.Context, roomID, userID int64) error {
	admin, err := s.store.IsAdmin(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !admin {
		return ErrNotAdmin
	}
	return nil
}
