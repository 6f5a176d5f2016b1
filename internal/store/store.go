package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it so callers can use errors.Is.
var ErrNotFound = errors.New("not found")

// ErrContentTooLong is returned when a message body exceeds MaxContentLength.
var ErrContentTooLong = errors.New("content too long")

const (
	// MaxContentLength bounds the text body of a message.
	MaxContentLength = 2000
	// MaxImagesPerMessage bounds the attachment count of a single message.
	MaxImagesPerMessage = 100
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Pfp          string
	CreatedAt    time.Time
}

// FullName joins first and last name the way profiles are displayed.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Room represents a chat room. Members and creators are separate sets;
// creators are the room admins and are not required to stay members.
type Room struct {
	ID        int64
	Name      string
	Image     string
	CreatedAt time.Time
}

// Message represents a persisted chat message. AuthorID is nil once the
// author account has been deleted. A soft-deleted message keeps its stored
// content and images; redaction happens at render time.
type Message struct {
	ID        int64
	RoomID    int64
	AuthorID  *int64
	Content   string
	CreatedAt time.Time
	Deleted   bool
	Edited    bool
}

// MessageImage is one stored image attachment of a message.
type MessageImage struct {
	ID        int64
	MessageID int64
	AuthorID  int64
	URL       string
}

// RoomInvitation is a pending invitation of a user into a room.
type RoomInvitation struct {
	ID         int64
	RoomID     int64
	SenderID   int64
	ReceiverID int64
	CreatedAt  time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend represents a friend request or an accepted friendship. The row is
// directed: UserID sent the request to FriendID.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// RoomStore handles rooms, membership and invitations.
type RoomStore interface {
	// CreateRoom creates a room with a unique name. The creator becomes
	// both a member and an admin.
	CreateRoom(ctx context.Context, name string, creatorID int64) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetRoomByName retrieves a room by its unique name.
	GetRoomByName(ctx context.Context, name string) (*Room, error)

	// ListUserRooms lists rooms the user is a member of.
	ListUserRooms(ctx context.Context, userID int64) ([]*Room, error)

	// AddMember adds a user to a room's member set.
	AddMember(ctx context.Context, roomID, userID int64) error

	// RemoveMember removes a user from the member set. A member who is
	// also a creator loses admin rights too. When the last member leaves
	// the room is deleted.
	RemoveMember(ctx context.Context, roomID, userID int64) error

	// IsMember reports whether the user belongs to the room.
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)

	// IsAdmin reports whether the user is in the room's creator set.
	IsAdmin(ctx context.Context, roomID, userID int64) (bool, error)

	// ListMembers lists user IDs of the room's members.
	ListMembers(ctx context.Context, roomID int64) ([]int64, error)

	// DeleteRoom removes a room with its membership and invitations.
	DeleteRoom(ctx context.Context, roomID int64) error

	// CreateInvitation records a pending invitation into a room.
	CreateInvitation(ctx context.Context, roomID, senderID, receiverID int64) (*RoomInvitation, error)

	// GetInvitation retrieves the pending invitation of receiver into room.
	GetInvitation(ctx context.Context, roomID, receiverID int64) (*RoomInvitation, error)

	// DeleteInvitation removes an invitation by ID.
	DeleteInvitation(ctx context.Context, id int64) error

	// ListUserInvitations lists invitations addressed to the user.
	ListUserInvitations(ctx context.Context, receiverID int64) ([]*RoomInvitation, error)
}

// MessageStore handles messages and their image attachments.
type MessageStore interface {
	// CreateMessage persists a new message with deleted=false, edited=false.
	// Fails with ErrContentTooLong when content exceeds MaxContentLength.
	CreateMessage(ctx context.Context, roomID, authorID int64, content string) (*Message, error)

	// GetMessage retrieves a message by ID. Returns ErrNotFound if absent.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// AddMessageImage appends one stored attachment to a message. The
	// caller enforces MaxImagesPerMessage across the whole operation.
	AddMessageImage(ctx context.Context, messageID, authorID int64, url string) (*MessageImage, error)

	// EditMessage replaces the message content and sets edited=true.
	// When replaceImages is true all existing attachments are removed and
	// imageURLs are attached in the same transaction.
	EditMessage(ctx context.Context, id int64, content string, imageURLs []string, replaceImages bool) (*Message, error)

	// SoftDeleteMessage sets deleted=true. Content and attachments stay
	// in storage.
	SoftDeleteMessage(ctx context.Context, id int64) (*Message, error)

	// ListRoomMessages returns room messages ordered by descending
	// creation time. When cursorID is non-nil the result is restricted to
	// messages with created_at <= the cursor message's created_at
	// (inclusive); an unknown cursor yields ErrNotFound.
	ListRoomMessages(ctx context.Context, roomID int64, cursorID *int64, limit, offset int) ([]*Message, error)

	// ListMessageImages lists the attachments of a message in insertion order.
	ListMessageImages(ctx context.Context, messageID int64) ([]*MessageImage, error)
}

// FriendStore handles friend requests and friendships.
type FriendStore interface {
	// CreateFriendRequest creates a pending request from userID to friendID.
	CreateFriendRequest(ctx context.Context, userID, friendID int64) (*Friend, error)

	// GetFriendship retrieves the relationship row between two users in
	// either direction.
	GetFriendship(ctx context.Context, userID, friendID int64) (*Friend, error)

	// HasPendingRequest reports whether a pending request from userID to
	// friendID exists (direction matters).
	HasPendingRequest(ctx context.Context, userID, friendID int64) (bool, error)

	// UpdateFriendStatus updates the status of the request sent by userID.
	UpdateFriendStatus(ctx context.Context, userID, friendID int64, status FriendStatus) error

	// DeleteFriendship removes the relationship row in either direction.
	DeleteFriendship(ctx context.Context, userID, friendID int64) error

	// AreFriends reports an accepted friendship in either direction.
	AreFriends(ctx context.Context, userID, friendID int64) (bool, error)

	// ListFriends lists relationship rows involving the user, optionally
	// filtered by status.
	ListFriends(ctx context.Context, userID int64, status *FriendStatus) ([]*Friend, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
