package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ademetov/messenger-server/internal/store"
)

// Schema creates all tables. Applied on open; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	pfp           TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	image      TEXT NOT NULL DEFAULT 'chatrooms/default.png',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS room_members (
	room_id   INTEGER NOT NULL,
	user_id   INTEGER NOT NULL,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (room_id, user_id),
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS room_creators (
	room_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (room_id, user_id),
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS room_invitations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     INTEGER NOT NULL,
	sender_id   INTEGER NOT NULL,
	receiver_id INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (room_id, receiver_id),
	FOREIGN KEY (room_id) REFERENCES rooms(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    INTEGER NOT NULL,
	author_id  INTEGER,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	deleted    BOOLEAN NOT NULL DEFAULT 0,
	edited     BOOLEAN NOT NULL DEFAULT 0,
	FOREIGN KEY (room_id) REFERENCES rooms(id)
);

CREATE TABLE IF NOT EXISTS message_images (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL,
	author_id  INTEGER NOT NULL,
	url        TEXT NOT NULL,
	FOREIGN KEY (message_id) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS friends (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	friend_id  INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, friend_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_message_images_message ON message_images(message_id);
CREATE INDEX IF NOT EXISTS idx_room_members_user ON room_members(user_id);
CREATE INDEX IF NOT EXISTS idx_room_invitations_receiver ON room_invitations(receiver_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, first_name, last_name, password_hash, pfp, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Pfp,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, first_name, last_name, password_hash, pfp, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Pfp,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a room with a unique name. The creator becomes both a
// member and an admin.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, creatorID int64) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `INSERT INTO rooms (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	roomID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO room_members (room_id, user_id) VALUES (?, ?)`, roomID, creatorID); err != nil {
		return nil, fmt.Errorf("add creator to members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO room_creators (room_id, user_id) VALUES (?, ?)`, roomID, creatorID); err != nil {
		return nil, fmt.Errorf("add creator to creators: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, name, image, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Image,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return &room, nil
}

// GetRoomByName retrieves a room by its unique name.
func (s *SQLiteStore) GetRoomByName(ctx context.Context, name string) (*store.Room, error) {
	query := `
		SELECT id, name, image, created_at
		FROM rooms
		WHERE name = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&room.ID,
		&room.Name,
		&room.Image,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return &room, nil
}

// ListUserRooms lists rooms the user is a member of.
func (s *SQLiteStore) ListUserRooms(ctx context.Context, userID int64) ([]*store.Room, error) {
	query := `
		SELECT r.id, r.name, r.image, r.created_at
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		WHERE rm.user_id = ?
		ORDER BY r.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Image, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

// AddMember adds a user to a room's member set.
func (s *SQLiteStore) AddMember(ctx context.Context, roomID, userID int64) error {
	query := `
		INSERT OR IGNORE INTO room_members (room_id, user_id)
		VALUES (?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("insert room member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from the member set. A member who is also a
// creator loses admin rights too; a room left with zero members is deleted.
func (s *SQLiteStore) RemoveMember(ctx context.Context, roomID, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return fmt.Errorf("delete room member: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_creators WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return fmt.Errorf("delete room creator: %w", err)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_members WHERE room_id = ?`, roomID).Scan(&remaining); err != nil {
		return fmt.Errorf("count members: %w", err)
	}

	if remaining == 0 {
		if err := deleteRoomTx(ctx, tx, roomID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// IsMember checks if user is a member of the room.
func (s *SQLiteStore) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	query := `
		SELECT 1 FROM room_members
		WHERE room_id = ? AND user_id = ?
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}

	return true, nil
}

// IsAdmin checks if user is in the room's creator set.
func (s *SQLiteStore) IsAdmin(ctx context.Context, roomID, userID int64) (bool, error) {
	query := `
		SELECT 1 FROM room_creators
		WHERE room_id = ? AND user_id = ?
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query admin: %w", err)
	}

	return true, nil
}

// ListMembers lists all members of a room.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM room_members
		WHERE room_id = ?
		ORDER BY joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

// DeleteRoom removes a room with its membership, invitations and messages.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, roomID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteRoomTx(ctx, tx, roomID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func deleteRoomTx(ctx context.Context, tx *sql.Tx, roomID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM message_images WHERE message_id IN (SELECT id FROM messages WHERE room_id = ?)`, roomID); err != nil {
		return fmt.Errorf("delete room message images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_invitations WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room invitations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_creators WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room creators: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// CreateInvitation records a pending invitation into a room.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, roomID, senderID, receiverID int64) (*store.RoomInvitation, error) {
	query := `
		INSERT INTO room_invitations (room_id, sender_id, receiver_id)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomID, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getInvitationByID(ctx, id)
}

func (s *SQLiteStore) getInvitationByID(ctx context.Context, id int64) (*store.RoomInvitation, error) {
	query := `
		SELECT id, room_id, sender_id, receiver_id, created_at
		FROM room_invitations
		WHERE id = ?
	`
	var inv store.RoomInvitation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.RoomID,
		&inv.SenderID,
		&inv.ReceiverID,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invitation %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query invitation: %w", err)
	}
	return &inv, nil
}

// GetInvitation retrieves the pending invitation of receiver into room.
func (s *SQLiteStore) GetInvitation(ctx context.Context, roomID, receiverID int64) (*store.RoomInvitation, error) {
	query := `
		SELECT id, room_id, sender_id, receiver_id, created_at
		FROM room_invitations
		WHERE room_id = ? AND receiver_id = ?
	`
	var inv store.RoomInvitation
	err := s.db.QueryRowContext(ctx, query, roomID, receiverID).Scan(
		&inv.ID,
		&inv.RoomID,
		&inv.SenderID,
		&inv.ReceiverID,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invitation for user %d in room %d: %w", receiverID, roomID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query invitation: %w", err)
	}
	return &inv, nil
}

// DeleteInvitation removes an invitation by ID.
func (s *SQLiteStore) DeleteInvitation(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM room_invitations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// ListUserInvitations lists invitations addressed to the user.
func (s *SQLiteStore) ListUserInvitations(ctx context.Context, receiverID int64) ([]*store.RoomInvitation, error) {
	query := `
		SELECT id, room_id, sender_id, receiver_id, created_at
		FROM room_invitations
		WHERE receiver_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*store.RoomInvitation
	for rows.Next() {
		var inv store.RoomInvitation
		if err := rows.Scan(&inv.ID, &inv.RoomID, &inv.SenderID, &inv.ReceiverID, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, &inv)
	}

	return invitations, rows.Err()
}

// ==== MessageStore implementation ====

// CreateMessage persists a new message with deleted=false, edited=false.
func (s *SQLiteStore) CreateMessage(ctx context.Context, roomID, authorID int64, content string) (*store.Message, error) {
	if utf8.RuneCountInString(content) > store.MaxContentLength {
		return nil, store.ErrContentTooLong
	}

	query := `
		INSERT INTO messages (room_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomID, authorID, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, room_id, author_id, content, created_at, deleted, edited
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	var authorID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.RoomID,
		&authorID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.Deleted,
		&msg.Edited,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	if authorID.Valid {
		msg.AuthorID = &authorID.Int64
	}

	return &msg, nil
}

// AddMessageImage appends one stored attachment to a message.
func (s *SQLiteStore) AddMessageImage(ctx context.Context, messageID, authorID int64, url string) (*store.MessageImage, error) {
	query := `
		INSERT INTO message_images (message_id, author_id, url)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, messageID, authorID, url)
	if err != nil {
		return nil, fmt.Errorf("insert message image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.MessageImage{
		ID:        id,
		MessageID: messageID,
		AuthorID:  authorID,
		URL:       url,
	}, nil
}

// EditMessage replaces the message content and sets edited=true. When
// replaceImages is true the previous attachment set is removed and the new
// one is attached within the same transaction.
func (s *SQLiteStore) EditMessage(ctx context.Context, id int64, content string, imageURLs []string, replaceImages bool) (*store.Message, error) {
	if utf8.RuneCountInString(content) > store.MaxContentLength {
		return nil, store.ErrContentTooLong
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var authorID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT author_id FROM messages WHERE id = ?`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message author: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE messages SET content = ?, edited = 1 WHERE id = ?`, content, id); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	if replaceImages {
		if _, err := tx.ExecContext(ctx, `DELETE FROM message_images WHERE message_id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete message images: %w", err)
		}
		for _, url := range imageURLs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO message_images (message_id, author_id, url) VALUES (?, ?, ?)`, id, authorID.Int64, url); err != nil {
				return nil, fmt.Errorf("insert message image: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// SoftDeleteMessage sets deleted=true; content and attachments stay in storage.
func (s *SQLiteStore) SoftDeleteMessage(ctx context.Context, id int64) (*store.Message, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}

	return s.GetMessage(ctx, id)
}

// ListRoomMessages returns room messages by descending creation time. The
// cursor boundary is inclusive, so the cursor message itself is part of the
// result window.
func (s *SQLiteStore) ListRoomMessages(ctx context.Context, roomID int64, cursorID *int64, limit, offset int) ([]*store.Message, error) {
	var query string
	var args []interface{}

	if cursorID != nil {
		var cursorCreatedAt time.Time
		err := s.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, *cursorID).Scan(&cursorCreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("cursor message %d: %w", *cursorID, store.ErrNotFound)
			}
			return nil, fmt.Errorf("query cursor message: %w", err)
		}

		query = `
			SELECT id, room_id, author_id, content, created_at, deleted, edited
			FROM messages
			WHERE room_id = ? AND created_at <= ?
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		args = []interface{}{roomID, cursorCreatedAt, limit, offset}
	} else {
		query = `
			SELECT id, room_id, author_id, content, created_at, deleted, edited
			FROM messages
			WHERE room_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		args = []interface{}{roomID, limit, offset}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		var authorID sql.NullInt64
		if err := rows.Scan(&msg.ID, &msg.RoomID, &authorID, &msg.Content, &msg.CreatedAt, &msg.Deleted, &msg.Edited); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if authorID.Valid {
			msg.AuthorID = &authorID.Int64
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ListMessageImages lists the attachments of a message in insertion order.
func (s *SQLiteStore) ListMessageImages(ctx context.Context, messageID int64) ([]*store.MessageImage, error) {
	query := `
		SELECT id, message_id, author_id, url
		FROM message_images
		WHERE message_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("query message images: %w", err)
	}
	defer rows.Close()

	var images []*store.MessageImage
	for rows.Next() {
		var img store.MessageImage
		if err := rows.Scan(&img.ID, &img.MessageID, &img.AuthorID, &img.URL); err != nil {
			return nil, fmt.Errorf("scan message image: %w", err)
		}
		images = append(images, &img)
	}

	return images, rows.Err()
}

// ==== FriendStore implementation ====

// CreateFriendRequest creates a pending request from userID to friendID.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	query := `
		INSERT INTO friends (user_id, friend_id, status)
		VALUES (?, ?, 'pending')
	`
	result, err := s.db.ExecContext(ctx, query, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getFriendByID(ctx, id)
}

func (s *SQLiteStore) getFriendByID(ctx context.Context, id int64) (*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE id = ?
	`
	var friend store.Friend
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&friend.ID,
		&friend.UserID,
		&friend.FriendID,
		&status,
		&friend.CreatedAt,
		&friend.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friend %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friend: %w", err)
	}
	friend.Status = store.FriendStatus(status)
	return &friend, nil
}

// GetFriendship retrieves the relationship row between two users in either direction.
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	var friend store.Friend
	var status string
	err := s.db.QueryRowContext(ctx, query, userID, friendID, friendID, userID).Scan(
		&friend.ID,
		&friend.UserID,
		&friend.FriendID,
		&status,
		&friend.CreatedAt,
		&friend.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	friend.Status = store.FriendStatus(status)
	return &friend, nil
}

// HasPendingRequest reports a pending request from userID to friendID.
func (s *SQLiteStore) HasPendingRequest(ctx context.Context, userID, friendID int64) (bool, error) {
	query := `
		SELECT 1 FROM friends
		WHERE user_id = ? AND friend_id = ? AND status = 'pending'
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, userID, friendID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query friend request: %w", err)
	}
	return true, nil
}

// UpdateFriendStatus updates the status of the request sent by userID.
func (s *SQLiteStore) UpdateFriendStatus(ctx context.Context, userID, friendID int64, status store.FriendStatus) error {
	query := `
		UPDATE friends
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND friend_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(status), userID, friendID)
	if err != nil {
		return fmt.Errorf("update friend status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("friendship: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteFriendship removes the relationship row in either direction.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	query := `
		DELETE FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	_, err := s.db.ExecContext(ctx, query, userID, friendID, friendID, userID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// AreFriends reports an accepted friendship in either direction.
func (s *SQLiteStore) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	query := `
		SELECT 1 FROM friends
		WHERE ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
		AND status = 'accepted'
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, userID, friendID, friendID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query friendship: %w", err)
	}
	return true, nil
}

// ListFriends lists relationship rows involving the user.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64, status *store.FriendStatus) ([]*store.Friend, error) {
	var query string
	var args []interface{}

	if status != nil {
		query = `
			SELECT id, user_id, friend_id, status, created_at, updated_at
			FROM friends
			WHERE (user_id = ? OR friend_id = ?) AND status = ?
			ORDER BY updated_at DESC
		`
		args = []interface{}{userID, userID, string(*status)}
	} else {
		query = `
			SELECT id, user_id, friend_id, status, created_at, updated_at
			FROM friends
			WHERE user_id = ? OR friend_id = ?
			ORDER BY updated_at DESC
		`
		args = []interface{}{userID, userID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var friends []*store.Friend
	for rows.Next() {
		var friend store.Friend
		var statusStr string
		if err := rows.Scan(&friend.ID, &friend.UserID, &friend.FriendID, &statusStr, &friend.CreatedAt, &friend.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friend.Status = store.FriendStatus(statusStr)
		friends = append(friends, &friend)
	}

	return friends, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
