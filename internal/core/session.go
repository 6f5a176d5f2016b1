package core

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/blob"
	"github.com/ademetov/messenger-server/internal/imagecodec"
	"github.com/ademetov/messenger-server/internal/store"
)

// State of a connection session.
type State int

const (
	StateConnecting State = iota
	StateJoined
	StateClosed
)

// Session is the per-connection state machine bound to one room. It parses
// inbound frames, enforces authorization and payload limits, persists
// mutations and publishes broadcast events to the room group.
//
// The acting principal is always the user the session was created with;
// payload-supplied identity is never trusted.
type Session struct {
	state  State
	roomID int64
	user   *store.User
	client *Client

	groups   *Registry
	rooms    store.RoomStore
	messages store.MessageStore
	blobs    blob.Store
	log      zerolog.Logger
}

// NewSession constructs a session in the connecting state.
func NewSession(roomID int64, user *store.User, client *Client, groups *Registry, rooms store.RoomStore, messages store.MessageStore, blobs blob.Store, logger *zerolog.Logger) *Session {
	return &Session{
		state:    StateConnecting,
		roomID:   roomID,
		user:     user,
		client:   client,
		groups:   groups,
		rooms:    rooms,
		messages: messages,
		blobs:    blobs,
		log:      logger.With().Int64("room_id", roomID).Int64("user_id", user.ID).Logger(),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Client returns the broadcast client bound to this session.
func (s *Session) Client() *Client {
	return s.client
}

// Join passes the session through the room membership gate. On success the
// session enters the joined state and its client is registered with the
// room's broadcast group; otherwise the session closes without ever joining.
func (s *Session) Join(ctx context.Context) error {
	member, err := s.rooms.IsMember(ctx, s.roomID, s.user.ID)
	if err != nil {
		s.state = StateClosed
		return fmt.Errorf("membership check: %w", err)
	}
	if !member {
		s.state = StateClosed
		return ErrNotMember
	}

	s.groups.Join(s.roomID, s.client)
	s.state = StateJoined
	return nil
}

// Close leaves the room group and marks the session closed. Safe to call on
// every exit path, including sessions that never joined, and idempotent.
func (s *Session) Close() {
	s.groups.Leave(s.roomID, s.client)
	s.state = StateClosed
}

// HandleFrame processes one inbound frame. A nil return means the frame was
// applied or silently dropped; a non-nil return means the connection must be
// closed (unknown action, or a storage failure).
func (s *Session) HandleFrame(ctx context.Context, raw []byte) error {
	if s.state != StateJoined {
		return ErrSessionNotJoined
	}

	frame, err := ParseFrame(raw)
	if err != nil {
		// Malformed frame: drop, no NACK.
		s.log.Debug().Err(err).Msg("dropping malformed frame")
		return nil
	}

	switch frame.Kind() {
	case ActionSend:
		return s.handleSend(ctx, frame)
	case ActionEdit:
		return s.handleEdit(ctx, frame)
	case ActionDelete:
		return s.handleDelete(ctx, frame)
	default:
		return ErrUnknownAction
	}
}

func (s *Session) handleSend(ctx context.Context, frame *Frame) error {
	if frame.Message == "" && len(frame.Images) == 0 {
		s.log.Debug().Msg("dropping empty send frame")
		return nil
	}
	if utf8.RuneCountInString(frame.Message) > store.MaxContentLength {
		s.log.Debug().Msg("dropping send frame: content too long")
		return nil
	}
	if len(frame.Images) > store.MaxImagesPerMessage {
		s.log.Debug().Int("count", len(frame.Images)).Msg("dropping send frame: too many images")
		return nil
	}

	// Decode and validate the whole batch before any persistence write.
	images, ok := s.decodeImages(frame.Images)
	if !ok {
		return nil
	}

	msg, err := s.messages.CreateMessage(ctx, s.roomID, s.user.ID, frame.Message)
	if err != nil {
		if errors.Is(err, store.ErrContentTooLong) {
			s.log.Debug().Msg("dropping send frame: content too long")
			return nil
		}
		return fmt.Errorf("create message: %w", err)
	}

	for _, img := range images {
		url, err := s.blobs.Save(img.Data, img.FileName)
		if err != nil {
			return fmt.Errorf("save image blob: %w", err)
		}
		if _, err := s.messages.AddMessageImage(ctx, msg.ID, s.user.ID, url); err != nil {
			return fmt.Errorf("attach image: %w", err)
		}
	}

	s.groups.Publish(s.roomID, Event{Kind: EventSendMessage, RoomID: s.roomID, MessageID: msg.ID})
	return nil
}

func (s *Session) handleEdit(ctx context.Context, frame *Frame) error {
	msg, ok, err := s.resolveMessage(ctx, frame)
	if err != nil || !ok {
		return err
	}

	// Only the author may edit.
	if msg.AuthorID == nil || *msg.AuthorID != s.user.ID {
		s.log.Debug().Int64("message_id", msg.ID).Msg("dropping edit frame: not the author")
		return nil
	}
	if utf8.RuneCountInString(frame.Content) > store.MaxContentLength {
		s.log.Debug().Msg("dropping edit frame: content too long")
		return nil
	}

	replaceImages := frame.Images != nil
	var urls, saved []string
	if replaceImages {
		if len(frame.Images) > store.MaxImagesPerMessage {
			s.log.Debug().Int("count", len(frame.Images)).Msg("dropping edit frame: too many images")
			return nil
		}
		images, ok := s.decodeImages(frame.Images)
		if !ok {
			return nil
		}
		urls = make([]string, 0, len(images))
		for _, img := range images {
			url, err := s.blobs.Save(img.Data, img.FileName)
			if err != nil {
				return fmt.Errorf("save image blob: %w", err)
			}
			urls = append(urls, url)
			saved = append(saved, img.FileName)
		}
	}

	if _, err := s.messages.EditMessage(ctx, msg.ID, frame.Content, urls, replaceImages); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrContentTooLong) {
			// The target vanished between resolve and write; the blobs
			// stored above are orphans now.
			s.discardBlobs(saved)
			s.log.Debug().Err(err).Msg("dropping edit frame")
			return nil
		}
		return fmt.Errorf("edit message: %w", err)
	}

	s.groups.Publish(s.roomID, Event{Kind: EventEditMessage, RoomID: s.roomID, MessageID: msg.ID})
	return nil
}

func (s *Session) handleDelete(ctx context.Context, frame *Frame) error {
	msg, ok, err := s.resolveMessage(ctx, frame)
	if err != nil || !ok {
		return err
	}

	if _, err := s.messages.SoftDeleteMessage(ctx, msg.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("soft delete message: %w", err)
	}

	s.groups.Publish(s.roomID, Event{Kind: EventDeleteMessage, RoomID: s.roomID, MessageID: msg.ID})
	return nil
}

// resolveMessage loads the frame's target message. ok=false with a nil error
// means the frame is to be dropped; a non-nil error is connection-fatal.
func (s *Session) resolveMessage(ctx context.Context, frame *Frame) (*store.Message, bool, error) {
	if frame.MessagePK == nil {
		s.log.Debug().Msg("dropping frame: missing message_pk")
		return nil, false, nil
	}

	msg, err := s.messages.GetMessage(ctx, *frame.MessagePK)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Int64("message_id", *frame.MessagePK).Msg("dropping frame: message not found")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolve message: %w", err)
	}

	// A frame may only target messages of the session's own room.
	if msg.RoomID != s.roomID {
		s.log.Debug().Int64("message_id", msg.ID).Msg("dropping frame: message outside room")
		return nil, false, nil
	}

	return msg, true, nil
}

// discardBlobs removes stored attachment files whose message write did not
// go through.
func (s *Session) discardBlobs(fileNames []string) {
	for _, name := range fileNames {
		if err := s.blobs.Remove(name); err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("failed to remove orphaned blob")
		}
	}
}

// decodeImages decodes the full image batch, rejecting the whole frame when
// any payload fails to decode or carries a disallowed extension.
func (s *Session) decodeImages(payloads []string) ([]*imagecodec.Image, bool) {
	images := make([]*imagecodec.Image, 0, len(payloads))
	for _, payload := range payloads {
		img, err := imagecodec.Decode(payload)
		if err != nil {
			s.log.Debug().Err(err).Msg("dropping frame: image decode failed")
			return nil, false
		}
		if !imagecodec.IsAllowedExtension(img.Ext) {
			s.log.Debug().Str("ext", img.Ext).Msg("dropping frame: image type not allowed")
			return nil, false
		}
		images = append(images, img)
	}
	return images, true
}
