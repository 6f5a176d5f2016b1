package core

// EventKind names the broadcast events a session emits to its room group.
type EventKind int

const (
	// EventSendMessage notifies the room about a newly created message.
	EventSendMessage EventKind = iota
	// EventEditMessage notifies the room that a message was edited.
	EventEditMessage
	// EventDeleteMessage notifies the room that a message was soft-deleted.
	EventDeleteMessage
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSendMessage:
		return "send_message"
	case EventEditMessage:
		return "edit_message"
	case EventDeleteMessage:
		return "delete_message"
	default:
		return "unknown"
	}
}

// Event references a message by id; every receiving connection renders its
// own view of it, so the payload is never serialized here.
type Event struct {
	Kind      EventKind
	RoomID    int64
	MessageID int64
}
