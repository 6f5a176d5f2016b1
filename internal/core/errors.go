package core

import "errors"

// Connection-fatal errors. Returning one of these from the session closes
// the transport connection; every other rejection drops the frame silently.
var (
	// ErrNotMember is returned by Join when the principal does not belong
	// to the room. The connection never reaches the joined state.
	ErrNotMember = errors.New("not a room member")
	// ErrUnknownAction is returned for a frame whose action tag matches
	// no known variant.
	ErrUnknownAction = errors.New("unknown action")
	// ErrSessionNotJoined is returned when a frame arrives outside the
	// joined state.
	ErrSessionNotJoined = errors.New("session not joined")
)
