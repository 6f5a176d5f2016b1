package core

import "encoding/json"

// Action is the decoded variant of an inbound frame's action tag.
type Action int

const (
	ActionUnknown Action = iota
	ActionSend
	ActionEdit
	ActionDelete
)

// Frame is one inbound unit of the chat protocol.
//
// Images distinguishes "absent" (nil) from "present but empty": an edit
// frame without an images field keeps the existing attachments, while an
// explicit empty list replaces them with nothing.
type Frame struct {
	Action    string   `json:"action"`
	Message   string   `json:"message"`
	Images    []string `json:"images"`
	MessagePK *int64   `json:"message_pk"`
	Content   string   `json:"content"`
}

// ParseFrame decodes a raw inbound frame. A JSON error is a validation
// failure, not a protocol violation.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Kind maps the action tag to its variant. Frames from legacy clients carry
// no action tag and only ever send; treat them as send when a payload is
// present.
func (f *Frame) Kind() Action {
	switch f.Action {
	case "send":
		return ActionSend
	case "edit":
		return ActionEdit
	case "delete":
		return ActionDelete
	case "":
		if f.Message != "" || len(f.Images) > 0 {
			return ActionSend
		}
		return ActionUnknown
	default:
		return ActionUnknown
	}
}
