// File: api/message.go
// Package api
//
// Wire-level message type enumeration shared by the frame codec (C2),
// the listener (C3), and the runtime coordinator's router (C11).
// See spec.md §6.1. Values are stable; new types are added in numeric
// gaps, never by renumbering.

package api

// MessageType tags the payload carried by a framed message.
type MessageType uint16

const (
	MsgHeartbeat MessageType = iota + 1
	MsgComplete
	MsgCompleteResponse
	MsgStream
	MsgStreamToken
	MsgStreamEnd
	MsgCancel
	MsgLspRequest
	MsgLspResponse
	MsgLspNotification
	MsgLspDiagnostics
	MsgLspProgress
	MsgToolStatus
)

func (t MessageType) String() string {
	switch t {
	case MsgHeartbeat:
		return "Heartbeat"
	case MsgComplete:
		return "Complete"
	case MsgCompleteResponse:
		return "CompleteResponse"
	case MsgStream:
		return "Stream"
	case MsgStreamToken:
		return "StreamToken"
	case MsgStreamEnd:
		return "StreamEnd"
	case MsgCancel:
		return "Cancel"
	case MsgLspRequest:
		return "LspRequest"
	case MsgLspResponse:
		return "LspResponse"
	case MsgLspNotification:
		return "LspNotification"
	case MsgLspDiagnostics:
		return "LspDiagnostics"
	case MsgLspProgress:
		return "LspProgress"
	case MsgToolStatus:
		return "ToolStatus"
	default:
		return "Unknown"
	}
}

// FrameFlags is the one-byte bitfield in the frame header.
type FrameFlags uint8

const (
	FlagCompressed FrameFlags = 1 << iota
	FlagFragment
	FlagLastFragment
)

func (f FrameFlags) Has(flag FrameFlags) bool { return f&flag != 0 }

// Frame is the decoded view of a wire message: header fields plus the
// raw (possibly still-compressed) payload. Hot-path decoders may
// return a Frame whose Payload aliases the input buffer.
type Frame struct {
	Version   uint8
	Flags     FrameFlags
	Type      MessageType
	MessageID uint64
	Payload   []byte
}
