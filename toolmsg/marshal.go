// File: toolmsg/marshal.go
package toolmsg

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hioload-ai/coderuntime/api"
)

// wireEnvelope mirrors api.ToolMessage for JSON purposes; its Kind
// field is rendered as a human-readable tag rather than an int so the
// wire format stays stable if the iota ordering in api.ToolMessageKind
// ever changes.
type wireEnvelope struct {
	Origin        string `json:"origin"`
	CorrelationID string `json:"correlation_id"`
	Kind          string `json:"kind"`

	ToolExec    *api.ToolExecPayload    `json:"tool_exec,omitempty"`
	CommandExec *api.CommandExecPayload `json:"command_exec,omitempty"`
	Diff        *api.DiffPayload        `json:"diff,omitempty"`
	Approval    *api.ApprovalPayload    `json:"approval,omitempty"`
}

func originToWire(o api.Origin) string {
	if o == api.OriginEditor {
		return "editor"
	}
	return "runtime"
}

func originFromWire(s string) (api.Origin, error) {
	switch s {
	case "runtime":
		return api.OriginRuntime, nil
	case "editor":
		return api.OriginEditor, nil
	default:
		return 0, fmt.Errorf("toolmsg: unknown origin %q", s)
	}
}

func kindToWire(k api.ToolMessageKind) (string, error) {
	switch k {
	case api.KindToolExec:
		return "tool_exec", nil
	case api.KindCommandExec:
		return "command_exec", nil
	case api.KindDiff:
		return "diff", nil
	case api.KindApproval:
		return "approval", nil
	default:
		return "", fmt.Errorf("toolmsg: unknown message kind %d", k)
	}
}

func kindFromWire(s string) (api.ToolMessageKind, error) {
	switch s {
	case "tool_exec":
		return api.KindToolExec, nil
	case "command_exec":
		return api.KindCommandExec, nil
	case "diff":
		return api.KindDiff, nil
	case "approval":
		return api.KindApproval, nil
	default:
		return 0, fmt.Errorf("toolmsg: unknown message kind %q", s)
	}
}

// Marshal encodes msg to its JSON wire form. The CorrelationID must be
// a valid uuid.UUID string; Marshal validates it so a malformed
// correlation id is caught at encode time, not deep in a decoder on
// the other side of the wire.
func Marshal(msg *api.ToolMessage) ([]byte, error) {
	if msg.CorrelationID != "" {
		if _, err := uuid.Parse(msg.CorrelationID); err != nil {
			return nil, fmt.Errorf("toolmsg: invalid correlation id: %w", err)
		}
	}
	kind, err := kindToWire(msg.Kind)
	if err != nil {
		return nil, err
	}
	w := wireEnvelope{
		Origin:        originToWire(msg.Origin),
		CorrelationID: msg.CorrelationID,
		Kind:          kind,
		ToolExec:      msg.ToolExec,
		CommandExec:   msg.CommandExec,
		Diff:          msg.Diff,
		Approval:      msg.Approval,
	}
	return json.Marshal(w)
}

// Unmarshal decodes data into a *api.ToolMessage, validating that the
// payload field matching Kind is actually present.
func Unmarshal(data []byte) (*api.ToolMessage, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("toolmsg: decode: %w", err)
	}
	origin, err := originFromWire(w.Origin)
	if err != nil {
		return nil, err
	}
	kind, err := kindFromWire(w.Kind)
	if err != nil {
		return nil, err
	}
	if w.CorrelationID != "" {
		if _, err := uuid.Parse(w.CorrelationID); err != nil {
			return nil, fmt.Errorf("toolmsg: invalid correlation id: %w", err)
		}
	}

	msg := &api.ToolMessage{
		Origin:        origin,
		CorrelationID: w.CorrelationID,
		Kind:          kind,
	}
	switch kind {
	case api.KindToolExec:
		if w.ToolExec == nil {
			return nil, fmt.Errorf("toolmsg: kind tool_exec missing its payload")
		}
		msg.ToolExec = w.ToolExec
	case api.KindCommandExec:
		if w.CommandExec == nil {
			return nil, fmt.Errorf("toolmsg: kind command_exec missing its payload")
		}
		msg.CommandExec = w.CommandExec
	case api.KindDiff:
		if w.Diff == nil {
			return nil, fmt.Errorf("toolmsg: kind diff missing its payload")
		}
		msg.Diff = w.Diff
	case api.KindApproval:
		if w.Approval == nil {
			return nil, fmt.Errorf("toolmsg: kind approval missing its payload")
		}
		msg.Approval = w.Approval
	}
	return msg, nil
}

// NewCorrelationID returns a fresh correlation id for a new envelope
// chain (a request and its eventual response share one).
func NewCorrelationID() string {
	return uuid.NewString()
}
