// File: api/toolmsg.go
// Package api
//
// Typed tool-execution envelopes exchanged between the runtime and the
// editor (spec.md §4.12). The runtime only marshals these messages;
// the actual side effects (file edits, terminal commands) happen
// outside (spec.md §1).

package api

// Origin identifies which side produced a tool-message envelope.
type Origin int

const (
	OriginRuntime Origin = iota
	OriginEditor
)

// ToolExecState enumerates a tool call's lifecycle.
type ToolExecState int

const (
	ToolStarted ToolExecState = iota
	ToolProgress
	ToolCompleted
	ToolFailed
)

// CommandExecState enumerates a terminal command's lifecycle.
type CommandExecState int

const (
	CommandStarted CommandExecState = iota
	CommandOutput
	CommandCompleted
	CommandTimeout
)

// DiffOp enumerates diff-view operations.
type DiffOp int

const (
	DiffOpenFiles DiffOp = iota
	DiffSave
	DiffRevert
	DiffClose
)

// ApprovalPhase distinguishes a tool-approval request from its
// response.
type ApprovalPhase int

const (
	ApprovalRequest ApprovalPhase = iota
	ApprovalResponse
)

// ToolMessage is the stateless envelope carried in MsgToolStatus
// frames; only identity and framing are enforced by the runtime.
type ToolMessage struct {
	Origin        Origin
	CorrelationID string

	// Exactly one of the following is populated, selected by Kind.
	Kind ToolMessageKind

	ToolExec    *ToolExecPayload
	CommandExec *CommandExecPayload
	Diff        *DiffPayload
	Approval    *ApprovalPayload
}

// ToolMessageKind tags which payload field of ToolMessage is set.
type ToolMessageKind int

const (
	KindToolExec ToolMessageKind = iota
	KindCommandExec
	KindDiff
	KindApproval
)

type ToolExecPayload struct {
	ToolName string
	State    ToolExecState
	Detail   string
}

type CommandExecPayload struct {
	Command string
	State   CommandExecState
	Output  string
}

type DiffPayload struct {
	Op    DiffOp
	Paths []string
}

type ApprovalPayload struct {
	Phase    ApprovalPhase
	ToolName string
	Approved bool
	Reason   string
}
