// Package toolmsg marshals and unmarshals api.ToolMessage envelopes
// carried in MsgToolStatus frames (spec.md §4.12). Encoding is plain
// encoding/json over the frame payload, per SPEC_FULL.md §4.12's
// "slow path" choice — these messages are low-frequency control
// traffic, not hot-path streaming data, so the frame codec's hot-path
// concerns do not apply here.
package toolmsg
