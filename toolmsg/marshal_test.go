// File: toolmsg/marshal_test.go
package toolmsg

import (
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func TestMarshalUnmarshal_ToolExecRoundTrip(t *testing.T) {
	msg := &api.ToolMessage{
		Origin:        api.OriginRuntime,
		CorrelationID: NewCorrelationID(),
		Kind:          api.KindToolExec,
		ToolExec:      &api.ToolExecPayload{ToolName: "search", State: api.ToolProgress, Detail: "50%"},
	}
	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Origin != msg.Origin || got.CorrelationID != msg.CorrelationID || got.Kind != msg.Kind {
		t.Fatalf("envelope mismatch: %+v", got)
	}
	if got.ToolExec == nil || *got.ToolExec != *msg.ToolExec {
		t.Fatalf("tool exec payload mismatch: %+v", got.ToolExec)
	}
}

func TestMarshalUnmarshal_ApprovalRoundTrip(t *testing.T) {
	msg := &api.ToolMessage{
		Origin:        api.OriginEditor,
		CorrelationID: NewCorrelationID(),
		Kind:          api.KindApproval,
		Approval:      &api.ApprovalPayload{Phase: api.ApprovalResponse, ToolName: "exec", Approved: true},
	}
	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Approval == nil || *got.Approval != *msg.Approval {
		t.Fatalf("approval payload mismatch: %+v", got.Approval)
	}
}

func TestMarshal_RejectsInvalidCorrelationID(t *testing.T) {
	msg := &api.ToolMessage{
		Origin:        api.OriginRuntime,
		CorrelationID: "not-a-uuid",
		Kind:          api.KindToolExec,
		ToolExec:      &api.ToolExecPayload{ToolName: "x"},
	}
	if _, err := Marshal(msg); err == nil {
		t.Fatal("expected an error for an invalid correlation id")
	}
}

func TestUnmarshal_RejectsMissingPayloadForKind(t *testing.T) {
	data := []byte(`{"origin":"runtime","correlation_id":"","kind":"tool_exec"}`)
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected an error when the kind's payload field is absent")
	}
}

func TestUnmarshal_RejectsUnknownKind(t *testing.T) {
	data := []byte(`{"origin":"runtime","kind":"mystery"}`)
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}
