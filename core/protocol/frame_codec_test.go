package protocol_test

import (
	"bytes"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/core/protocol"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	frame := &api.Frame{
		Version:   protocol.Version,
		Type:      api.MsgHeartbeat,
		MessageID: 42,
		Payload:   []byte(`{"ok":true}`),
	}
	raw := protocol.Encode(frame)

	got, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Type != api.MsgHeartbeat || got.MessageID != 42 {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !bytes.Equal(got.Payload, frame.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, frame.Payload)
	}
}

func TestEncodeDecode_Compressed(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)
	raw := protocol.EncodeCompressed(api.MsgStreamToken, 7, payload)

	got, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Flags.Has(api.FlagCompressed) {
		t.Fatal("expected FlagCompressed to be set for a compressible payload")
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatal("decompressed payload does not match original")
	}
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	raw := protocol.Encode(&api.Frame{Version: protocol.Version, Type: api.MsgHeartbeat})
	raw[0] ^= 0xFF
	if _, err := protocol.Decode(raw); err != api.ErrBadMagic {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestDecode_RejectsTruncatedBody(t *testing.T) {
	raw := protocol.Encode(&api.Frame{Version: protocol.Version, Type: api.MsgHeartbeat, Payload: []byte("hello")})
	truncated := raw[:len(raw)-2]
	if _, err := protocol.Decode(truncated); err != api.ErrShortBody {
		t.Fatalf("got %v, want ErrShortBody", err)
	}
}

func TestDecode_RejectsCRCMismatch(t *testing.T) {
	raw := protocol.Encode(&api.Frame{Version: protocol.Version, Type: api.MsgHeartbeat, Payload: []byte("hello")})
	raw[len(raw)-1] ^= 0xFF
	if _, err := protocol.Decode(raw); err != api.ErrCrcMismatch {
		t.Fatalf("got %v, want ErrCrcMismatch", err)
	}
}

func TestDecode_RejectsHeaderCorruption(t *testing.T) {
	raw := protocol.Encode(&api.Frame{Version: protocol.Version, Type: api.MsgHeartbeat, MessageID: 9, Payload: []byte("hello")})
	const offMessageID = 12 // must stay in sync with core/protocol/constants.go
	raw[offMessageID] ^= 0xFF
	if _, err := protocol.Decode(raw); err != api.ErrCrcMismatch {
		t.Fatalf("got %v, want ErrCrcMismatch for a corrupted MessageID byte", err)
	}
}

func TestDecode_RejectsShortHeader(t *testing.T) {
	if _, err := protocol.Decode(make([]byte, 4)); err != api.ErrShortHeader {
		t.Fatalf("got %v, want ErrShortHeader", err)
	}
}
