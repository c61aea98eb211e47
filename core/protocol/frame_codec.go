// File: core/protocol/frame_codec.go
//
// Zero-copy-friendly encode/decode of the 24-byte framed wire format.
// One call encodes/decodes exactly one ring message: core/ring already
// demarcates message boundaries, so this layer only has to validate
// the header and (optionally) transparently compress/decompress the
// payload.

package protocol

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"

	"github.com/hioload-ai/coderuntime/api"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Encode serializes frame into a fresh header+payload byte slice. When
// frame.Flags has FlagCompressed set, frame.Payload is treated as
// already-compressed bytes (callers that want this codec to compress
// for them should use EncodeCompressed instead).
func Encode(frame *api.Frame) []byte {
	buf := make([]byte, HeaderSize+len(frame.Payload))
	writeHeader(buf, frame)
	copy(buf[HeaderSize:], frame.Payload)
	// offCRC32 is left zeroed by writeHeader while the checksum below is
	// computed, then patched in — the CRC must cover the whole frame
	// (header+payload) with its own field blanked, not payload alone.
	binary.LittleEndian.PutUint32(buf[offCRC32:], crc32.ChecksumIEEE(buf))
	return buf
}

// EncodeCompressed zstd-compresses payload and encodes it with
// FlagCompressed set, provided compression actually shrinks it;
// otherwise it falls back to an uncompressed frame so small messages
// never pay the framing overhead of a compressed header for nothing.
func EncodeCompressed(msgType api.MessageType, messageID uint64, payload []byte) []byte {
	compressed := zstdEncoder.EncodeAll(payload, nil)
	if len(compressed) >= len(payload) {
		return Encode(&api.Frame{Version: Version, Type: msgType, MessageID: messageID, Payload: payload})
	}
	return Encode(&api.Frame{
		Version:   Version,
		Flags:     api.FlagCompressed,
		Type:      msgType,
		MessageID: messageID,
		Payload:   compressed,
	})
}

var zeroCRC [4]byte

// checksumWithZeroedCRC computes the CRC32-IEEE of header‖payload as if
// header's CRC field (at offCRC32:offCRC32+4) were zero, without
// mutating header — mirrors Encode, which checksums the whole frame
// while the field is still blank.
func checksumWithZeroedCRC(header, payload []byte) uint32 {
	sum := crc32.Update(0, crc32.IEEETable, header[:offCRC32])
	sum = crc32.Update(sum, crc32.IEEETable, zeroCRC[:])
	sum = crc32.Update(sum, crc32.IEEETable, header[offCRC32+4:])
	sum = crc32.Update(sum, crc32.IEEETable, payload)
	return sum
}

func writeHeader(buf []byte, frame *api.Frame) {
	binary.LittleEndian.PutUint32(buf[offMagic:], Magic)
	buf[offVersion] = frame.Version
	buf[offFlags] = uint8(frame.Flags)
	binary.LittleEndian.PutUint16(buf[offType:], uint16(frame.Type))
	binary.LittleEndian.PutUint32(buf[offLength:], uint32(len(frame.Payload)))
	binary.LittleEndian.PutUint64(buf[offMessageID:], frame.MessageID)
}

// Decode parses raw into a Frame, validating magic, version, length
// bound, and CRC. The returned Frame.Payload aliases raw — callers
// that retain it beyond the lifetime of raw's backing array (e.g. a
// ring-owned buffer about to be reused) must copy it first.
func Decode(raw []byte) (*api.Frame, error) {
	if len(raw) < HeaderSize {
		return nil, api.ErrShortHeader
	}
	if binary.LittleEndian.Uint32(raw[offMagic:]) != Magic {
		return nil, api.ErrBadMagic
	}
	version := raw[offVersion]
	if version != Version {
		return nil, api.ErrUnsupportedVersion
	}
	length := binary.LittleEndian.Uint32(raw[offLength:])
	if length > MaxPayloadLen {
		return nil, api.ErrOversizeLength
	}
	if uint32(len(raw)-HeaderSize) < length {
		return nil, api.ErrShortBody
	}

	wantCRC := binary.LittleEndian.Uint32(raw[offCRC32:])
	payload := raw[HeaderSize : HeaderSize+int(length)]
	if checksumWithZeroedCRC(raw[:HeaderSize], payload) != wantCRC {
		return nil, api.ErrCrcMismatch
	}

	frame := &api.Frame{
		Version:   version,
		Flags:     api.FrameFlags(raw[offFlags]),
		Type:      api.MessageType(binary.LittleEndian.Uint16(raw[offType:])),
		MessageID: binary.LittleEndian.Uint64(raw[offMessageID:]),
		Payload:   payload,
	}

	if frame.Flags.Has(api.FlagCompressed) {
		decompressed, err := zstdDecoder.DecodeAll(frame.Payload, nil)
		if err != nil {
			return nil, api.ErrCorruptCache
		}
		frame.Payload = decompressed
	}
	return frame, nil
}
