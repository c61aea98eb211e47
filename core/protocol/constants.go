// File: core/protocol/constants.go
package protocol

// Header layout: magic(4) version(1) flags(1) type(2) length(4)
// message_id(8) crc32(4) = 24 bytes, all little-endian.
const (
	Magic      uint32 = 0x4C415043 // "LAPC"
	Version    uint8  = 1
	HeaderSize        = 24

	offMagic     = 0
	offVersion   = 4
	offFlags     = 5
	offType      = 6
	offLength    = 8
	offMessageID = 12
	offCRC32     = 20

	// MaxPayloadLen bounds a single frame's payload (spec.md §6.1) to
	// keep a corrupt length field from driving an unbounded
	// allocation.
	MaxPayloadLen = 10 << 20 // 10 MiB
)
