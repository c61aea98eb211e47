// Package protocol implements the 24-byte framed wire codec (spec.md
// §3.1/§6.1) carried over the core/ring byte rings between runtime and
// editor: a fixed header (magic, version, flags, message type, payload
// length, message id, CRC32) followed by an opaque payload, optionally
// zstd-compressed when FlagCompressed is set. The codec does not
// interpret payloads; every message type, hot-path streaming included,
// carries JSON, and there is no zero-copy archived encoding.
package protocol
