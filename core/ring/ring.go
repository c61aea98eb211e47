// File: core/ring/ring.go
// Package ring implements the single-producer/single-consumer byte
// ring of spec.md §3.2 and §4.1: a power-of-two-sized byte region with
// a 64-byte-aligned header carrying two monotonic sequence counters,
// and length-prefixed message slots.
//
// try_write/try_read are wait-free on the common path: no lock is
// taken, and "full on write"/"empty on read" are non-fatal signals,
// never errors (spec.md §4.1, §7). The companion Waiter type
// (waiter.go, waiter_linux.go, waiter_other.go) provides the blocking
// fallback for producers/consumers that would otherwise spin.

package ring

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/hioload-ai/coderuntime/api"
)

const (
	// RingMagic identifies a valid ring header for cross-process
	// validation.
	RingMagic uint32 = 0x52494e47 // "RING"
	// RingVersion is the current header layout version.
	RingVersion uint8 = 1

	cacheLine = 64

	// Header layout: [0,16) fixed fields, [64,72) write_seq on its own
	// line, [128,136) read_seq on its own line, data starts at 192.
	offMagic    = 0
	offVersion  = 4
	offCapacity = 8
	offWriteSeq = 64
	offReadSeq  = 128
	// HeaderSize is the fixed header size prefixed to the data region.
	HeaderSize = 192

	slotHeaderSize = 4 // uint32 length prefix
	slotAlign      = 8
)

// Ring is a lock-free SPSC byte ring over a caller-supplied memory
// region (heap-allocated, or mmap'd for cross-process use by
// core/listener). The region must be at least HeaderSize + capacity
// bytes and must not be relocated for the lifetime of the Ring.
type Ring struct {
	region   []byte
	capacity uint32 // power of two
	mask     uint32
}

// New wraps region as a fresh ring with the given data capacity
// (rounded up to a power of two). The region is zeroed for the header
// and capacity is written so peers opening the same region can
// validate it.
func New(region []byte, capacity uint32) *Ring {
	capacity = nextPow2(capacity)
	if uint32(len(region)) < HeaderSize+capacity {
		panic("ring: region too small for requested capacity")
	}
	r := &Ring{region: region, capacity: capacity, mask: capacity - 1}
	binary.LittleEndian.PutUint32(region[offMagic:], RingMagic)
	region[offVersion] = RingVersion
	binary.LittleEndian.PutUint32(region[offCapacity:], capacity)
	atomic.StoreUint64(r.writeSeqPtr(), 0)
	atomic.StoreUint64(r.readSeqPtr(), 0)
	return r
}

// Open validates an existing region (written by a peer process via
// New) and returns a Ring over it without resetting sequence
// counters.
func Open(region []byte) (*Ring, error) {
	if len(region) < HeaderSize {
		return nil, api.ErrShortHeader
	}
	magic := binary.LittleEndian.Uint32(region[offMagic:])
	if magic != RingMagic {
		return nil, api.ErrBadMagic
	}
	if region[offVersion] != RingVersion {
		return nil, api.ErrUnsupportedVersion
	}
	capacity := binary.LittleEndian.Uint32(region[offCapacity:])
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, api.ErrCorruptCache
	}
	if uint32(len(region)) < HeaderSize+capacity {
		return nil, api.ErrTruncated
	}
	return &Ring{region: region, capacity: capacity, mask: capacity - 1}, nil
}

func (r *Ring) writeSeqPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&r.region[offWriteSeq]))
}

func (r *Ring) readSeqPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&r.region[offReadSeq]))
}

// Occupancy returns write_seq - read_seq, the number of bytes
// currently occupied in the data region.
func (r *Ring) Occupancy() uint64 {
	return atomic.LoadUint64(r.writeSeqPtr()) - atomic.LoadUint64(r.readSeqPtr())
}

// Cap returns the data-region capacity in bytes.
func (r *Ring) Cap() uint32 { return r.capacity }

func slotSize(n int) uint32 {
	total := slotHeaderSize + n
	if rem := total % slotAlign; rem != 0 {
		total += slotAlign - rem
	}
	return uint32(total)
}

// TryWrite attempts to enqueue msg. It returns false without copying
// anything if the ring cannot accept the message without overwriting
// unread data (spec.md §4.1 "Failure model").
func (r *Ring) TryWrite(msg []byte) bool {
	need := slotSize(len(msg))
	if need > r.capacity {
		return false // can never fit
	}
	writeSeq := atomic.LoadUint64(r.writeSeqPtr())
	readSeq := atomic.LoadUint64(r.readSeqPtr())
	if uint64(r.capacity)-(writeSeq-readSeq) < uint64(need) {
		return false
	}

	off := uint32(writeSeq) & r.mask
	data := r.region[HeaderSize:]
	r.writeSlot(data, off, msg)

	// Release-store: slot contents must be visible before the new
	// write_seq is observable by the reader.
	atomic.StoreUint64(r.writeSeqPtr(), writeSeq+uint64(need))
	return true
}

// writeSlot writes the length-prefixed, padded slot at byte offset
// off within data, wrapping around the ring boundary as needed.
func (r *Ring) writeSlot(data []byte, off uint32, msg []byte) {
	var lenBuf [slotHeaderSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(msg)))
	r.copyWrapped(data, off, lenBuf[:])
	r.copyWrapped(data, (off+slotHeaderSize)&r.mask, msg)
}

func (r *Ring) copyWrapped(data []byte, off uint32, src []byte) {
	n := copy(data[off:], src)
	if n < len(src) {
		copy(data, src[n:])
	}
}

func (r *Ring) readWrapped(data []byte, off uint32, dst []byte) {
	n := copy(dst, data[off:])
	if n < len(dst) {
		copy(dst[n:], data)
	}
}

// TryRead returns the oldest complete message, or (nil, false) if the
// ring is empty. The returned slice is a fresh copy; it does not alias
// the ring's backing memory.
func (r *Ring) TryRead() ([]byte, bool) {
	readSeq := atomic.LoadUint64(r.readSeqPtr())
	writeSeq := atomic.LoadUint64(r.writeSeqPtr()) // acquire-load
	if writeSeq == readSeq {
		return nil, false
	}

	data := r.region[HeaderSize:]
	off := uint32(readSeq) & r.mask
	var lenBuf [slotHeaderSize]byte
	r.readWrapped(data, off, lenBuf[:])
	n := binary.LittleEndian.Uint32(lenBuf[:])

	msg := make([]byte, n)
	r.readWrapped(data, (off+slotHeaderSize)&r.mask, msg)

	atomic.StoreUint64(r.readSeqPtr(), readSeq+uint64(slotSize(int(n))))
	return msg, true
}

func nextPow2(v uint32) uint32 {
	if v < 2 {
		return 2
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}
