package packet

import (
	"encoding/binary"
	"errors"
)

// ErrShortBody is reported by Reader.Err when a read ran past the body.
var ErrShortBody = errors.New("packet: body too short")

// Reader reads big-endian fields from a frame body.
// Reads past the end return zero values and latch ErrShortBody,
// so handlers can read every field and check Err once.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.data) {
		r.err = ErrShortBody
		r.off = len(r.data)
		return false
	}
	return true
}

// ReadU8 reads 1 unsigned byte.
func (r *Reader) ReadU8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadU16 reads 2 bytes big-endian.
func (r *Reader) ReadU16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadU32 reads 4 bytes big-endian.
func (r *Reader) ReadU32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadI32 reads 4 bytes big-endian as a signed value.
func (r *Reader) ReadI32() int32 {
	return int32(r.ReadU32())
}

// ReadString reads a u16 length prefix followed by UTF-8 bytes.
func (r *Reader) ReadString() string {
	n := int(r.ReadU16())
	if n == 0 || !r.need(n) {
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Err returns ErrShortBody if any read ran out of data.
func (r *Reader) Err() error {
	return r.err
}
