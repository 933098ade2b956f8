package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Protocol header versions. The version byte is ASCII on the wire.
const (
	Version1 byte = '1'
	Version2 byte = '2'
)

const (
	header1Size = 17 // length(4) version(1) cmd(4) user(4) result(4)
	header2Size = 21 // version 1 + error(4)

	// prefixSize is how many bytes must be buffered before the header size is known.
	prefixSize = 5
)

var (
	// ErrIncomplete means the buffer does not yet hold a whole header or frame.
	ErrIncomplete = errors.New("packet: incomplete")
	// ErrUnsupportedVersion is fatal to the connection.
	ErrUnsupportedVersion = errors.New("packet: unsupported header version")
	// ErrBadLength means the declared length cannot describe a valid frame.
	ErrBadLength = errors.New("packet: bad frame length")
)

// Header is the fixed-layout frame header shared by requests and responses.
// Error is only carried on the wire by version 2 headers.
type Header struct {
	Length  uint32
	Version byte
	CmdID   uint32
	UserID  uint32
	Result  int32
	Error   uint32
}

// HeaderSize returns the header length for a version byte.
func HeaderSize(version byte) (int, error) {
	switch version {
	case Version1:
		return header1Size, nil
	case Version2:
		return header2Size, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, version)
	}
}

// BodyLen is the number of body bytes that follow the header.
func (h Header) BodyLen() int {
	size, err := HeaderSize(h.Version)
	if err != nil || int(h.Length) < size {
		return 0
	}
	return int(h.Length) - size
}

// ParseHeader reads a header of the given version from the front of buf.
// Numeric fields are read positionally; only a short buffer or an unknown
// version is an error.
func ParseHeader(buf []byte, version byte) (Header, error) {
	size, err := HeaderSize(version)
	if err != nil {
		return Header{}, err
	}
	if len(buf) < size {
		return Header{}, ErrIncomplete
	}
	h := Header{
		Length:  binary.BigEndian.Uint32(buf[0:4]),
		Version: buf[4],
		CmdID:   binary.BigEndian.Uint32(buf[5:9]),
		UserID:  binary.BigEndian.Uint32(buf[9:13]),
		Result:  int32(binary.BigEndian.Uint32(buf[13:17])),
	}
	if version == Version2 {
		h.Error = binary.BigEndian.Uint32(buf[17:21])
	}
	return h, nil
}

// PeekVersion returns the version byte of a buffered frame prefix.
func PeekVersion(buf []byte) (byte, error) {
	if len(buf) < prefixSize {
		return 0, ErrIncomplete
	}
	v := buf[4]
	if _, err := HeaderSize(v); err != nil {
		return 0, err
	}
	return v, nil
}

// AppendHeader appends the encoded header to dst. Length is written as-is;
// use Frame to have it computed from the body.
func AppendHeader(dst []byte, h Header) []byte {
	var b [header2Size]byte
	binary.BigEndian.PutUint32(b[0:4], h.Length)
	b[4] = h.Version
	binary.BigEndian.PutUint32(b[5:9], h.CmdID)
	binary.BigEndian.PutUint32(b[9:13], h.UserID)
	binary.BigEndian.PutUint32(b[13:17], uint32(h.Result))
	if h.Version == Version2 {
		binary.BigEndian.PutUint32(b[17:21], h.Error)
		return append(dst, b[:header2Size]...)
	}
	return append(dst, b[:header1Size]...)
}

// Frame builds a complete outgoing frame, filling in Length.
func Frame(h Header, body []byte) ([]byte, error) {
	size, err := HeaderSize(h.Version)
	if err != nil {
		return nil, err
	}
	h.Length = uint32(size + len(body))
	out := make([]byte, 0, int(h.Length))
	out = AppendHeader(out, h)
	return append(out, body...), nil
}

// SplitFrame extracts the first complete frame from buf. It returns the
// header, the body (aliasing buf), and the number of bytes consumed.
// ErrIncomplete means more bytes are needed before anything can be dispatched.
func SplitFrame(buf []byte, maxLen int) (Header, []byte, int, error) {
	version, err := PeekVersion(buf)
	if err != nil {
		return Header{}, nil, 0, err
	}
	h, err := ParseHeader(buf, version)
	if err != nil {
		return Header{}, nil, 0, err
	}
	size, _ := HeaderSize(version)
	if int(h.Length) < size || (maxLen > 0 && int(h.Length) > maxLen) {
		return Header{}, nil, 0, fmt.Errorf("%w: %d", ErrBadLength, h.Length)
	}
	if len(buf) < int(h.Length) {
		return Header{}, nil, 0, ErrIncomplete
	}
	return h, buf[size:h.Length], int(h.Length), nil
}
