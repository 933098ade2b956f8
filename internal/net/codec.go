package net

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/seergo/server/internal/net/packet"
)

// prefixLen covers the length field and the version byte, which together
// decide how much more to read.
const prefixLen = 5

// ReadFrame reads one frame from r.
// Wire format: [4 bytes BE: total length including header][version][rest of header][body].
// A frame longer than maxLen, shorter than its own header, or carrying an
// unknown version is an error; the caller should drop the connection.
func ReadFrame(r io.Reader, maxLen int) (packet.Header, []byte, error) {
	var prefix [prefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return packet.Header{}, nil, fmt.Errorf("read frame prefix: %w", err)
	}
	version, err := packet.PeekVersion(prefix[:])
	if err != nil {
		return packet.Header{}, nil, err
	}
	size, _ := packet.HeaderSize(version)
	total := int(binary.BigEndian.Uint32(prefix[0:4]))
	if total < size || (maxLen > 0 && total > maxLen) {
		return packet.Header{}, nil, fmt.Errorf("%w: %d", packet.ErrBadLength, total)
	}

	buf := make([]byte, total)
	copy(buf, prefix[:])
	if _, err := io.ReadFull(r, buf[prefixLen:]); err != nil {
		return packet.Header{}, nil, fmt.Errorf("read frame (%d bytes): %w", total, err)
	}
	h, body, _, err := packet.SplitFrame(buf, maxLen)
	if err != nil {
		return packet.Header{}, nil, err
	}
	return h, body, nil
}

// WriteFrame writes one complete frame built by packet.Frame.
func WriteFrame(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame (%d bytes): %w", len(frame), err)
	}
	return nil
}
