package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSize(t *testing.T) {
	n, err := HeaderSize(Version1)
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	n, err = HeaderSize(Version2)
	require.NoError(t, err)
	assert.Equal(t, 21, n)

	_, err = HeaderSize('3')
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{Version: Version1, CmdID: 2405, UserID: 123456, Result: 0},
		{Version: Version1, CmdID: 1, UserID: 0xFFFFFFFF, Result: -7},
		{Version: Version2, CmdID: 2505, UserID: 42, Result: 10002, Error: 99},
		{Version: Version2, CmdID: 0, UserID: 0, Result: -1, Error: 0xDEADBEEF},
	}
	for _, want := range cases {
		body := []byte{1, 2, 3}
		frame, err := Frame(want, body)
		require.NoError(t, err)

		size, _ := HeaderSize(want.Version)
		want.Length = uint32(size + len(body))

		got, err := ParseHeader(frame, want.Version)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, len(body), got.BodyLen())
	}
}

func TestHeaderVersion1DropsErrorField(t *testing.T) {
	frame, err := Frame(Header{Version: Version1, CmdID: 9, Error: 55}, nil)
	require.NoError(t, err)
	require.Len(t, frame, 17)

	got, err := ParseHeader(frame, Version1)
	require.NoError(t, err)
	assert.Zero(t, got.Error)
}

func TestParseHeaderIncomplete(t *testing.T) {
	frame, err := Frame(Header{Version: Version2, CmdID: 1}, nil)
	require.NoError(t, err)

	_, err = ParseHeader(frame[:20], Version2)
	assert.ErrorIs(t, err, ErrIncomplete)

	// A complete v1 header is readable from the same prefix.
	_, err = ParseHeader(frame[:17], Version1)
	assert.NoError(t, err)
}

func TestParseHeaderUnknownVersion(t *testing.T) {
	_, err := ParseHeader(make([]byte, 32), 'x')
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestSplitFrame(t *testing.T) {
	a, err := Frame(Header{Version: Version1, CmdID: 1001, UserID: 7}, []byte("abc"))
	require.NoError(t, err)
	b, err := Frame(Header{Version: Version2, CmdID: 1002, UserID: 7}, nil)
	require.NoError(t, err)
	stream := append(append([]byte{}, a...), b...)

	// Every strict prefix of the first frame is incomplete.
	for i := 0; i < len(a); i++ {
		_, _, _, err := SplitFrame(stream[:i], 0)
		assert.ErrorIs(t, err, ErrIncomplete, "prefix %d", i)
	}

	h, body, n, err := SplitFrame(stream, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1001), h.CmdID)
	assert.Equal(t, []byte("abc"), body)
	assert.Equal(t, len(a), n)

	h, body, n, err = SplitFrame(stream[n:], 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1002), h.CmdID)
	assert.Empty(t, body)
	assert.Equal(t, len(b), n)
}

func TestSplitFrameBadLength(t *testing.T) {
	frame, err := Frame(Header{Version: Version1, CmdID: 1}, nil)
	require.NoError(t, err)

	short := append([]byte{}, frame...)
	short[3] = 3 // declared length smaller than the header
	_, _, _, err = SplitFrame(short, 0)
	assert.ErrorIs(t, err, ErrBadLength)

	_, _, _, err = SplitFrame(frame, 10)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestSplitFrameBadVersion(t *testing.T) {
	frame, err := Frame(Header{Version: Version1, CmdID: 1}, nil)
	require.NoError(t, err)
	frame[4] = '9'
	_, _, _, err = SplitFrame(frame, 0)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestReaderWriter(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteI8(-3)
	w.WriteU16(0x0102)
	w.WriteU32(0x01020304)
	w.WriteI32(-2)
	w.WriteString("賽爾")

	assert.Equal(t, []byte{0xAB, 0xFD, 0x01, 0x02, 0x01, 0x02, 0x03, 0x04, 0xFF, 0xFF, 0xFF, 0xFE}, w.Bytes()[:12])

	r := NewReader(w.Bytes())
	assert.Equal(t, byte(0xAB), r.ReadU8())
	assert.Equal(t, byte(0xFD), r.ReadU8())
	assert.Equal(t, uint16(0x0102), r.ReadU16())
	assert.Equal(t, uint32(0x01020304), r.ReadU32())
	assert.Equal(t, int32(-2), r.ReadI32())
	assert.Equal(t, "賽爾", r.ReadString())
	assert.Zero(t, r.Remaining())
	assert.NoError(t, r.Err())

	assert.Zero(t, r.ReadU32())
	assert.ErrorIs(t, r.Err(), ErrShortBody)
}
