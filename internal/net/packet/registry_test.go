package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	user    uint32
	state   SessionState
	caps    map[Capability]any
	sent    [][]byte
	touched int
}

func (c *fakeConn) UserID() uint32      { return c.user }
func (c *fakeConn) State() SessionState { return c.state }
func (c *fakeConn) Send(frame []byte)   { c.sent = append(c.sent, frame) }
func (c *fakeConn) Touch()              { c.touched++ }

func (c *fakeConn) Resolve(want Capability) (any, bool) {
	v, ok := c.caps[want]
	return v, ok
}

func (c *fakeConn) lastHeader(t *testing.T) Header {
	t.Helper()
	require.NotEmpty(t, c.sent)
	frame := c.sent[len(c.sent)-1]
	v, err := PeekVersion(frame)
	require.NoError(t, err)
	h, err := ParseHeader(frame, v)
	require.NoError(t, err)
	return h
}

func echo(in Injected) Handler {
	return HandlerFunc(func(conn Conn, h Header, r *Reader) error {
		v := r.ReadU32()
		if err := r.Err(); err != nil {
			return Fail(ResultBadRequest, "echo: %v", err)
		}
		w := NewWriter()
		w.WriteU32(v + 1)
		Reply(conn, h, w.Bytes())
		return nil
	})
}

func body32(v uint32) []byte {
	w := NewWriter()
	w.WriteU32(v)
	return w.Bytes()
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(Command{ID: 1, Name: "a", New: echo})
	assert.Equal(t, 1, reg.Count())

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrDuplicateCommand)
	}()
	reg.Register(Command{ID: 1, Name: "b", New: echo})
}

func TestDispatchSuccess(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(Command{ID: 10, Name: "echo", New: echo})
	conn := &fakeConn{user: 5}

	reg.Dispatch(conn, Header{Version: Version2, CmdID: 10}, body32(41))

	require.Len(t, conn.sent, 1)
	h := conn.lastHeader(t)
	assert.Equal(t, uint32(10), h.CmdID)
	assert.Equal(t, uint32(5), h.UserID)
	assert.Equal(t, ResultOK, h.Result)
	assert.Equal(t, Version2, h.Version)
	assert.Equal(t, body32(42), conn.sent[0][21:])
	assert.Equal(t, 1, conn.touched)
}

func TestDispatchUnknownCommandIsDropped(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(Command{ID: 10, Name: "echo", New: echo})
	conn := &fakeConn{user: 5}

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 999999}, body32(1))
	assert.Empty(t, conn.sent)
	assert.Equal(t, 1, conn.touched)

	// The connection keeps working for the next valid frame.
	reg.Dispatch(conn, Header{Version: Version1, CmdID: 10}, body32(1))
	require.Len(t, conn.sent, 1)
	assert.Equal(t, ResultOK, conn.lastHeader(t).Result)
}

func TestDispatchMissingCapability(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	called := false
	reg.Register(Command{ID: 20, Name: "needs-battle", Needs: []Capability{CapBattle},
		New: func(in Injected) Handler {
			called = true
			return HandlerFunc(func(Conn, Header, *Reader) error { return nil })
		},
	})
	conn := &fakeConn{user: 5}

	reg.Dispatch(conn, Header{Version: Version2, CmdID: 20}, nil)

	assert.False(t, called)
	h := conn.lastHeader(t)
	assert.Equal(t, ResultUnavailable, h.Result)
	assert.Equal(t, uint32(ResultUnavailable), h.Error)
}

func TestDispatchInjectsCapabilities(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got any
	reg.Register(Command{ID: 21, Name: "pets", Needs: []Capability{CapPets},
		New: func(in Injected) Handler {
			got = in.Get(CapPets)
			return HandlerFunc(func(Conn, Header, *Reader) error { return nil })
		},
	})
	conn := &fakeConn{caps: map[Capability]any{CapPets: "pet-manager"}}

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 21}, nil)
	assert.Equal(t, "pet-manager", got)
	assert.Empty(t, conn.sent)
}

func TestDispatchHandlerErrors(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(Command{ID: 30, Name: "fails", New: func(Injected) Handler {
		return HandlerFunc(func(Conn, Header, *Reader) error { return errors.New("boom") })
	}})
	reg.Register(Command{ID: 31, Name: "panics", New: func(Injected) Handler {
		return HandlerFunc(func(Conn, Header, *Reader) error { panic("bad packet") })
	}})
	reg.Register(Command{ID: 10, Name: "echo", New: echo})
	conn := &fakeConn{}

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 30}, nil)
	assert.Equal(t, ResultInternalError, conn.lastHeader(t).Result)

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 31}, nil)
	assert.Equal(t, ResultInternalError, conn.lastHeader(t).Result)

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 10}, []byte{1})
	assert.Equal(t, ResultBadRequest, conn.lastHeader(t).Result)

	reg.Dispatch(conn, Header{Version: Version1, CmdID: 10}, body32(1))
	assert.Equal(t, ResultOK, conn.lastHeader(t).Result)
	assert.Len(t, conn.sent, 4)
}
