package packet

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateConnected     SessionState = iota
	StateAuthenticated              // logged in, pets loaded
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateAuthenticated:
		return "Authenticated"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Capability names a session-owned dependency a handler may require.
// The set is closed; the session decides at dispatch time whether it can
// provide each one.
type Capability uint8

const (
	CapPets Capability = iota + 1
	CapBattle
	CapItems
	capCount
)

func (c Capability) String() string {
	switch c {
	case CapPets:
		return "pets"
	case CapBattle:
		return "battle"
	case CapItems:
		return "items"
	default:
		return fmt.Sprintf("cap(%d)", uint8(c))
	}
}

// Conn is the dispatcher's view of one client connection.
type Conn interface {
	UserID() uint32
	State() SessionState
	// Resolve returns the session's implementation of c, or false when the
	// session cannot provide it yet (e.g. not logged in).
	Resolve(c Capability) (any, bool)
	// Send queues one complete frame for writing.
	Send(frame []byte)
	// Touch records activity for idle tracking.
	Touch()
}

// Injected carries the capabilities resolved for one dispatch.
type Injected struct {
	vals [capCount]any
}

// Get returns the resolved value for c (nil if it was not requested).
func (in Injected) Get(c Capability) any {
	if c >= capCount {
		return nil
	}
	return in.vals[c]
}

// Handler handles one decoded frame.
type Handler interface {
	Handle(conn Conn, h Header, r *Reader) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(conn Conn, h Header, r *Reader) error

func (f HandlerFunc) Handle(conn Conn, h Header, r *Reader) error {
	return f(conn, h, r)
}

// Factory constructs a handler from its injected dependencies.
type Factory func(in Injected) Handler

// Command describes one registered command.
type Command struct {
	ID    uint32
	Name  string
	Needs []Capability
	New   Factory
}

// ResultError carries an application result code back to the client.
type ResultError struct {
	Code int32
	Msg  string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("result %d: %s", e.Code, e.Msg)
}

// Fail returns a *ResultError with the given code.
func Fail(code int32, format string, args ...any) error {
	return &ResultError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ErrDuplicateCommand is the panic payload for a second registration of an id.
var ErrDuplicateCommand = errors.New("packet: duplicate command id")

// Registry maps command ids to handler descriptors. It is filled once during
// startup and only read afterwards.
type Registry struct {
	commands map[uint32]*Command
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		commands: make(map[uint32]*Command),
		log:      log,
	}
}

// Register adds a command. Registering the same id twice is a programming
// error and panics.
func (reg *Registry) Register(cmd Command) {
	if _, dup := reg.commands[cmd.ID]; dup {
		panic(fmt.Errorf("%w: %d (%s)", ErrDuplicateCommand, cmd.ID, cmd.Name))
	}
	if cmd.New == nil {
		panic(fmt.Errorf("packet: command %d (%s) has no factory", cmd.ID, cmd.Name))
	}
	c := cmd
	c.Needs = append([]Capability(nil), cmd.Needs...)
	reg.commands[cmd.ID] = &c
}

// Lookup returns the descriptor for id.
func (reg *Registry) Lookup(id uint32) (*Command, bool) {
	c, ok := reg.commands[id]
	return c, ok
}

// Count returns the number of registered commands.
func (reg *Registry) Count() int {
	return len(reg.commands)
}

// Dispatch routes one frame. Nothing escapes: unknown ids are dropped,
// missing capabilities and handler failures become error responses, and the
// connection stays usable.
func (reg *Registry) Dispatch(conn Conn, h Header, body []byte) {
	conn.Touch()
	reg.log.Debug("收到封包",
		zap.Uint32("cmd", h.CmdID),
		zap.Uint32("user", conn.UserID()),
		zap.Int("size", len(body)),
		zap.String("state", conn.State().String()),
	)

	cmd, ok := reg.commands[h.CmdID]
	if !ok {
		reg.log.Debug("未知指令", zap.Uint32("cmd", h.CmdID), zap.Uint32("user", conn.UserID()))
		return
	}

	var in Injected
	for _, c := range cmd.Needs {
		v, ok := conn.Resolve(c)
		if !ok || v == nil {
			reg.log.Warn("指令依賴不可用",
				zap.Uint32("cmd", h.CmdID),
				zap.String("name", cmd.Name),
				zap.Uint32("user", conn.UserID()),
				zap.Stringer("capability", c),
			)
			ReplyError(conn, h, ResultUnavailable)
			return
		}
		in.vals[c] = v
	}

	if err := reg.safeCall(cmd, in, conn, h, body); err != nil {
		code := ResultInternalError
		var re *ResultError
		if errors.As(err, &re) {
			code = re.Code
			reg.log.Debug("指令回傳錯誤碼",
				zap.Uint32("cmd", h.CmdID),
				zap.Uint32("user", conn.UserID()),
				zap.Int32("code", code),
				zap.String("reason", re.Msg),
			)
		} else {
			reg.log.Error("指令處理失敗",
				zap.Uint32("cmd", h.CmdID),
				zap.String("name", cmd.Name),
				zap.Uint32("user", conn.UserID()),
				zap.Error(err),
			)
		}
		ReplyError(conn, h, code)
	}
}

// safeCall builds and runs the handler with panic recovery so a single bad
// packet cannot take the session down.
func (reg *Registry) safeCall(cmd *Command, in Injected, conn Conn, h Header, body []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic for cmd %d: %v", cmd.ID, rec)
		}
	}()
	return cmd.New(in).Handle(conn, h, NewReader(body))
}

// Reply sends a success response for req carrying body.
func Reply(conn Conn, req Header, body []byte) {
	send(conn, Header{Version: req.Version, CmdID: req.CmdID, UserID: conn.UserID()}, body)
}

// Push sends a server-initiated packet using the request's header version.
func Push(conn Conn, req Header, cmdID uint32, body []byte) {
	send(conn, Header{Version: req.Version, CmdID: cmdID, UserID: conn.UserID()}, body)
}

// ReplyError sends an empty-bodied response with a non-zero result code.
func ReplyError(conn Conn, req Header, code int32) {
	h := Header{Version: req.Version, CmdID: req.CmdID, UserID: conn.UserID(), Result: code}
	if h.Version == Version2 {
		h.Error = uint32(code)
	}
	send(conn, h, nil)
}

func send(conn Conn, h Header, body []byte) {
	frame, err := Frame(h, body)
	if err != nil {
		// The request header was already validated, so only a zero Version
		// from a synthetic caller ends up here.
		h.Version = Version1
		frame, _ = Frame(h, body)
	}
	conn.Send(frame)
}
