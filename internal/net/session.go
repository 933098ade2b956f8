package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionOptions are the per-connection limits shared by every session.
type SessionOptions struct {
	OutQueueSize     int
	MaxFrameSize     int
	WriteTimeout     time.Duration
	PacketsPerSecond int // 0 = unlimited
	Burst            int
}

// Session represents a single client connection. Frames are dispatched
// inline on the reader goroutine, so one client's requests are handled in
// order and never concurrently; responses go out through OutQueue.
type Session struct {
	ID   uint64
	IP   string
	conn net.Conn

	state      atomic.Int32 // packet.SessionState stored as int32
	player     atomic.Pointer[world.Player]
	lastActive atomic.Int64 // unix nanoseconds

	OutQueue chan []byte // writer goroutine reads from here

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	reg     *packet.Registry
	limiter *rate.Limiter // nil = unlimited
	opts    SessionOptions
	onClose func(*Session)

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, reg *packet.Registry, opts SessionOptions, log *zap.Logger) *Session {
	if opts.OutQueueSize <= 0 {
		opts.OutQueueSize = 256
	}
	s := &Session{
		ID:       id,
		IP:       conn.RemoteAddr().String(),
		conn:     conn,
		OutQueue: make(chan []byte, opts.OutQueueSize),
		closeCh:  make(chan struct{}),
		reg:      reg,
		opts:     opts,
		log:      log.With(zap.Uint64("session", id)),
	}
	if opts.PacketsPerSecond > 0 {
		burst := max(opts.Burst, opts.PacketsPerSecond)
		s.limiter = rate.NewLimiter(rate.Limit(opts.PacketsPerSecond), burst)
	}
	s.state.Store(int32(packet.StateConnected))
	s.Touch()
	return s
}

// Start launches the reader and writer goroutines. onClose runs once on the
// reader goroutine after the connection is gone and no more frames will be
// dispatched.
func (s *Session) Start(onClose func(*Session)) {
	s.onClose = onClose
	go s.readLoop()
	go s.writeLoop()
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Bind attaches the logged-in player and marks the session authenticated.
func (s *Session) Bind(p *world.Player) {
	s.player.Store(p)
	s.SetState(packet.StateAuthenticated)
}

// Player returns the bound player, or nil before login.
func (s *Session) Player() *world.Player {
	return s.player.Load()
}

// UserID is 0 until the session is bound.
func (s *Session) UserID() uint32 {
	if p := s.player.Load(); p != nil {
		return p.UserID
	}
	return 0
}

// Resolve hands out the bound player's managers.
func (s *Session) Resolve(c packet.Capability) (any, bool) {
	return s.player.Load().Resolve(c)
}

func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// IdleFor reports how long the session has been silent as of now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

// Send queues a frame for the writer goroutine. Non-blocking: if OutQueue is
// full the session is disconnected (backpressure).
func (s *Session) Send(frame []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- frame:
	default:
		s.log.Warn("輸出佇列已滿，斷開慢速連線")
		s.Close()
	}
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// readLoop runs in its own goroutine. It reads frames from the TCP
// connection and dispatches each one before reading the next.
func (s *Session) readLoop() {
	defer func() {
		s.Close()
		if s.onClose != nil {
			s.onClose(s)
		}
	}()

	for {
		h, body, err := ReadFrame(s.conn, s.opts.MaxFrameSize)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn("封包速率超限，斷開連線", zap.Uint32("cmd", h.CmdID))
			return
		}

		s.reg.Dispatch(s, h, body)
	}
}

// writeLoop runs in its own goroutine. It writes queued frames to the TCP
// connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case frame := <-s.OutQueue:
			if !s.writeOne(frame) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// writeOne writes a single frame. It returns false on failure.
func (s *Session) writeOne(frame []byte) bool {
	if s.opts.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	if err := WriteFrame(s.conn, frame); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
