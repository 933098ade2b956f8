package net

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seergo/server/internal/net/packet"
	"go.uber.org/zap"
)

// Server accepts TCP connections and runs a Session for each one.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	reg      *packet.Registry
	opts     SessionOptions
	onClose  func(*Session)
	log      *zap.Logger
	closeCh  chan struct{}

	mu       sync.Mutex
	sessions map[uint64]*Session
	wg       sync.WaitGroup
}

func NewServer(bindAddr string, reg *packet.Registry, opts SessionOptions, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		reg:      reg,
		opts:     opts,
		log:      log,
		closeCh:  make(chan struct{}),
		sessions: make(map[uint64]*Session),
	}
	return s, nil
}

// OnClose registers a hook run after a session has disconnected. Set it
// before AcceptLoop starts.
func (s *Server) OnClose(fn func(*Session)) {
	s.onClose = fn
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("連線接受失敗", zap.Error(err))
			continue
		}
		sess := s.Attach(conn)
		s.log.Info(fmt.Sprintf("玩家連線  session=%d  ip=%s", sess.ID, sess.IP))
	}
}

// Attach starts a session on an already established connection.
func (s *Server) Attach(conn net.Conn) *Session {
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.reg, s.opts, s.log)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.wg.Add(1)
	sess.Start(s.sessionClosed)
	return sess
}

func (s *Server) sessionClosed(sess *Session) {
	defer s.wg.Done()
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(sess)
	}
	s.log.Info(fmt.Sprintf("玩家斷線  session=%d  user=%d", sess.ID, sess.UserID()))
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ReapIdle closes sessions silent for longer than idle and returns how many
// it closed.
func (s *Server) ReapIdle(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	var stale []*Session
	for _, sess := range s.sessions {
		if sess.IdleFor(now) > idle {
			stale = append(stale, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		s.log.Info("閒置逾時，斷開連線", zap.Uint64("session", sess.ID), zap.Uint32("user", sess.UserID()))
		sess.Close()
	}
	return len(stale)
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (s *Server) RunReaper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.ReapIdle(now, idle)
		}
	}
}

// Shutdown stops accepting new connections and closes every session.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()

	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
}

// Wait blocks until every session's close hook has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
