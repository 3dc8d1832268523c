package decoy

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"

	"github.com/decoy-web/decoy/internal/http1"
	"github.com/decoy-web/decoy/transport"
)

// connTracker remembers every live connection together with a channel that
// closes when its serving goroutine exits, so teardown can await them.
type connTracker struct {
	mu    sync.Mutex
	conns map[net.Conn]chan struct{}
}

func (t *connTracker) init() {
	t.conns = make(map[net.Conn]chan struct{})
}

func (t *connTracker) track(conn net.Conn) chan struct{} {
	done := make(chan struct{})

	t.mu.Lock()
	t.conns[conn] = done
	t.mu.Unlock()

	return done
}

func (t *connTracker) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
}

func (t *connTracker) live() map[net.Conn]chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := make(map[net.Conn]chan struct{}, len(t.conns))
	for conn, done := range t.conns {
		live[conn] = done
	}

	return live
}

func (s *Server) acceptLoop() {
	defer close(s.done)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			if cb := s.reg.getListenError(); cb != nil {
				cb(err)
			}

			return
		}

		done := s.conns.track(conn)
		go s.serveConn(conn, done)
	}
}

func (s *Server) serveConn(conn net.Conn, done chan struct{}) {
	defer close(done)
	defer s.conns.untrack(conn)

	if tlsConn, ok := conn.(*tls.Conn); ok {
		// surface handshake failures here instead of at the first read
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return
		}
	}

	http1.NewConn(transport.NewClient(conn, readBuffSize), s.dispatch).Serve()
}

// Reset force-disconnects every live connection and returns once their
// goroutines have exited. Registrations survive; the socket stays bound.
func (s *Server) Reset() {
	live := s.conns.live()

	for conn := range live {
		_ = conn.Close()
	}

	for _, done := range live {
		<-done
	}
}

// Invalidate stops accepting, disconnects every live connection, and releases
// the socket. It returns once the accept loop and every connection goroutine
// have exited. The server is unusable afterwards.
func (s *Server) Invalidate() {
	s.closed.Store(true)
	_ = s.listener.Close()
	<-s.done
	s.Reset()
}
