package server

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mikufans/bvc-server/pkg/proto"
)

// peekInterval bounds each wait-for-data attempt so the shutdown flag is
// observed between attempts.
const peekInterval = 500 * time.Millisecond

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// session owns one accepted socket and runs its keep-alive loop: wait for
// data, process exactly one request, repeat. A watchdog goroutine closes the
// loop once the connection has been idle past maxIdle.
type session struct {
	id      string
	conn    net.Conn
	br      *bufio.Reader
	router  *Router
	idle    *idleTracker
	maxIdle time.Duration

	// shutdown is set once by the watchdog and polled while waiting for
	// data, so an in-flight request always finishes before teardown.
	shutdown atomic.Bool
}

func newSession(conn net.Conn, router *Router, maxIdle time.Duration) *session {
	id, _ := gonanoid.Generate(idAlphabet, 10)
	return &session{
		id:      id,
		conn:    conn,
		br:      bufio.NewReader(conn),
		router:  router,
		idle:    newIdleTracker(),
		maxIdle: maxIdle,
	}
}

// run drives the connection until peer close, an unrecoverable I/O failure,
// or idle timeout.
func (s *session) run() {
	defer s.conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		if s.idle.watch(done, s.maxIdle) {
			log.Printf("[%s] keep-alive idle timeout, shutting down %s", s.id, s.conn.RemoteAddr())
			s.shutdown.Store(true)
		}
	}()

	for {
		if !s.waitForData() {
			return
		}
		if !s.serveOne() {
			return
		}
	}
}

// waitForData blocks until the peer has bytes ready, peeking under short
// read deadlines so the shutdown flag is re-checked between attempts. It
// returns false when the connection is done: peer close, I/O failure, or
// idle timeout.
func (s *session) waitForData() bool {
	for {
		if s.shutdown.Load() {
			return false
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(peekInterval)); err != nil {
			return false
		}

		_, err := s.br.Peek(1)
		if err == nil {
			break
		}

		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		if err != io.EOF {
			log.Printf("[%s] wait for data: %v", s.id, err)
		}
		return false
	}

	// data is ready; request reads below block without a deadline
	return s.conn.SetReadDeadline(time.Time{}) == nil
}

// serveOne processes exactly one request under the idle guard. It returns
// false when the connection can no longer be used.
func (s *session) serveOne() bool {
	release := s.idle.guard()
	defer release()

	req, err := proto.ParseRequest(s.br)
	if err != nil {
		if !proto.IsProtocolError(err) {
			log.Printf("[%s] read request: %v", s.id, err)
			return false
		}

		log.Printf("[%s] bad request: %v", s.id, err)
		if werr := proto.NewStatusResponse(http.StatusBadRequest).WriteToStream(s.conn); werr != nil {
			log.Printf("[%s] write 400: %v", s.id, werr)
			return false
		}
		return true
	}
	if req == nil {
		// peer closed between requests
		return false
	}

	return s.router.Route(s.conn, req)
}
