// Package server is a hand-built HTTP/1.1 media server: it terminates raw
// TCP connections, parses requests off the wire, serves byte-range responses
// for a media resource, and holds keep-alive connections open under an idle
// timeout.
package server

import (
	"context"
	"errors"
	"log"
	"net"

	"github.com/mikufans/bvc-server/pkg/resource"
	"github.com/mikufans/bvc-server/pkg/server/config"
)

// Server accepts connections and runs one session per socket.
type Server struct {
	cfg    config.Config
	router *Router
}

func New(cfg config.Config, resolver resource.Resolver) *Server {
	return &Server{
		cfg:    cfg,
		router: NewRouter(resolver, cfg.AllowOrigin, cfg.CopyBuffer),
	}
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done. The listener is closed on return;
// in-flight sessions run to their own teardown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		if err := ln.Close(); err != nil {
			log.Println("close listener:", err)
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Println("accept:", err)
			continue
		}

		sess := newSession(conn, s.router, s.cfg.MaxIdle)
		log.Printf("[%s] new connection from %s", sess.id, conn.RemoteAddr())
		go sess.run()
	}
}
