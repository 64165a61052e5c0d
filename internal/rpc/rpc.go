// Package rpc exposes the sync orchestrator over net/rpc on a unix socket.
// Each connection gets its own rpc.Server so the service knows the peer's
// credentials.
package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"os"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
)

const ServiceName = "NtpSync"

// Syncer is implemented by *ntpsync.Orchestrator.
type Syncer interface {
	Trigger(ctx context.Context, trigger ntpsync.Trigger) <-chan ntpsync.Result
	State() ntpsync.State
}

type Server struct {
	Socket string
	Syncer Syncer

	// Empty GetTimeUIDs lets everyone query. Empty SetTimeUIDs allows only
	// root to set the clock.
	GetTimeUIDs []uint32
	SetTimeUIDs []uint32
}

// Listen serves on Socket until ctx is done.
func (s *Server) Listen(ctx context.Context) error {
	err := os.Remove(s.Socket)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	l, err := net.Listen("unix", s.Socket)
	if err != nil {
		return err
	}
	// access control happens per call, on the peer's uid
	if err := os.Chmod(s.Socket, 0666); err != nil {
		l.Close()
		return err
	}
	info("Listening on", s.Socket)

	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()
	return s.Serve(ctx, l)
}

func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	defer l.Close()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	peer := peerCredentials(conn)
	debug("Connection from", peer)

	server := rpc.NewServer()
	if err := server.RegisterName(ServiceName, &Service{server: s, peer: peer}); err != nil {
		info("register:", err)
		conn.Close()
		return
	}
	server.ServeConn(conn)
}
