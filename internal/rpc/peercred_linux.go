package rpc

import (
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn net.Conn) Credentials {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return Credentials{}
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return Credentials{}
	}

	var ucred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		ucred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil || credErr != nil {
		debug("SO_PEERCRED:", err, credErr)
		return Credentials{}
	}
	return Credentials{UID: ucred.Uid, Known: true}
}
