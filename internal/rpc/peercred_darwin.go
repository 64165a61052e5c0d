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

	var xucred *unix.Xucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		xucred, credErr = unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	})
	if err != nil || credErr != nil {
		debug("LOCAL_PEERCRED:", err, credErr)
		return Credentials{}
	}
	return Credentials{UID: xucred.Uid, Known: true}
}
