//go:build linux && (386 || arm || mips || mipsle)

package system

import "golang.org/x/sys/unix"

func setOffset(buf *unix.Timex, micros int64) {
	buf.Offset = int32(micros)
}
