//go:build linux && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || sparc64)

package system

import "golang.org/x/sys/unix"

func setOffset(buf *unix.Timex, micros int64) {
	buf.Offset = micros
}
