package ntp

import "errors"

// Timestamp is a 64-bit NTP timestamp: seconds since 1900-01-01 in the high
// 32 bits, fraction of a second in the low 32 bits.
type Timestamp = uint64

// Short is a 16.16 fixed point NTP short format value (seconds).
type Short = uint32

type Mode byte

const (
	RESERVED Mode = iota
	SYMMETRIC_ACTIVE
	SYMMETRIC_PASSIVE
	CLIENT
	SERVER
	BROADCAST_SERVER
	CONTROL_MESSAGE
	RESERVED_PRIVATE_USE
)

var modeNames = [...]string{
	"Reserved",
	"Symmetric Active",
	"Symmetric Passive",
	"Client",
	"Server",
	"Broadcast",
	"Control",
	"Private",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Unknown"
}

const (
	Port       = "123" // NTP port number
	HeaderSize = 48    // fixed header, without extension fields or MAC
)

const (
	MinVersion     byte = 1
	MaxVersion     byte = 4
	DefaultVersion byte = 4
)

const NOSYNC byte = 0x3 // leap unsync

var ErrMalformedPacket = errors.New("malformed ntp packet")
