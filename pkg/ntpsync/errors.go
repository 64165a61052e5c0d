package ntpsync

import (
	"errors"

	"github.com/AndrewLester/ntpsync/internal/ntp"
)

var (
	ErrHostUnresolved  = errors.New("could not resolve ntp server")
	ErrTimeout         = errors.New("ntp server did not respond in time")
	ErrMalformedPacket = ntp.ErrMalformedPacket
	ErrSocket          = errors.New("ntp socket error")
	ErrNoSync          = errors.New("server is not synchronized")

	ErrApplyPermissionDenied = errors.New("permission to set the clock was denied")
	ErrApplyToolMissing      = errors.New("no tool available to set the clock")

	ErrConcurrentSync = errors.New("sync already running")
	ErrNoConnectivity = errors.New("no usable network connection")
	ErrSuperseded     = errors.New("pending sync replaced by a newer request")
)
