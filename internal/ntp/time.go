package ntp

import (
	"encoding/binary"
	"math"
	"net"
	"strings"
	"time"
)

const (
	EraLength     int64   = 4_294_967_296 // 2^32
	UnixEraOffset int64   = 2_208_988_800 // 1970 - 1900 in seconds
	ShortLength   float64 = 65536         // 2^16
)

func TimeToTimestamp(t time.Time) Timestamp {
	sec := t.Unix() + UnixEraOffset
	frac := int64(t.Nanosecond()) << 32 / 1e9
	return Timestamp(sec)<<32 | Timestamp(frac)
}

// TimestampToTime returns the zero time for a zero timestamp, which NTP uses
// to mean "not set".
func TimestampToTime(ntpTimestamp Timestamp) time.Time {
	if ntpTimestamp == 0 {
		return time.Time{}
	}
	sec := int64(ntpTimestamp>>32) - UnixEraOffset
	nsec := (int64(ntpTimestamp&0xffffffff) * 1e9) >> 32
	return time.Unix(sec, nsec)
}

func ShortToMillis(s Short) float64 {
	return float64(s) * 1000 / ShortLength
}

func Log2ToDouble(a int8) float64 {
	return math.Ldexp(1, int(a))
}

// PollSeconds is 2^poll seconds, with non-positive exponents reported as one
// second.
func PollSeconds(poll int8) int64 {
	if poll <= 0 {
		return 1
	}
	return int64(math.Pow(2, float64(poll)))
}

func RefIDToIP(refID uint32) net.IP {
	ipBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(ipBytes, refID)
	return net.IP(ipBytes)
}

// RefIDToTag reads the reference ID as a clock source tag such as "GPS" or
// "PPS". Unprintable bytes end the tag.
func RefIDToTag(refID uint32) string {
	var tag strings.Builder
	for _, b := range RefIDToIP(refID) {
		if b < 0x20 || b > 0x7e {
			break
		}
		tag.WriteByte(b)
	}
	return tag.String()
}
