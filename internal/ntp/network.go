package ntp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Packet is a decoded NTP header.
type Packet struct {
	Leap    byte /* leap indicator */
	Version byte /* version number */
	Mode    Mode /* mode */
	FieldsEncoded
}

// FieldsEncoded is the part of the header after the first byte, laid out
// exactly as it is on the wire.
type FieldsEncoded struct {
	Stratum   byte      /* stratum */
	Poll      int8      /* poll interval */
	Precision int8      /* precision */
	Rootdelay Short     /* root delay */
	Rootdisp  Short     /* root dispersion */
	Refid     uint32    /* reference ID */
	Reftime   Timestamp /* reference time */
	Org       Timestamp /* origin timestamp */
	Rec       Timestamp /* receive timestamp */
	Xmt       Timestamp /* transmit timestamp */
}

func (p *Packet) Encode() []byte {
	firstByte := (p.Leap&0b11)<<6 | (p.Version&0b111)<<3 | byte(p.Mode)&0b111

	var buffer bytes.Buffer
	buffer.Grow(HeaderSize)
	buffer.WriteByte(firstByte)
	binary.Write(&buffer, binary.BigEndian, &p.FieldsEncoded)
	return buffer.Bytes()
}

// EncodeRequest builds a client mode request. Only the transmit timestamp is
// set; the server echoes it back as the origin timestamp.
func EncodeRequest(version byte, xmt Timestamp) []byte {
	packet := Packet{
		Version: version,
		Mode:    CLIENT,
	}
	packet.Xmt = xmt
	return packet.Encode()
}

// DecodeReply parses the fixed 48 byte header. Extension fields and the
// authenticator, if present, are ignored.
func DecodeReply(encoded []byte) (*Packet, error) {
	if len(encoded) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedPacket, len(encoded), HeaderSize)
	}

	reader := bytes.NewReader(encoded[:HeaderSize])
	firstByte, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}

	packet := &Packet{
		Leap:    firstByte >> 6,
		Version: (firstByte >> 3) & 0b111,
		Mode:    Mode(firstByte & 0b111),
	}
	if err := binary.Read(reader, binary.BigEndian, &packet.FieldsEncoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}

	return packet, nil
}

// RootDelayMillis converts the 16.16 root delay to milliseconds.
func (p *Packet) RootDelayMillis() float64 {
	return ShortToMillis(p.Rootdelay)
}

// RootDispersionMillis converts the 16.16 root dispersion to milliseconds.
func (p *Packet) RootDispersionMillis() float64 {
	return ShortToMillis(p.Rootdisp)
}
