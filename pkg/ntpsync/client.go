package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/AndrewLester/ntpsync/internal/ntp"
)

const (
	DefaultTimeout = 10 * time.Second
	MTU            = 1300
)

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Client performs single request/reply exchanges with an NTP server. Every
// call opens and closes its own socket.
type Client struct {
	Timeout  time.Duration // per query, DefaultTimeout when zero
	Version  byte          // 3 or 4, ntp.DefaultVersion when zero
	Port     string        // ntp.Port when empty
	Resolver Resolver
	Dial     func(ctx context.Context, network, address string) (net.Conn, error)
	Now      func() time.Time
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) version() byte {
	if c.Version == 0 {
		return ntp.DefaultVersion
	}
	return c.Version
}

func (c *Client) port() string {
	if c.Port == "" {
		return ntp.Port
	}
	return c.Port
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) dial(ctx context.Context, address string) (net.Conn, error) {
	if c.Dial != nil {
		return c.Dial(ctx, "udp", address)
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, "udp", address)
}

func (c *Client) resolve(ctx context.Context, hostname string) (net.IP, error) {
	if hostname == "" {
		return nil, fmt.Errorf("%w: empty hostname", ErrHostUnresolved)
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return ip, nil
	}

	var resolver Resolver = net.DefaultResolver
	if c.Resolver != nil {
		resolver = c.Resolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHostUnresolved, hostname, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrHostUnresolved, hostname)
	}
	for _, addr := range addrs {
		if addr.IP.To4() != nil {
			return addr.IP, nil
		}
	}
	return addrs[0].IP, nil
}

// Query sends one client request to hostname and waits for one reply. There
// is no retry; a missing reply ends in ErrTimeout once the timeout elapsed.
func (c *Client) Query(ctx context.Context, hostname string) (*TimeInfo, error) {
	ip, err := c.resolve(ctx, hostname)
	if err != nil {
		return nil, err
	}
	address := net.JoinHostPort(ip.String(), c.port())
	debug("Querying", hostname, "at", address)

	conn, err := c.dial(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrSocket, address, err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(c.timeout())); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSocket, err)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	t1 := c.now()
	xmt := ntp.TimeToTimestamp(t1)
	if _, err := conn.Write(ntp.EncodeRequest(c.version(), xmt)); err != nil {
		return nil, fmt.Errorf("%w: send to %s: %v", ErrSocket, address, err)
	}

	buffer := make([]byte, MTU)
	n, err := conn.Read(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, address, c.timeout())
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: receive from %s: %v", ErrSocket, address, err)
	}
	t4 := c.now()

	packet, err := ntp.DecodeReply(buffer[:n])
	if err != nil {
		return nil, err
	}
	if packet.Mode != ntp.SERVER && packet.Mode != ntp.BROADCAST_SERVER {
		return nil, fmt.Errorf("%w: unexpected mode %d", ErrMalformedPacket, packet.Mode)
	}
	if packet.Org != xmt {
		return nil, fmt.Errorf("%w: origin timestamp does not match request", ErrMalformedPacket)
	}

	return &TimeInfo{
		Hostname: hostname,
		Address:  ip.String(),
		T1:       t1,
		T2:       ntp.TimestampToTime(packet.Rec),
		T3:       ntp.TimestampToTime(packet.Xmt),
		T4:       t4,
		Packet:   packet,
	}, nil
}

// OffsetAndDelay runs Query and keeps only the computed offset and delay.
func (c *Client) OffsetAndDelay(ctx context.Context, hostname string) (offset, delay time.Duration, err error) {
	timeInfo, err := c.Query(ctx, hostname)
	if err != nil {
		return 0, 0, err
	}
	offset, ok := timeInfo.Offset()
	if !ok {
		return 0, 0, fmt.Errorf("%w: reply is missing timestamps", ErrMalformedPacket)
	}
	delay, _ = timeInfo.Delay()
	return offset, delay, nil
}
