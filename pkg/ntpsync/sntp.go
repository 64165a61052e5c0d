package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	sntp "github.com/beevik/ntp"
)

// SNTPClient answers offset queries through github.com/beevik/ntp. Detailed
// queries still go through the embedded Client because they need the raw
// reply packet.
type SNTPClient struct {
	*Client
}

func NewSNTPClient(client *Client) *SNTPClient {
	if client == nil {
		client = &Client{}
	}
	return &SNTPClient{Client: client}
}

func (c *SNTPClient) OffsetAndDelay(ctx context.Context, hostname string) (offset, delay time.Duration, err error) {
	if hostname == "" {
		return 0, 0, fmt.Errorf("%w: empty hostname", ErrHostUnresolved)
	}

	timeout := c.timeout()
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	port, err := strconv.Atoi(c.port())
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid port %q", ErrSocket, c.port())
	}

	debug("Querying", hostname, "through sntp backend on port", port)
	response, err := sntp.QueryWithOptions(hostname, sntp.QueryOptions{
		Timeout: timeout,
		Version: int(c.version()),
		Port:    port,
	})
	if err != nil {
		return 0, 0, classifySNTPError(err)
	}
	if err := response.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNoSync, err)
	}

	return response.ClockOffset, response.RTT, nil
}

func classifySNTPError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrHostUnresolved, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrSocket, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedPacket, err)
}
