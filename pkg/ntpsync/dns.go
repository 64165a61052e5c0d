package ntpsync

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// DNSResolver resolves PTR records against one specific DNS server instead
// of the system resolver.
type DNSResolver struct {
	Server string // host or host:port, port 53 when omitted
	Client *dns.Client
}

func (r *DNSResolver) server() string {
	if _, _, err := net.SplitHostPort(r.Server); err == nil {
		return r.Server
	}
	return net.JoinHostPort(r.Server, "53")
}

func (r *DNSResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	name, err := dns.ReverseAddr(addr)
	if err != nil {
		return nil, err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)

	client := r.Client
	if client == nil {
		client = new(dns.Client)
	}
	in, _, err := client.ExchangeContext(ctx, msg, r.server())
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("ptr lookup of %s: %s", addr, dns.RcodeToString[in.Rcode])
	}

	var names []string
	for _, rr := range in.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("ptr lookup of %s: no records", addr)
	}
	return names, nil
}
