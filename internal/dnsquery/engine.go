package dnsquery

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var (
	// ErrNoRecords is returned when a response carries no usable records.
	ErrNoRecords = fmt.Errorf("no records found")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = fmt.Errorf("empty message")
)

// Family identifies the address family of a forward lookup.
type Family int

const (
	// FamilyIPv4 selects A record lookups.
	FamilyIPv4 Family = iota
	// FamilyIPv6 selects AAAA record lookups.
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv6 {
		return "AAAA"
	}
	return "A"
}

func (f Family) qtype() uint16 {
	if f == FamilyIPv6 {
		return dns.TypeAAAA
	}
	return dns.TypeA
}

// HostEntry is the parsed result of one successful forward lookup:
// every address of one family for one hostname.
type HostEntry struct {
	Host   string
	Family Family
	Addrs  []net.IP
}

// SRVTarget is one (host, port) pair parsed from an SRV answer.
type SRVTarget struct {
	Host string
	Port uint16
}

// HostCallback receives the outcome of a forward lookup. It may run on an
// arbitrary driver worker goroutine, exactly once per issued query.
type HostCallback func(entry *HostEntry, err error)

// SRVCallback receives the outcome of a service lookup. It may run on an
// arbitrary driver worker goroutine, exactly once per issued query.
type SRVCallback func(targets []SRVTarget, err error)

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Channel issues asynchronous DNS queries through the worker pool of the
// Driver that owns it. Queries issued before the driver is started sit in
// its backlog until Start pumps them.
type Channel struct {
	client    Exchanger
	resolvers []string
	retries   uint
	timeout   time.Duration
	submit    func(task func())
}

// StartHostQuery issues an asynchronous forward lookup of host for the given
// address family. cb is invoked exactly once with the parsed entry or an error.
func (c *Channel) StartHostQuery(host string, family Family, cb HostCallback) {
	c.submit(func() {
		cb(c.lookupHost(host, family))
	})
}

// StartSRVQuery issues an asynchronous SRV lookup for service. cb is invoked
// exactly once with the parsed (host, port) targets or an error.
func (c *Channel) StartSRVQuery(service string, cb SRVCallback) {
	c.submit(func() {
		cb(c.lookupSRV(service))
	})
}

func (c *Channel) lookupHost(host string, family Family) (*HostEntry, error) {
	// if host is an IP literal, answer it locally without a query.
	if ip := net.ParseIP(host); ip != nil {
		if (ip.To4() != nil) != (family == FamilyIPv4) {
			return nil, fmt.Errorf("%s lookup for %q: %w", family, host, ErrNoRecords)
		}
		return &HostEntry{Host: host, Family: family, Addrs: []net.IP{ip}}, nil
	}

	resp, err := c.exchange(host, family.qtype())
	if err != nil {
		return nil, fmt.Errorf("%s lookup for %q: %w", family, host, err)
	}

	addrs := parseAddrs(resp, family)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s lookup for %q: %w", family, host, ErrNoRecords)
	}
	return &HostEntry{Host: host, Family: family, Addrs: addrs}, nil
}

func (c *Channel) lookupSRV(service string) ([]SRVTarget, error) {
	resp, err := c.exchange(service, dns.TypeSRV)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup for %q: %w", service, err)
	}

	targets := parseSRV(resp)
	if len(targets) == 0 {
		return nil, fmt.Errorf("SRV lookup for %q: %w", service, ErrNoRecords)
	}
	return targets, nil
}

// exchange sends one question and returns the raw response. It retries
// c.retries additional times before giving up.
func (c *Channel) exchange(name string, qtype uint16) (*dns.Msg, error) {
	var lastErr error
	for attempt := uint(0); attempt <= c.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)

		// Fresh request each attempt: ExchangeContext mutates *dns.Msg
		req := &dns.Msg{}
		req.SetQuestion(dns.Fqdn(name), qtype)

		resp, _, err := c.client.ExchangeContext(ctx, req, c.getResolver())
		cancel()
		if err != nil {
			lastErr = err
			continue // retry
		}
		if resp == nil {
			return nil, ErrEmptyMsg
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("exchange failed for %q", name)
	}
	return nil, lastErr
}

// parseAddrs extracts the addresses matching family from the response answer.
func parseAddrs(resp *dns.Msg, family Family) []net.IP {
	var addrs []net.IP
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			if family == FamilyIPv4 {
				addrs = append(addrs, record.A)
			}
		case *dns.AAAA:
			if family == FamilyIPv6 {
				addrs = append(addrs, record.AAAA)
			}
		}
	}
	return addrs
}

// parseSRV extracts (host, port) targets from the response answer.
func parseSRV(resp *dns.Msg) []SRVTarget {
	var targets []SRVTarget
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			targets = append(targets, SRVTarget{
				Host: strings.TrimSuffix(srv.Target, "."),
				Port: srv.Port,
			})
		}
	}
	return targets
}

// getResolver returns a random resolver from the channel's resolver list.
func (c *Channel) getResolver() string {
	if len(c.resolvers) == 1 {
		return c.resolvers[0]
	}

	// Use crypto/rand for secure random selection
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(c.resolvers))))
	if err != nil {
		// Fall back to first resolver on error
		return c.resolvers[0]
	}
	return c.resolvers[n.Int64()]
}
