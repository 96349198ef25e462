package resolver

import (
	"net"
	"strconv"

	"github.com/Aadhyaan/lookout/internal/dnsquery"
)

// Address is one resolved socket address.
type Address struct {
	IP   net.IP
	Port uint16
}

// IsIPv6 reports whether the address belongs to the IPv6 family.
func (a Address) IsIPv6() bool {
	return a.IP.To4() == nil
}

func (a Address) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

// BalancerAddress is a resolved socket address annotated for load balancing:
// whether it names a balancer endpoint and, if so, under which balancer name.
type BalancerAddress struct {
	Address
	IsBalancer   bool
	BalancerName string
}

// sink is the output target of one resolution request, fixed at request
// construction. Appends happen under the request mutex, only from successful
// host-query completions, and only ever grow the caller's slice.
type sink interface {
	append(hq *hostQuery, entry *dnsquery.HostEntry)
}

type plainSink struct {
	out *[]Address
}

func (s plainSink) append(hq *hostQuery, entry *dnsquery.HostEntry) {
	if *s.out == nil {
		*s.out = make([]Address, 0, len(entry.Addrs))
	}
	for _, ip := range entry.Addrs {
		*s.out = append(*s.out, Address{IP: ip, Port: hq.port})
	}
}

type balancerSink struct {
	out *[]BalancerAddress
}

func (s balancerSink) append(hq *hostQuery, entry *dnsquery.HostEntry) {
	if *s.out == nil {
		*s.out = make([]BalancerAddress, 0, len(entry.Addrs))
	}
	for _, ip := range entry.Addrs {
		addr := BalancerAddress{
			Address:    Address{IP: ip, Port: hq.port},
			IsBalancer: hq.isBalancer,
		}
		if hq.isBalancer {
			addr.BalancerName = hq.host
		}
		*s.out = append(*s.out, addr)
	}
}
