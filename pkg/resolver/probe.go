package resolver

import (
	"net"
	"sync"
)

var (
	ipv6ProbeOnce sync.Once
	ipv6ProbeOK   bool
)

// ipv6LoopbackAvailable reports whether the IPv6 loopback interface is
// usable, which gates whether AAAA queries are issued at all. The probe
// binds an ephemeral TCP listener on [::1] once and caches the result for
// the life of the process.
func ipv6LoopbackAvailable() bool {
	ipv6ProbeOnce.Do(func() {
		ln, err := net.Listen("tcp6", "[::1]:0")
		if err != nil {
			return
		}
		ln.Close()
		ipv6ProbeOK = true
	})
	return ipv6ProbeOK
}
