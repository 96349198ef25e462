// Package resolver performs asynchronous DNS name resolution with optional
// load-balancer service discovery.
//
// A resolution is fire-and-forget: Resolve and ResolveForLoadBalancing
// return immediately, fan a target out into independent sub-queries (an A
// lookup, an AAAA lookup when IPv6 loopback is available, and in balancer
// mode an SRV lookup whose answer expands into further lookups), and invoke
// the caller's DoneFunc exactly once when the last sub-query has completed.
// The caller-owned out slice is fully populated by the time DoneFunc runs.
//
// # Basic usage
//
//	if err := resolver.Init(); err != nil {
//		log.Fatalf("resolver init: %v", err)
//	}
//	defer resolver.Cleanup()
//
//	var addrs []resolver.Address
//	done := make(chan error, 1)
//	resolver.Resolve("example.com:443", "", &addrs, func(err error) {
//		done <- err
//	})
//	if err := <-done; err != nil {
//		return err
//	}
//	for _, a := range addrs {
//		fmt.Println(a)
//	}
//
// Targets may be bare hosts, host:port pairs, or bracketed IPv6 literals.
// When the target carries no port the defaultPort argument is substituted;
// "http" and "https" are understood as 80 and 443.
//
// # Load-balancer discovery
//
// ResolveForLoadBalancing additionally queries the "_grpclb._tcp." SRV
// record of the target host. Each SRV target is resolved like a regular
// host, and its addresses are appended tagged IsBalancer with the target
// hostname as the balancer name, alongside the untagged addresses of the
// original host.
//
// # Completion semantics
//
// Sub-queries complete independently, possibly concurrently, on engine
// worker goroutines. Merging is order-independent except for one deliberate
// policy: first success wins. Once any sub-query succeeds, accumulated
// failures are discarded and later ones are suppressed, so DoneFunc sees a
// nil error whenever at least one address family resolved. Only when every
// sub-query fails does DoneFunc receive the full error chain, one entry per
// failed query. Suppressed partial failures are logged at debug level.
//
// There is no cancellation: once issued, a resolution runs until its
// sub-queries finish or time out individually. CNAME chains are not
// followed.
package resolver
