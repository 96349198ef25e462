// Package dnsquery is Lookout's DNS query engine: asynchronous forward and
// SRV lookups executed by a per-request worker pool.
//
// The package has two halves. A Driver owns a small worker pool and a query
// backlog; a Channel, bound to exactly one driver, converts lookup requests
// into backlog tasks. Callbacks fire on worker goroutines, exactly once per
// issued query, possibly concurrently with each other.
//
// # Usage
//
//	driver, err := dnsquery.NewDriver(dnsquery.Config{})
//	if err != nil {
//		return err
//	}
//	ch := driver.Channel()
//	ch.StartHostQuery("example.com", dnsquery.FamilyIPv4, func(entry *dnsquery.HostEntry, err error) {
//		// runs on a worker goroutine
//	})
//	driver.Start()
//
// Queries issued before Start sit in the backlog; Start is idempotent, so
// callers that issue follow-up queries (SRV expansion) can simply call it
// again. Destroy stops the pool without waiting, which allows the last
// completion callback itself to tear the driver down.
//
// # Exchange mechanics
//
// Each lookup builds a fresh dns.Msg, exchanges it with a randomly selected
// resolver via github.com/miekg/dns, and retries a bounded number of times.
// Answers are parsed into typed results (HostEntry for A/AAAA, SRVTarget for
// SRV); the engine never hands raw wire format to callers. The Exchanger
// interface is the seam tests use to substitute a fake DNS server.
//
// # Process lifecycle
//
// Init loads /etc/resolv.conf once, under a process-wide mutex, so drivers
// configured without explicit resolvers use the system's; Cleanup balances
// it at shutdown. Drivers fall back to a public resolver when neither
// explicit nor system resolvers are available.
//
// The engine does not follow CNAME chains and does not cancel in-flight
// queries; each exchange attempt is individually bounded by the configured
// timeout.
package dnsquery
