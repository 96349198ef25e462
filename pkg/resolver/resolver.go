package resolver

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/Aadhyaan/lookout/internal/dnsquery"
	"github.com/Aadhyaan/lookout/internal/log"
)

// Balancer backends are discovered through the gRPC load-balancing SRV
// convention.
const _balancerServicePrefix = "_grpclb._tcp."

// DoneFunc receives the final outcome of a resolution request, exactly once.
// The error is nil when any sub-query succeeded; otherwise it chains the
// failures of every sub-query. It may run on an engine worker goroutine.
type DoneFunc func(err error)

// Init performs one-time initialization of the underlying query engine.
// It must be called before the first resolution and balanced by Cleanup
// at shutdown. Repeated calls are no-ops.
func Init() error { return dnsquery.Init() }

// Cleanup releases the process-wide query engine state set up by Init.
func Cleanup() { dnsquery.Cleanup() }

type options struct {
	driver dnsquery.Config
	ipv6   *bool
}

// Opt is a function option for configuring a resolution request.
type Opt func(*options)

// WithResolvers returns an option to set the DNS servers (host:port) the
// request's queries exchange with.
func WithResolvers(resolvers []string) Opt {
	return func(o *options) {
		o.driver.Resolvers = resolvers
	}
}

// WithTimeout returns an option to bound each exchange attempt.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *options) {
		o.driver.Timeout = timeout
	}
}

// WithRetries returns an option to set the number of additional attempts
// per failed exchange.
func WithRetries(retries uint) Opt {
	return func(o *options) {
		o.driver.Retries = retries
	}
}

// WithExchanger returns an option to substitute the DNS client used by the
// request's query engine.
func WithExchanger(x dnsquery.Exchanger) Opt {
	return func(o *options) {
		o.driver.Exchanger = x
	}
}

// WithIPv6 returns an option that overrides the IPv6 loopback probe:
// true always issues AAAA queries, false never does.
func WithIPv6(enabled bool) Opt {
	return func(o *options) {
		o.ipv6 = &enabled
	}
}

// request is the shared state of one resolution: the unit of at-most-once
// completion. Every outstanding sub-query holds one share of pending; the
// zero crossing of pending is the unique terminal transition.
type request struct {
	id     string
	driver *dnsquery.Driver
	sink   sink
	done   DoneFunc
	ipv6   bool

	// pending starts at 1 for the orchestrator's own hold and gains one
	// share per issued query.
	pending atomic.Int32

	mu      sync.Mutex // guards success and err
	success bool
	err     error
}

func (r *request) ref() {
	r.pending.Inc()
}

// unref releases one share of the request. The decrement of the last share
// completes the request: the done callback runs exactly once and the owned
// event driver is torn down. Reading err without the mutex is safe here
// because every mutator finishes before releasing its share.
func (r *request) unref() {
	if r.pending.Dec() != 0 {
		return
	}
	log.Debugf("resolver: request %s complete: err=%v", r.id, r.err)
	r.done(r.err)
	r.driver.Destroy()
}

// recordFailure folds a sub-query failure into the accumulated error chain,
// unless a sibling has already succeeded.
func (r *request) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.success {
		log.Debugf("resolver: request %s dropping failure after success: %v", r.id, err)
		return
	}
	r.err = multierr.Append(r.err, err)
}

// hostQuery is one outstanding forward lookup: one hostname, one address
// family, holding one share of the parent request for its lifetime.
type hostQuery struct {
	req        *request
	host       string
	port       uint16
	isBalancer bool
}

func newHostQuery(r *request, host string, port uint16, isBalancer bool) *hostQuery {
	r.ref()
	return &hostQuery{
		req:        r,
		host:       host,
		port:       port,
		isBalancer: isBalancer,
	}
}

// onDone merges one forward-lookup outcome into the shared request state,
// then releases the query's share of the parent.
func (hq *hostQuery) onDone(entry *dnsquery.HostEntry, err error) {
	r := hq.req
	if err == nil {
		r.mu.Lock()
		// First success wins: an established success discards accumulated
		// failures and suppresses later ones.
		r.err = nil
		r.success = true
		r.sink.append(hq, entry)
		r.mu.Unlock()
		for _, ip := range entry.Addrs {
			log.Debugf("resolver: request %s got %s result: addr=%s port=%d balancer=%t",
				r.id, entry.Family, ip, hq.port, hq.isBalancer)
		}
	} else {
		r.recordFailure(err)
	}
	r.unref()
}

// onSRVDone expands a balancer service answer into one host query per
// target, mirroring the top-level family selection, then releases the SRV
// query's share.
func (r *request) onSRVDone(targets []dnsquery.SRVTarget, err error) {
	if err == nil {
		ch := r.driver.Channel()
		for _, t := range targets {
			log.Debugf("resolver: request %s SRV target %s:%d", r.id, t.Host, t.Port)
			if r.ipv6 {
				hq := newHostQuery(r, t.Host, t.Port, true)
				ch.StartHostQuery(hq.host, dnsquery.FamilyIPv6, hq.onDone)
			}
			hq := newHostQuery(r, t.Host, t.Port, true)
			ch.StartHostQuery(hq.host, dnsquery.FamilyIPv4, hq.onDone)
			r.driver.Start()
		}
	} else {
		r.recordFailure(err)
	}
	r.unref()
}

// Resolve asynchronously resolves name into a plain address list. The out
// slice is populated by the time done runs; done receives nil when any
// sub-query succeeded. Malformed targets and setup failures are reported
// through done before Resolve returns, with no queries issued.
func Resolve(name, defaultPort string, out *[]Address, done DoneFunc, opts ...Opt) {
	resolve(name, defaultPort, plainSink{out: out}, false, done, opts...)
}

// ResolveForLoadBalancing asynchronously resolves name into a load-balancer
// address list: the name's own addresses plus, via SRV discovery, one
// balancer-tagged entry per backend of the "_grpclb._tcp." service.
func ResolveForLoadBalancing(name, defaultPort string, out *[]BalancerAddress, done DoneFunc, opts ...Opt) {
	resolve(name, defaultPort, balancerSink{out: out}, true, done, opts...)
}

func resolve(name, defaultPort string, target sink, balancer bool, done DoneFunc, opts ...Opt) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	host, portStr, err := parseTarget(name)
	if err != nil {
		done(err)
		return
	}
	if portStr == "" {
		if defaultPort == "" {
			done(fmt.Errorf("%w: %q", ErrNoPort, name))
			return
		}
		portStr = defaultPort
	}
	port, err := parsePort(portStr)
	if err != nil {
		done(fmt.Errorf("%w in %q", err, name))
		return
	}

	driver, err := dnsquery.NewDriver(o.driver)
	if err != nil {
		log.Errorf("resolver: event driver creation failed: %v", err)
		done(err)
		return
	}

	ipv6 := ipv6LoopbackAvailable()
	if o.ipv6 != nil {
		ipv6 = *o.ipv6
	}

	r := &request{
		id:     uuid.NewString(),
		driver: driver,
		sink:   target,
		done:   done,
		ipv6:   ipv6,
	}
	// The orchestrator's own hold: released after fan-out, so the request
	// cannot complete while queries are still being issued.
	r.pending.Store(1)

	log.Debugf("resolver: request %s resolving %q port=%d balancer=%t ipv6=%t",
		r.id, name, port, balancer, ipv6)

	ch := driver.Channel()
	if ipv6 {
		hq := newHostQuery(r, host, port, false)
		ch.StartHostQuery(hq.host, dnsquery.FamilyIPv6, hq.onDone)
	}
	hq := newHostQuery(r, host, port, false)
	ch.StartHostQuery(hq.host, dnsquery.FamilyIPv4, hq.onDone)
	if balancer {
		r.ref()
		ch.StartSRVQuery(_balancerServicePrefix+host, r.onSRVDone)
	}
	// CNAME chains are not followed.
	driver.Start()
	r.unref()
}
