package dnsquery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/atomic"

	"github.com/Aadhyaan/lookout/internal/log"
)

const (
	// Small worker pool: one resolution request fans out to a handful of
	// queries at most (two families plus SRV expansion).
	_defaultWorkers = 2
	// Backlog large enough that issuing queries before Start never blocks.
	_queryBacklog   = 64
	_defaultTimeout = 5 * time.Second
)

// Config controls the channel and worker pool owned by a Driver.
type Config struct {
	// Resolvers are host:port addresses to exchange with. Empty means the
	// system resolver configuration loaded by Init, or a public fallback.
	Resolvers []string
	// Timeout bounds a single exchange attempt. Zero selects the default.
	Timeout time.Duration
	// Retries is the number of additional attempts per failed exchange.
	Retries uint
	// Workers overrides the worker pool size. Zero selects the default.
	Workers int
	// Exchanger overrides the DNS client. Tests inject a fake here.
	Exchanger Exchanger
}

// Driver owns the worker pool that pumps the queries of a single resolution
// request. A driver is exclusively owned: created when the request starts and
// destroyed when it completes.
type Driver struct {
	channel *Channel
	queue   chan func()
	workers int
	started atomic.Bool
	quit    chan struct{}
	stop    sync.Once
}

// NewDriver validates cfg and creates an unstarted driver. Queries may be
// issued on its Channel immediately; they are held in the backlog until
// Start is called.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("dnsquery: negative timeout %v", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = _defaultTimeout
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("dnsquery: negative worker count %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = _defaultWorkers
	}

	resolvers := cfg.Resolvers
	if len(resolvers) == 0 {
		resolvers = systemResolvers()
	}
	for _, r := range resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			return nil, fmt.Errorf("dnsquery: resolver %q: %w", r, err)
		}
	}

	client := cfg.Exchanger
	if client == nil {
		client = &dns.Client{Timeout: cfg.Timeout}
	}

	d := &Driver{
		queue:   make(chan func(), _queryBacklog),
		workers: cfg.Workers,
		quit:    make(chan struct{}),
	}
	d.channel = &Channel{
		client:    client,
		resolvers: resolvers,
		retries:   cfg.Retries,
		timeout:   cfg.Timeout,
		submit:    d.submit,
	}
	return d, nil
}

// Channel returns the query channel bound to this driver.
func (d *Driver) Channel() *Channel {
	return d.channel
}

// Start launches the worker pool that executes queued queries. Only the
// first call spins up workers; later calls are no-ops, so callers may start
// the driver again after issuing follow-up queries.
func (d *Driver) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < d.workers; i++ {
		go d.run()
	}
}

// Destroy stops the worker pool. It only signals shutdown and does not wait:
// completion callbacks run on worker goroutines, and the last of them is the
// one that destroys the driver.
func (d *Driver) Destroy() {
	d.stop.Do(func() {
		close(d.quit)
	})
}

func (d *Driver) run() {
	for {
		select {
		case task := <-d.queue:
			task()
		case <-d.quit:
			return
		}
	}
}

func (d *Driver) submit(task func()) {
	select {
	case d.queue <- task:
	case <-d.quit:
		log.Warnf("dnsquery: query submitted after driver shutdown, dropped")
	}
}
