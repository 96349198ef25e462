package dnsquery

import (
	"fmt"
	"net"
	"sync"

	"github.com/miekg/dns"
)

const (
	_resolvConfPath   = "/etc/resolv.conf"
	_fallbackResolver = "1.1.1.1:53"
)

// Process-wide engine state. Init and Cleanup must be balanced; both are
// safe to call from any goroutine.
var (
	initMu      sync.Mutex
	initialized bool
	systemCfg   *dns.ClientConfig
)

// Init performs one-time initialization of the query engine: it loads the
// system resolver configuration so drivers without explicit resolvers can
// use it. Init must be called before any resolution; repeated calls are
// no-ops. The returned error reports a failed configuration load.
func Init() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}
	cfg, err := dns.ClientConfigFromFile(_resolvConfPath)
	if err != nil {
		return fmt.Errorf("dnsquery: loading %s: %w", _resolvConfPath, err)
	}
	systemCfg = cfg
	initialized = true
	return nil
}

// Cleanup releases the process-wide engine state. It balances Init and is
// called at shutdown.
func Cleanup() {
	initMu.Lock()
	defer initMu.Unlock()

	systemCfg = nil
	initialized = false
}

// systemResolvers returns the host:port resolver addresses loaded by Init,
// or a public fallback when Init has not run or found none.
func systemResolvers() []string {
	initMu.Lock()
	defer initMu.Unlock()

	if systemCfg == nil || len(systemCfg.Servers) == 0 {
		return []string{_fallbackResolver}
	}
	out := make([]string, 0, len(systemCfg.Servers))
	for _, server := range systemCfg.Servers {
		out = append(out, net.JoinHostPort(server, systemCfg.Port))
	}
	return out
}
