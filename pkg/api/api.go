// Package api exposes a tiny JSON-over-HTTP API for the Lookout daemon.
// It listens on a Unix domain socket (path comes from config) and bridges
// the asynchronous resolver core to a request/response surface. No
// third-party HTTP framework is used—just net/http + encoding/json—keeping
// the binary small and dependency-free.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/atomic"

	"github.com/Aadhyaan/lookout/internal/buildinfo"
	"github.com/Aadhyaan/lookout/internal/config"
	"github.com/Aadhyaan/lookout/internal/socket"
	"github.com/Aadhyaan/lookout/pkg/resolver"
)

// ResolveRequest represents a request to resolve a target name.
type ResolveRequest struct {
	// Name is the target to resolve: host, host:port, or [ipv6]:port.
	Name string `json:"name"`
	// DefaultPort is substituted when Name carries no port. Empty falls
	// back to the daemon's configured default.
	DefaultPort string `json:"default_port,omitempty"`
	// Balancer selects load-balancer resolution with SRV discovery.
	Balancer bool `json:"balancer,omitempty"`
}

// ResolvedAddress is one resolved address in wire form.
type ResolvedAddress struct {
	Address      string `json:"address"` // host:port
	IsBalancer   bool   `json:"is_balancer,omitempty"`
	BalancerName string `json:"balancer_name,omitempty"`
}

// ResolveResponse represents the outcome of a resolution.
type ResolveResponse struct {
	Addresses []ResolvedAddress `json:"addresses"`
}

// StatusResponse represents the daemon status response.
type StatusResponse struct {
	Uptime      time.Duration `json:"uptime"`
	Resolutions int64         `json:"resolutions"`
	Version     string        `json:"version"`
	Commit      string        `json:"commit"`
}

// -------- server -----------------------------------------------------

// Server handles HTTP API requests over a Unix domain socket.
type Server struct {
	dns      config.DNSConfig
	start    time.Time
	resolved atomic.Int64 // resolutions served since start
	mux      *http.ServeMux
	srv      *http.Server
}

// New creates a new API server resolving with the given DNS configuration.
// It sets up the HTTP routes and returns a server ready to listen.
func New(dns config.DNSConfig) *Server {
	s := &Server{
		dns:   dns,
		start: time.Now(),
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/resolve", s.handleResolve)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts the Unix-socket HTTP server.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// handleResolve runs one resolution and replies with its addresses.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	defaultPort := req.DefaultPort
	if defaultPort == "" {
		defaultPort = s.dns.DefaultPort
	}

	opts := []resolver.Opt{
		resolver.WithTimeout(s.dns.Timeout),
		resolver.WithRetries(s.dns.Retries),
	}
	if len(s.dns.Resolvers) > 0 {
		opts = append(opts, resolver.WithResolvers(s.dns.Resolvers))
	}

	// The core has no cancellation: if the client goes away we stop
	// waiting, but the resolution itself runs to completion.
	done := make(chan error, 1)
	var resp ResolveResponse
	if req.Balancer {
		var addrs []resolver.BalancerAddress
		resolver.ResolveForLoadBalancing(req.Name, defaultPort, &addrs,
			func(err error) { done <- err }, opts...)
		if !s.await(w, r, done) {
			return
		}
		for _, a := range addrs {
			resp.Addresses = append(resp.Addresses, ResolvedAddress{
				Address:      a.String(),
				IsBalancer:   a.IsBalancer,
				BalancerName: a.BalancerName,
			})
		}
	} else {
		var addrs []resolver.Address
		resolver.Resolve(req.Name, defaultPort, &addrs,
			func(err error) { done <- err }, opts...)
		if !s.await(w, r, done) {
			return
		}
		for _, a := range addrs {
			resp.Addresses = append(resp.Addresses, ResolvedAddress{Address: a.String()})
		}
	}

	s.resolved.Inc()
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}

// await blocks until the resolution completes or the client gives up.
// It reports whether the handler should proceed to write a success body.
func (s *Server) await(w http.ResponseWriter, r *http.Request, done <-chan error) bool {
	select {
	case err := <-done:
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return false
		}
		return true
	case <-r.Context().Done():
		http.Error(w, "client went away", http.StatusGatewayTimeout)
		return false
	}
}

// handleStatus returns the daemon status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := StatusResponse{
		Uptime:      time.Since(s.start),
		Resolutions: s.resolved.Load(),
		Version:     buildinfo.Version,
		Commit:      buildinfo.Commit,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}
