// Package client is a thin convenience wrapper for CLI tools to call the
// Lookout daemon's JSON API over a Unix-domain socket. It re-exports the
// DTOs from pkg/api so callers get strongly-typed results instead of
// generic maps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/Aadhyaan/lookout/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// New returns a Client that dials the given Unix-domain socket path.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
	}
	tr := &http.Transport{DialContext: dial}
	return &Client{hc: &http.Client{Transport: tr}, base: "http://unix"}
}

// --------------------------- commands ------------------------------

// Resolve asks the daemon to resolve name and returns the resolved
// addresses. An empty defaultPort uses the daemon's configured default;
// balancer selects load-balancer resolution with SRV discovery.
func (c *Client) Resolve(ctx context.Context, name, defaultPort string, balancer bool) ([]api.ResolvedAddress, error) {
	req := api.ResolveRequest{Name: name, DefaultPort: defaultPort, Balancer: balancer}
	var out api.ResolveResponse
	if err := c.post(ctx, "/v1/resolve", req, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

// Status retrieves the current status of the daemon: uptime, resolutions
// served, and version information.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.get(ctx, "/v1/status", &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) post(ctx context.Context, path string, payload, v any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("daemon returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
