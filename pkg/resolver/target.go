package resolver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnparseableTarget is returned when a target cannot be split into
	// host and port parts.
	ErrUnparseableTarget = errors.New("unparseable host:port")
	// ErrNoPort is returned when a target carries no port and no default
	// port was supplied.
	ErrNoPort = errors.New("no port in name")
)

// parseTarget splits name into host and port substrings. It accepts bare
// hosts ("example.com"), host:port pairs ("example.com:443"), and bracketed
// IPv6 literals ("[::1]", "[::1]:443"). A bare IPv6 literal with multiple
// colons is treated as a host with no port. An empty port return means the
// target carried none.
func parseTarget(name string) (host, port string, err error) {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return "", "", fmt.Errorf("%w: %q", ErrUnparseableTarget, name)
	}

	if name[0] == '[' {
		end := strings.LastIndexByte(name, ']')
		if end < 0 || name[1:end] == "" {
			return "", "", fmt.Errorf("%w: %q", ErrUnparseableTarget, name)
		}
		host = name[1:end]
		rest := name[end+1:]
		switch {
		case rest == "":
			return host, "", nil
		case rest[0] == ':' && len(rest) > 1:
			return host, rest[1:], nil
		default:
			return "", "", fmt.Errorf("%w: %q", ErrUnparseableTarget, name)
		}
	}

	switch strings.Count(name, ":") {
	case 0:
		return name, "", nil
	case 1:
		i := strings.IndexByte(name, ':')
		host, port = name[:i], name[i+1:]
		if host == "" || port == "" {
			return "", "", fmt.Errorf("%w: %q", ErrUnparseableTarget, name)
		}
		return host, port, nil
	default:
		// Unbracketed IPv6 literal: the whole thing is the host.
		return name, "", nil
	}
}

// parsePort converts a textual port to its numeric value. The well-known
// service names "http" and "https" map to 80 and 443; anything else must be
// a decimal 16-bit number.
func parsePort(port string) (uint16, error) {
	switch port {
	case "http":
		return 80, nil
	case "https":
		return 443, nil
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid port %q", ErrUnparseableTarget, port)
	}
	return uint16(n), nil
}
