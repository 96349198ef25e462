package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		wantHost string
		wantPort string
		wantErr  bool
	}{
		{name: "host and port", target: "example.com:443", wantHost: "example.com", wantPort: "443"},
		{name: "bare host", target: "example.com", wantHost: "example.com", wantPort: ""},
		{name: "service port", target: "example.com:https", wantHost: "example.com", wantPort: "https"},
		{name: "bracketed ipv6 with port", target: "[2001:db8::1]:443", wantHost: "2001:db8::1", wantPort: "443"},
		{name: "bracketed ipv6 bare", target: "[2001:db8::1]", wantHost: "2001:db8::1", wantPort: ""},
		{name: "unbracketed ipv6 is host only", target: "2001:db8::1", wantHost: "2001:db8::1", wantPort: ""},
		{name: "ipv4 with port", target: "10.0.0.1:80", wantHost: "10.0.0.1", wantPort: "80"},
		{name: "space in name", target: "bad host", wantErr: true},
		{name: "empty", target: "", wantErr: true},
		{name: "empty host", target: ":443", wantErr: true},
		{name: "empty port after colon", target: "example.com:", wantErr: true},
		{name: "unterminated bracket", target: "[2001:db8::1:443", wantErr: true},
		{name: "empty bracket", target: "[]:443", wantErr: true},
		{name: "garbage after bracket", target: "[::1]x", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host, port, err := parseTarget(tc.target)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnparseableTarget)
				assert.Contains(t, err.Error(), tc.target)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPort, port)
		})
	}
}

func TestParsePort(t *testing.T) {
	testCases := []struct {
		port    string
		want    uint16
		wantErr bool
	}{
		{port: "http", want: 80},
		{port: "https", want: 443},
		{port: "53", want: 53},
		{port: "65535", want: 65535},
		{port: "65536", wantErr: true},
		{port: "-1", wantErr: true},
		{port: "zzz", wantErr: true},
		{port: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.port, func(t *testing.T) {
			got, err := parsePort(tc.port)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnparseableTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
