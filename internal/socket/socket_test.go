package socket_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Aadhyaan/lookout/internal/socket"
)

type SocketTestSuite struct {
	suite.Suite
	tmpDir   string
	sockPath string
	mockProc *mockProcessChecker
	sock     *socket.Socket
}

type mockProcessChecker struct {
	isRunning bool
}

func (m *mockProcessChecker) IsRunning(_ string) bool {
	return m.isRunning
}

func (s *SocketTestSuite) SetupTest() {
	var err error
	s.tmpDir, err = os.MkdirTemp("", "socket-test-*")
	s.Require().NoError(err)

	s.sockPath = filepath.Join(s.tmpDir, "test.sock")
	s.mockProc = &mockProcessChecker{isRunning: true}

	// Use shorter timeouts for testing
	cfg := socket.DefaultConfig()
	cfg.StartupTimeout = 500 * time.Millisecond
	cfg.RetryInterval = 50 * time.Millisecond

	s.sock = socket.New(cfg, s.mockProc)
}

func (s *SocketTestSuite) TearDownTest() {
	// Ensure any listeners are closed
	if conn, err := net.Dial("unix", s.sockPath); err == nil {
		conn.Close()
	}

	if s.tmpDir != "" {
		os.RemoveAll(s.tmpDir)
	}
}

func (s *SocketTestSuite) TestDefaultConfig() {
	cfg := socket.DefaultConfig()

	s.Equal(5*time.Second, cfg.StartupTimeout)
	s.Equal(250*time.Millisecond, cfg.RetryInterval)
	s.Equal("lookoutd", cfg.ProcessName)

	// Permissions depend on OS
	s.Contains([]os.FileMode{0o666, 0o600}, cfg.Permissions)
}

func (s *SocketTestSuite) TestListen() {
	testCases := []struct {
		name        string
		setup       func() error
		expectError string
	}{
		{
			name:  "successful listen",
			setup: func() error { return nil },
		},
		{
			name: "directory creation error",
			setup: func() error {
				// Create a regular file where directory should be
				dirPath := filepath.Dir(s.sockPath)
				if err := os.RemoveAll(dirPath); err != nil {
					return err
				}
				return os.WriteFile(dirPath, []byte("blocking"), 0o644)
			},
			expectError: "creating socket directory",
		},
		{
			name: "socket already in use",
			setup: func() error {
				l, err := net.Listen("unix", s.sockPath)
				if err != nil {
					return err
				}
				// Keep listener open
				s.T().Cleanup(func() { l.Close() })
				return nil
			},
			expectError: "address already in use",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// Fresh setup for each test
			s.SetupTest()

			err := tc.setup()
			s.Require().NoError(err, "setup failed")

			l, err := s.sock.Listen(s.sockPath)

			if tc.expectError != "" {
				s.Error(err)
				s.Contains(err.Error(), tc.expectError)
			} else {
				s.NoError(err)
				s.NotNil(l)

				_, err := os.Stat(s.sockPath)
				s.NoError(err)

				l.Close()
			}
		})
	}
}

func (s *SocketTestSuite) TestConnect() {
	testCases := []struct {
		name        string
		setup       func(context.CancelFunc) error
		procRunning bool
		expectError string
	}{
		{
			name: "successful connection",
			setup: func(_ context.CancelFunc) error {
				// Start listener in background
				l, err := s.sock.Listen(s.sockPath)
				if err != nil {
					return err
				}

				go func() {
					defer l.Close()
					conn, _ := l.Accept()
					if conn != nil {
						conn.Close()
					}
				}()

				// Give listener time to start
				time.Sleep(50 * time.Millisecond)
				return nil
			},
			procRunning: true,
		},
		{
			name:        "process not running",
			setup:       func(_ context.CancelFunc) error { return nil },
			procRunning: false,
			expectError: "daemon not running",
		},
		{
			name: "context cancelled",
			setup: func(cancel context.CancelFunc) error {
				cancel()
				return nil
			},
			procRunning: true,
			expectError: "context canceled",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// Fresh setup
			s.SetupTest()
			s.mockProc.isRunning = tc.procRunning

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			err := tc.setup(cancel)
			s.Require().NoError(err, "setup failed")

			conn, err := s.sock.Connect(ctx, s.sockPath)

			if tc.expectError != "" {
				s.Error(err)
				s.Contains(err.Error(), tc.expectError)
				s.Nil(conn)
			} else {
				s.NoError(err)
				s.NotNil(conn)
				conn.Close()
			}
		})
	}
}

func (s *SocketTestSuite) TestRetryBehavior() {
	cfg := socket.DefaultConfig()
	cfg.StartupTimeout = 2 * time.Second
	cfg.RetryInterval = 100 * time.Millisecond
	s.sock = socket.New(cfg, s.mockProc)

	ctx := context.Background()
	startTime := time.Now()

	// Start listener after delay
	go func() {
		time.Sleep(500 * time.Millisecond)
		l, err := s.sock.Listen(s.sockPath)
		if err == nil {
			defer l.Close()
			conn, _ := l.Accept()
			if conn != nil {
				conn.Close()
			}
		}
	}()

	conn, err := s.sock.Connect(ctx, s.sockPath)
	duration := time.Since(startTime)

	s.NoError(err)
	s.NotNil(conn)
	if conn != nil {
		conn.Close()
	}

	s.GreaterOrEqual(duration, 500*time.Millisecond, "Should have waited for listener")
	s.Less(duration, 2*time.Second, "Should not have waited too long")
}

func TestSocketSuite(t *testing.T) {
	suite.Run(t, new(SocketTestSuite))
}
