package dnsquery

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

type DriverTestSuite struct {
	suite.Suite
}

func (s *DriverTestSuite) newDriver(cfg Config) *Driver {
	if cfg.Resolvers == nil {
		cfg.Resolvers = []string{"1.1.1.1:53"}
	}
	d, err := NewDriver(cfg)
	s.Require().NoError(err)
	return d
}

func (s *DriverTestSuite) TestNewDriverValidation() {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "negative timeout",
			cfg:     Config{Timeout: -time.Second},
			wantErr: "negative timeout",
		},
		{
			name:    "negative workers",
			cfg:     Config{Workers: -1},
			wantErr: "negative worker count",
		},
		{
			name:    "resolver without port",
			cfg:     Config{Resolvers: []string{"1.1.1.1"}},
			wantErr: `resolver "1.1.1.1"`,
		},
		{
			name: "valid defaults",
			cfg:  Config{Resolvers: []string{"1.1.1.1:53"}},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			d, err := NewDriver(tc.cfg)
			if tc.wantErr != "" {
				s.Error(err)
				s.Contains(err.Error(), tc.wantErr)
				return
			}
			s.Require().NoError(err)
			d.Destroy()
		})
	}
}

func (s *DriverTestSuite) TestBacklogHeldUntilStart() {
	d := s.newDriver(Config{})
	defer d.Destroy()

	ran := atomic.NewInt32(0)
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		d.submit(func() {
			<-release
			ran.Inc()
			wg.Done()
		})
	}

	// Nothing runs before Start pumps the backlog.
	time.Sleep(50 * time.Millisecond)
	s.Equal(int32(0), ran.Load())

	d.Start()
	close(release)
	wg.Wait()
	s.Equal(int32(3), ran.Load())
}

func (s *DriverTestSuite) TestStartIsIdempotent() {
	d := s.newDriver(Config{Workers: 1})
	defer d.Destroy()

	d.Start()
	d.Start()
	d.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	d.submit(func() { wg.Done() })
	wg.Wait()
}

func (s *DriverTestSuite) TestDestroyFromWorker() {
	d := s.newDriver(Config{Workers: 1})

	// The last completion callback tears down its own driver; Destroy must
	// not block waiting for the worker it runs on.
	done := make(chan struct{})
	d.submit(func() {
		d.Destroy()
		close(done)
	})
	d.Start()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.Fail("Destroy deadlocked when called from a worker")
	}
}

func (s *DriverTestSuite) TestDestroyIsIdempotent() {
	d := s.newDriver(Config{})
	d.Start()
	d.Destroy()
	d.Destroy()
}

func TestDriverSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}
