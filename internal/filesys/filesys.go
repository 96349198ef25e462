// Package filesys provides the small file system abstraction Lookout needs.
// It defines an interface for the handful of file operations the config
// loader performs and an implementation that delegates to the standard
// library, making it easy to test code that touches the file system.
package filesys

import (
	"io/fs"
	"os"
)

// ReadFS is the tiny surface the *config loader* needs.
// It is intentionally **smaller** than os.File because callers
// never need writes, random access, or directory iteration.
type ReadFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
}

// OS returns a file system implementation that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadFS against the local disk.
// All methods delegate to the standard library.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)     { return os.Stat(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)        { return os.Open(p) }

var _ ReadFS = OsFS{}
