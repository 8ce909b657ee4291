// Package assetstore holds run-scoped temporary files, one per conversion run.
//
// Each stored file is named after its run's UUIDv7 so concurrent runs never share a
// path. Release is idempotent: releasing an already-removed file succeeds.
package assetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/alnah/go-web2md/internal/fileutil"
)

// Sentinel errors for store operations.
var (
	ErrWriteFailed   = errors.New("writing temporary asset failed")
	ErrCleanupFailed = errors.New("removing temporary asset failed")
)

// filePrefix marks files owned by the store, for leak checks and manual cleanup.
const filePrefix = "web2md-"

// NewV7 returns a time-ordered run identifier.
func NewV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Handle identifies one stored file.
type Handle struct {
	ID   string
	Path string

	released bool
}

// Store writes and removes temporary assets under a single directory.
// A Store is safe for concurrent use.
type Store struct {
	dir string

	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a Store rooted at dir. An empty dir means os.TempDir().
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Store{
		dir:     dir,
		pending: make(map[string]struct{}),
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Put writes data to web2md-<id>.<ext>, where id is the run identifier.
// The file is created exclusively: an existing file with the same name is an error.
func (s *Store) Put(id string, data []byte, ext string) (*Handle, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrWriteFailed, id)
	}
	if err := fileutil.ValidateExtension(ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	path := filepath.Join(s.dir, filePrefix+id+"."+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 -- path built from store dir and validated id
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	h := &Handle{ID: id, Path: path}
	s.track(path)

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.Release(h)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		_ = s.Release(h)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return h, nil
}

// validID accepts letters, digits and '-', the alphabet of UUIDs.
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

// Release removes the file behind h. Releasing a nil handle, an already
// released handle, or a file removed by someone else succeeds.
func (s *Store) Release(h *Handle) error {
	if h == nil || h.released {
		return nil
	}
	err := os.Remove(h.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrCleanupFailed, h.Path, err)
	}
	h.released = true
	s.untrack(h.Path)
	return nil
}

// Pending returns the number of files written and not yet released.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Orphans lists store-owned files present in the directory, including files
// left behind by other processes.
func (s *Store) Orphans() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *Store) track(path string) {
	s.mu.Lock()
	s.pending[path] = struct{}{}
	s.mu.Unlock()
}

func (s *Store) untrack(path string) {
	s.mu.Lock()
	delete(s.pending, path)
	s.mu.Unlock()
}
