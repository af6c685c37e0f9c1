package zp2

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// OpenFunc opens a source for packing and reports its size in bytes.
// Exactly size bytes are read from the returned reader, which is always closed.
// Returning an error or a nil reader marks the source as unopenable, and the
// entry is skipped.
type OpenFunc func() (rc io.ReadCloser, size int64, err error)

// source is one registered entry of the Entry Set.
type source struct {
	path string
	open OpenFunc
}

// Engine packs registered files into containers and unpacks containers.
//
// The registered Entry Set is ordered by first registration and deduplicated
// by path. An Engine is not safe for concurrent use.
type Engine struct {
	cfg     config
	sources []source
	seen    map[string]struct{}
}

// New creates an Engine with an empty Entry Set.
func New(opts ...Option) *Engine {
	return &Engine{
		cfg:  newConfig(opts),
		seen: make(map[string]struct{}),
	}
}

// Add registers a file to be included in the next Pack. No I/O is performed;
// the file is opened only when packing. Adding a path that is already
// registered is a no-op.
func (e *Engine) Add(path string) error {
	return e.register(path, nil)
}

// AddSource registers an entry whose bytes come from open instead of the
// filesystem. Deduplication follows the same rules as Add.
func (e *Engine) AddSource(path string, open OpenFunc) error {
	if open == nil {
		return fmt.Errorf("add %s: nil OpenFunc", path)
	}
	return e.register(path, open)
}

func (e *Engine) register(path string, open OpenFunc) error {
	if path == "" {
		return ErrEmptyPath
	}
	if _, ok := e.seen[path]; ok {
		return nil
	}
	e.seen[path] = struct{}{}
	e.sources = append(e.sources, source{path: path, open: open})
	return nil
}

// Len returns the number of registered entries.
func (e *Engine) Len() int {
	return len(e.sources)
}

// Entries returns the registered entries in registration order.
// Size and Offset are unset until packed; see PackStats.Entries.
func (e *Engine) Entries() []Entry {
	entries := make([]Entry, len(e.sources))
	for i, s := range e.sources {
		entries[i] = Entry{Path: s.path}
	}
	return entries
}

// openSource opens a registered entry for reading.
// Non-regular files are reported as errors so they are skipped like missing ones.
func (e *Engine) openSource(s source) (io.ReadCloser, int64, error) {
	if s.open != nil {
		rc, size, err := s.open()
		if err != nil {
			return nil, 0, err
		}
		if rc == nil {
			return nil, 0, errors.New("nil reader")
		}
		if size < 0 {
			rc.Close()
			return nil, 0, fmt.Errorf("negative size %d", size)
		}
		return rc, size, nil
	}

	var (
		f   fs.File
		err error
	)
	if e.cfg.sourceFS != nil {
		f, err = e.cfg.sourceFS.Open(s.path)
	} else {
		f, err = os.Open(s.path)
	}
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, fmt.Errorf("not a regular file: %s", s.path)
	}
	return f, info.Size(), nil
}
