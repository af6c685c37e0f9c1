package zp2

import (
	"io/fs"
	"log/slog"

	"github.com/meigma/zp2/internal/ioutil"
)

// DefaultChunkSize is the copy buffer size used when no WithChunkSize option is set.
const DefaultChunkSize = ioutil.DefaultChunkSize

// DefaultMaxIndexSize is the index size limit used when no WithMaxIndexSize
// option is set.
const DefaultMaxIndexSize = 256 << 20

// config holds settings shared by Engine and Archive.
type config struct {
	logger       *slog.Logger
	progress     ProgressFunc
	chunkSize    int
	destDir      string
	maxIndexSize int64
	sourceFS     fs.FS
}

// Option configures an Engine or Archive.
type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{
		chunkSize:    DefaultChunkSize,
		maxIndexSize: DefaultMaxIndexSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger for operation events.
// A nil logger discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress sets a callback that receives progress events.
// Events are delivered synchronously from the goroutine running the operation.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithChunkSize sets the copy buffer size. Values <= 0 use DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		c.chunkSize = n
	}
}

// WithDestDir unpacks entries beneath dir instead of at their stored paths.
//
// With a destination directory set, entries whose path is absolute or climbs
// out of dir are rejected with ErrUnsafePath. Without one, stored paths are
// used as-is, relative to the working directory.
func WithDestDir(dir string) Option {
	return func(c *config) {
		c.destDir = dir
	}
}

// WithMaxIndexSize limits the size of an index read from a container.
// Values <= 0 use DefaultMaxIndexSize.
func WithMaxIndexSize(n int64) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultMaxIndexSize
		}
		c.maxIndexSize = n
	}
}

// WithSourceFS resolves paths registered with Engine.Add through fsys instead
// of the operating system. Paths must then be valid fs.FS paths.
func WithSourceFS(fsys fs.FS) Option {
	return func(c *config) {
		c.sourceFS = fsys
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// reportProgress sends a progress event if a callback is configured.
func (c *config) reportProgress(stage ProgressStage, path string, bytesDone, bytesTotal int64, filesDone, filesTotal int) {
	if c.progress == nil {
		return
	}
	c.progress(ProgressEvent{
		Stage:      stage,
		Path:       path,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
		FilesDone:  filesDone,
		FilesTotal: filesTotal,
	})
}
