package zp2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/zp2/internal/format"
	"github.com/meigma/zp2/internal/ioutil"
	"github.com/meigma/zp2/internal/sizing"
)

// Archive is a read-only view of a container.
//
// The trailer and index are read and every entry is validated against the
// data region when the Archive is created; payload bytes are only read on
// demand. Archive methods are safe for concurrent use if the underlying
// io.ReaderAt is.
type Archive struct {
	cfg      config
	r        io.ReaderAt
	size     int64
	dataEnd  int64
	indexLen int64
	entries  []Entry
}

// NewArchive reads the index of a container of size bytes accessible via r.
//
// It returns ErrMalformed if the trailer does not fit the container, the index
// does not decode to exactly the trailer's byte length, or an entry's payload
// range lies outside the data region. It returns ErrIndexTooLarge if the index
// exceeds the WithMaxIndexSize limit.
func NewArchive(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	return newArchive(r, size, newConfig(opts))
}

func newArchive(r io.ReaderAt, size int64, cfg config) (*Archive, error) {
	a := &Archive{cfg: cfg, r: r, size: size}
	if err := a.readIndex(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) readIndex() error {
	a.cfg.reportProgress(StageReadingIndex, "", 0, 0, 0, 0)

	var trailer [format.TrailerSize]byte
	if a.size < format.TrailerSize {
		return fmt.Errorf("%w: %d bytes is smaller than the trailer", ErrMalformed, a.size)
	}
	if err := readAtFull(a.r, trailer[:], a.size-format.TrailerSize); err != nil {
		return fmt.Errorf("read trailer: %w", err)
	}
	indexLen, err := format.ParseTrailer(trailer[:])
	if err != nil {
		return err
	}
	start, err := format.Locate(a.size, indexLen)
	if err != nil {
		return err
	}
	if indexLen > a.cfg.maxIndexSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrIndexTooLarge, indexLen, a.cfg.maxIndexSize)
	}

	a.cfg.reportProgress(StageReadingIndex, "", 0, indexLen, 0, 0)
	n, err := sizing.ToInt(indexLen, ErrIndexTooLarge)
	if err != nil {
		return err
	}
	index := make([]byte, n)
	if err := readAtFull(a.r, index, start); err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	entries, err := format.DecodeIndex(index)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := e.Validate(start); err != nil {
			return err
		}
	}
	a.cfg.reportProgress(StageReadingIndex, "", indexLen, indexLen, 0, len(entries))

	a.dataEnd = start
	a.indexLen = indexLen
	a.entries = entries
	a.cfg.log().Debug("archive index read", "entries", len(entries), "data_size", start, "index_size", indexLen)
	return nil
}

// readAtFull fills p from r at off, reporting a truncated source as ErrMalformed.
func readAtFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
	}
	return err
}

// Entries returns the entries in container order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Size returns the container size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// DataSize returns the size of the data region.
func (a *Archive) DataSize() int64 {
	return a.dataEnd
}

// IndexSize returns the size of the index region, as stored in the trailer.
func (a *Archive) IndexSize() int64 {
	return a.indexLen
}

// Lookup returns the first entry with the given path.
func (a *Archive) Lookup(path string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// Extract copies the payload of e to w and returns the bytes written.
// e must describe a range inside the data region.
func (a *Archive) Extract(ctx context.Context, e Entry, w io.Writer) (int64, error) {
	if err := e.Validate(a.dataEnd); err != nil {
		return 0, err
	}
	return a.extract(ctx, e, w, make([]byte, min(e.Size, int64(a.cfg.chunkSize))), nil)
}

// extract copies a validated entry's payload to w using buf.
func (a *Archive) extract(ctx context.Context, e Entry, w io.Writer, buf []byte, onChunk ioutil.ChunkFunc) (int64, error) {
	sr := io.NewSectionReader(a.r, e.Offset, e.Size)
	return ioutil.CopyN(ctx, w, sr, e.Size, buf, onChunk)
}

// ArchiveFile is an Archive backed by an open file.
type ArchiveFile struct {
	*Archive
	f *os.File
}

// Open opens the container at path and reads its index.
// The returned ArchiveFile must be closed to release the file handle.
func Open(path string, opts ...Option) (*ArchiveFile, error) {
	return openFile(path, newConfig(opts))
}

func openFile(path string, cfg config) (*ArchiveFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	a, err := newArchive(f, info.Size(), cfg)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &ArchiveFile{Archive: a, f: f}, nil
}

// Close releases the underlying file handle.
func (af *ArchiveFile) Close() error {
	return af.f.Close()
}
