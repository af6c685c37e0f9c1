// Package testutil provides fixtures for archive tests.
package testutil

import (
	_ "crypto/sha256" // register digest.Canonical
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"
)

// File is a named fixture payload.
type File struct {
	Name string
	Data []byte
}

// WriteFiles writes files under dir and returns their paths in order.
func WriteFiles(tb testing.TB, dir string, files ...File) []string {
	tb.Helper()
	paths := make([]string, len(files))
	for i, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(tb, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(tb, os.WriteFile(p, f.Data, 0o600))
		paths[i] = p
	}
	return paths
}

// FileDigest returns the canonical digest of the file at path.
func FileDigest(tb testing.TB, path string) digest.Digest {
	tb.Helper()
	data, err := os.ReadFile(path)
	require.NoError(tb, err)
	return digest.FromBytes(data)
}

// RawRecord is an index record laid out by hand, independent of the codec.
type RawRecord struct {
	Path   string
	Size   int64
	Offset int64
}

// AutoTrailer makes BuildContainer store the real index length.
const AutoTrailer int64 = math.MinInt64

// BuildContainer lays out data, the records, and a trailer holding
// trailerValue (or the real index length for AutoTrailer).
func BuildContainer(data []byte, records []RawRecord, trailerValue int64) []byte {
	out := append([]byte(nil), data...)
	start := len(out)
	for _, r := range records {
		out = binary.LittleEndian.AppendUint64(out, uint64(len(r.Path)))
		out = append(out, r.Path...)
		out = binary.LittleEndian.AppendUint64(out, uint64(r.Size))   //nolint:gosec // test fixture
		out = binary.LittleEndian.AppendUint64(out, uint64(r.Offset)) //nolint:gosec // test fixture
	}
	if trailerValue == AutoTrailer {
		trailerValue = int64(len(out) - start)
	}
	return binary.LittleEndian.AppendUint64(out, uint64(trailerValue)) //nolint:gosec // test fixture
}

// MockByteSource implements io.ReaderAt over an in-memory container.
type MockByteSource struct {
	data []byte
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}
