package zp2

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_AddDeduplicates(t *testing.T) {
	t.Parallel()

	e := New()
	require.NoError(t, e.Add("a.txt"))
	require.NoError(t, e.Add("b.txt"))
	require.NoError(t, e.Add("a.txt"))

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, []Entry{{Path: "a.txt"}, {Path: "b.txt"}}, e.Entries())
}

func TestEngine_AddEmptyPath(t *testing.T) {
	t.Parallel()

	e := New()
	require.ErrorIs(t, e.Add(""), ErrEmptyPath)
	require.ErrorIs(t, e.AddSource("", stringSource("x")), ErrEmptyPath)
	assert.Zero(t, e.Len())
}

func TestEngine_AddSourceFirstRegistrationWins(t *testing.T) {
	t.Parallel()

	e := New()
	require.NoError(t, e.AddSource("a.txt", stringSource("first")))
	require.NoError(t, e.Add("a.txt"))
	require.NoError(t, e.AddSource("a.txt", stringSource("second")))
	require.Error(t, e.AddSource("b.txt", nil))

	require.Equal(t, 1, e.Len())
	rc, size, err := e.openSource(e.sources[0])
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.Equal(t, "first", string(data))
}

func TestEngine_EntriesIsACopy(t *testing.T) {
	t.Parallel()

	e := New()
	require.NoError(t, e.Add("a.txt"))
	entries := e.Entries()
	entries[0].Path = "mutated"

	assert.Equal(t, "a.txt", e.Entries()[0].Path)
}

func TestProgressStage_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "packing", StagePacking.String())
	assert.Equal(t, "writing index", StageWritingIndex.String())
	assert.Equal(t, "reading index", StageReadingIndex.String())
	assert.Equal(t, "extracting", StageExtracting.String())
	assert.Equal(t, "unknown", ProgressStage(99).String())
}

// stringSource returns an OpenFunc serving s.
func stringSource(s string) OpenFunc {
	return func() (io.ReadCloser, int64, error) {
		return io.NopCloser(strings.NewReader(s)), int64(len(s)), nil
	}
}
