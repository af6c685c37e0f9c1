package zp2

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zp2/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic fixture data
	random := make([]byte, 3*1024+17)
	rng.Read(random)

	tests := []struct {
		name      string
		chunkSize int
		files     []testutil.File
	}{
		{
			name:  "single file",
			files: []testutil.File{{Name: "a.txt", Data: []byte("hello")}},
		},
		{
			name: "empty files only",
			files: []testutil.File{
				{Name: "empty1", Data: []byte{}},
				{Name: "empty2", Data: []byte{}},
			},
		},
		{
			name:      "mixed sizes across chunks",
			chunkSize: 1024,
			files: []testutil.File{
				{Name: "random.bin", Data: random},
				{Name: "empty.txt", Data: []byte{}},
				{Name: "zeros.bin", Data: make([]byte, 2048)},
				{Name: "name with spaces.txt", Data: []byte("spaces")},
			},
		},
		{
			name:  "nested path",
			files: []testutil.File{{Name: "dir/inner.txt", Data: []byte("inner")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srcDir := t.TempDir()
			testutil.WriteFiles(t, srcDir, tt.files...)

			packer := New(WithSourceFS(os.DirFS(srcDir)), WithChunkSize(tt.chunkSize))
			for _, f := range tt.files {
				require.NoError(t, packer.Add(f.Name))
			}
			archivePath := filepath.Join(t.TempDir(), "out.zp2")
			pstats, err := packer.Pack(context.Background(), archivePath)
			require.NoError(t, err)
			require.Equal(t, len(tt.files), pstats.FileCount)

			destDir := t.TempDir()
			ustats, err := New(WithDestDir(destDir), WithChunkSize(tt.chunkSize)).Unpack(context.Background(), archivePath)
			require.NoError(t, err)
			assert.Equal(t, pstats.Entries, ustats.Entries)

			for _, f := range tt.files {
				got, err := os.ReadFile(filepath.Join(destDir, filepath.FromSlash(f.Name)))
				require.NoError(t, err)
				assert.Equal(t, f.Data, got, f.Name)
				assert.Equal(t,
					testutil.FileDigest(t, filepath.Join(srcDir, filepath.FromSlash(f.Name))),
					testutil.FileDigest(t, filepath.Join(destDir, filepath.FromSlash(f.Name))))
			}
		})
	}
}

func TestUnpack_MalformedWritesNothing(t *testing.T) {
	t.Parallel()

	data := []byte("hello")
	valid := testutil.RawRecord{Path: "ok.txt", Size: 5, Offset: 0}

	tests := []struct {
		name      string
		container []byte
	}{
		{"smaller than trailer", []byte{1, 2, 3}},
		{"trailer exceeds container", testutil.BuildContainer(data, []testutil.RawRecord{valid}, 1000)},
		{"negative trailer", testutil.BuildContainer(data, []testutil.RawRecord{valid}, -2)},
		{"trailer splits record", testutil.BuildContainer(data, []testutil.RawRecord{valid}, 20)},
		{"entry past data region", testutil.BuildContainer(data, []testutil.RawRecord{
			valid,
			{Path: "bad.txt", Size: 10, Offset: 0},
		}, testutil.AutoTrailer)},
		{"entry reads into index", testutil.BuildContainer(data, []testutil.RawRecord{
			valid,
			{Path: "bad.txt", Size: 3, Offset: 4},
		}, testutil.AutoTrailer)},
		{"empty path", testutil.BuildContainer(data, []testutil.RawRecord{
			valid,
			{Path: "", Size: 1, Offset: 0},
		}, testutil.AutoTrailer)},
		{"negative size", testutil.BuildContainer(data, []testutil.RawRecord{
			valid,
			{Path: "neg.txt", Size: -1, Offset: 0},
		}, testutil.AutoTrailer)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			archivePath := filepath.Join(t.TempDir(), "bad.zp2")
			require.NoError(t, os.WriteFile(archivePath, tt.container, 0o600))

			destDir := t.TempDir()
			_, err := New(WithDestDir(destDir)).Unpack(context.Background(), archivePath)
			require.ErrorIs(t, err, ErrMalformed)

			written, err := os.ReadDir(destDir)
			require.NoError(t, err)
			assert.Empty(t, written)
		})
	}
}

func TestUnpack_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"../pwned.txt", "/etc/pwned.txt", "a/../../pwned.txt"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			container := testutil.BuildContainer([]byte("pwned"), []testutil.RawRecord{
				{Path: "fine.txt", Size: 5, Offset: 0},
				{Path: path, Size: 5, Offset: 0},
			}, testutil.AutoTrailer)
			archivePath := filepath.Join(t.TempDir(), "evil.zp2")
			require.NoError(t, os.WriteFile(archivePath, container, 0o600))

			root := t.TempDir()
			destDir := filepath.Join(root, "dest")
			_, err := New(WithDestDir(destDir)).Unpack(context.Background(), archivePath)
			require.ErrorIs(t, err, ErrUnsafePath)

			_, statErr := os.Stat(filepath.Join(destDir, "fine.txt"))
			require.ErrorIs(t, statErr, os.ErrNotExist)
			_, statErr = os.Stat(filepath.Join(root, "pwned.txt"))
			require.ErrorIs(t, statErr, os.ErrNotExist)
		})
	}
}

func TestUnpack_IndexTooLarge(t *testing.T) {
	t.Parallel()

	container := testutil.BuildContainer([]byte("abc"), []testutil.RawRecord{
		{Path: "abc.txt", Size: 3, Offset: 0},
	}, testutil.AutoTrailer)
	archivePath := filepath.Join(t.TempDir(), "out.zp2")
	require.NoError(t, os.WriteFile(archivePath, container, 0o600))

	_, err := New(WithDestDir(t.TempDir()), WithMaxIndexSize(10)).Unpack(context.Background(), archivePath)
	require.ErrorIs(t, err, ErrIndexTooLarge)
}

func TestUnpack_MissingContainer(t *testing.T) {
	t.Parallel()

	_, err := New().Unpack(context.Background(), filepath.Join(t.TempDir(), "nope.zp2"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnpack_ReplacesExistingFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	packer := New()
	require.NoError(t, packer.AddSource("a.txt", stringSource("new")))
	_, err := packer.PackTo(context.Background(), &buf)
	require.NoError(t, err)
	archivePath := filepath.Join(t.TempDir(), "out.zp2")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o600))

	destDir := t.TempDir()
	target := filepath.Join(destDir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("much longer old content"), 0o600))

	_, err = New(WithDestDir(destDir)).Unpack(context.Background(), archivePath)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestUnpack_LeavesEntrySetAlone(t *testing.T) {
	t.Parallel()

	src := fstest.MapFS{"x": {Data: []byte("x")}}
	packer := New(WithSourceFS(src))
	require.NoError(t, packer.Add("x"))
	archivePath := filepath.Join(t.TempDir(), "out.zp2")
	_, err := packer.Pack(context.Background(), archivePath)
	require.NoError(t, err)

	e := New(WithDestDir(t.TempDir()))
	require.NoError(t, e.Add("registered-only"))
	stats, err := e.Unpack(context.Background(), archivePath)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{Path: "x", Size: 1, Offset: 0}}, stats.Entries)
	assert.Equal(t, []Entry{{Path: "registered-only"}}, e.Entries())
}

func TestUnpack_ReportsProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	packer := New()
	require.NoError(t, packer.AddSource("a", stringSource("abcdef")))
	require.NoError(t, packer.AddSource("b", stringSource("")))
	_, err := packer.PackTo(context.Background(), &buf)
	require.NoError(t, err)
	archivePath := filepath.Join(t.TempDir(), "out.zp2")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o600))

	var extracting []ProgressEvent
	sawIndex := false
	e := New(WithDestDir(t.TempDir()), WithChunkSize(4), WithProgress(func(ev ProgressEvent) {
		switch ev.Stage {
		case StageReadingIndex:
			sawIndex = true
		case StageExtracting:
			extracting = append(extracting, ev)
		}
	}))
	_, err = e.Unpack(context.Background(), archivePath)
	require.NoError(t, err)

	assert.True(t, sawIndex)
	require.Len(t, extracting, 4)
	assert.Equal(t, ProgressEvent{Stage: StageExtracting, Path: "a", BytesDone: 0, BytesTotal: 6, FilesDone: 0, FilesTotal: 2}, extracting[0])
	assert.Equal(t, int64(4), extracting[1].BytesDone)
	assert.Equal(t, int64(6), extracting[2].BytesDone)
	assert.Equal(t, ProgressEvent{Stage: StageExtracting, Path: "b", BytesDone: 0, BytesTotal: 0, FilesDone: 1, FilesTotal: 2}, extracting[3])
}

func TestUnpack_Canceled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	packer := New()
	require.NoError(t, packer.AddSource("a", stringSource("a")))
	_, err := packer.PackTo(context.Background(), &buf)
	require.NoError(t, err)
	archivePath := filepath.Join(t.TempDir(), "out.zp2")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	destDir := t.TempDir()
	_, err = New(WithDestDir(destDir)).Unpack(ctx, archivePath)
	require.ErrorIs(t, err, context.Canceled)

	written, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, written)
}
