package zp2

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Unpack recreates every file stored in the container at src.
//
// The trailer and the whole index are read and validated, and every target
// path is resolved, before any file is written; a malformed container fails
// with ErrMalformed and produces no output. Entries are then extracted in
// container order. Each target is created or replaced via a temp file and
// rename, so a failure never leaves a partially written file at its path.
//
// Targets are the stored paths relative to the working directory, or beneath
// the WithDestDir directory when one is set. Unpack never reads or modifies
// the Engine's registered entries.
func (e *Engine) Unpack(ctx context.Context, src string) (*UnpackStats, error) {
	log := e.cfg.log()
	log.Info("unpacking archive", "path", src)

	af, err := openFile(src, e.cfg)
	if err != nil {
		return nil, err
	}
	defer af.Close()

	entries := af.Entries()
	targets := make([]string, len(entries))
	for i, entry := range entries {
		target, err := e.targetPath(entry.Path)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	buf := make([]byte, e.cfg.chunkSize)
	stats := &UnpackStats{Entries: entries}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.unpackEntry(ctx, af.Archive, entry, targets[i], buf, i, len(entries)); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", entry.Path, err)
		}
		stats.FileCount++
		stats.TotalBytes += entry.Size
	}

	log.Info("archive unpacked", "path", src, "file_count", stats.FileCount, "total_bytes", stats.TotalBytes)
	return stats, nil
}

func (e *Engine) unpackEntry(ctx context.Context, a *Archive, entry Entry, target string, buf []byte, filesDone, filesTotal int) error {
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: create directory %s: %w", ErrDestination, dir, err)
		}
	}

	e.cfg.reportProgress(StageExtracting, entry.Path, 0, entry.Size, filesDone, filesTotal)
	err := writeFileAtomic(target, func(w io.Writer) error {
		_, err := a.extract(ctx, entry, w, buf, func(done int64) {
			e.cfg.reportProgress(StageExtracting, entry.Path, done, entry.Size, filesDone, filesTotal)
		})
		return err
	})
	if err != nil {
		return err
	}

	e.cfg.log().Debug("extracted entry", "path", entry.Path, "target", target, "size", entry.Size)
	return nil
}

// targetPath resolves where an entry is written.
func (e *Engine) targetPath(path string) (string, error) {
	if e.cfg.destDir == "" {
		return filepath.FromSlash(path), nil
	}
	rel := filepath.FromSlash(path)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, path)
	}
	return filepath.Join(e.cfg.destDir, rel), nil
}
