package zp2

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileMode is applied to containers and extracted files before they are
// renamed into place.
const fileMode = 0o644

// writeFileAtomic streams fill's output to a temp file next to target and
// renames it over target once fill succeeds. On any failure the temp file is
// removed and target is left untouched.
//
// Errors creating, writing or committing the file wrap ErrDestination.
func writeFileAtomic(target string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".zp2-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	tmpPath := tmp.Name()

	if err := fill(destWriter{tmp}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	return nil
}

// destWriter tags write failures with ErrDestination so they can be told
// apart from source read failures.
type destWriter struct {
	w io.Writer
}

func (d destWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if err != nil && !errors.Is(err, ErrDestination) {
		err = fmt.Errorf("%w: %w", ErrDestination, err)
	}
	return n, err
}
