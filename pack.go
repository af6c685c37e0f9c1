package zp2

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/meigma/zp2/internal/format"
	"github.com/meigma/zp2/internal/ioutil"
)

// Pack writes a container holding every registered entry to dest.
//
// dest is created or replaced. The container is written to a temp file in
// the same directory and renamed into place on success, so a failed Pack
// leaves no truncated archive behind.
//
// Entries whose source cannot be opened are skipped; see PackTo.
func (e *Engine) Pack(ctx context.Context, dest string) (*PackStats, error) {
	var stats *PackStats
	err := writeFileAtomic(dest, func(w io.Writer) error {
		var packErr error
		stats, packErr = e.PackTo(ctx, w)
		return packErr
	})
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", dest, err)
	}
	return stats, nil
}

// PackTo writes a container holding every registered entry to w, which is
// treated as the start of the container.
//
// Entries are processed in registration order. A source that cannot be opened
// (or is not a regular file) is skipped: it appears neither in the data
// region nor in the index, and is reported in PackStats.SkippedPaths. Any
// other failure, including a source shorter than its reported size, aborts
// the pack.
//
// The Engine's Entry Set is not modified; the packed offsets and sizes are
// returned in PackStats.Entries.
func (e *Engine) PackTo(ctx context.Context, w io.Writer) (*PackStats, error) {
	log := e.cfg.log()
	log.Info("packing archive", "entries", len(e.sources))

	cw := &ioutil.CountingWriter{W: destWriter{w}}
	buf := make([]byte, e.cfg.chunkSize)
	stats := &PackStats{Entries: make([]Entry, 0, len(e.sources))}

	for _, s := range e.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok, err := e.packEntry(ctx, cw, buf, s, len(stats.Entries))
		if err != nil {
			return nil, err
		}
		if !ok {
			stats.Skipped++
			stats.SkippedPaths = append(stats.SkippedPaths, s.path)
			continue
		}
		stats.Entries = append(stats.Entries, entry)
	}
	stats.FileCount = len(stats.Entries)
	stats.DataBytes = cw.N

	e.cfg.reportProgress(StageWritingIndex, "", 0, format.IndexLen(stats.Entries), stats.FileCount, stats.FileCount)
	indexLen, err := writeIndex(cw, stats.Entries)
	if err != nil {
		return nil, err
	}
	stats.IndexBytes = indexLen

	log.Info("archive packed",
		"file_count", stats.FileCount,
		"skipped", stats.Skipped,
		"data_size", stats.DataBytes,
		"index_size", stats.IndexBytes)
	return stats, nil
}

// packEntry copies one source into the data region. It returns ok=false when
// the source could not be opened and should be skipped.
func (e *Engine) packEntry(ctx context.Context, cw *ioutil.CountingWriter, buf []byte, s source, filesDone int) (Entry, bool, error) {
	log := e.cfg.log()

	rc, size, err := e.openSource(s)
	if err != nil {
		log.Debug("skipped source", "path", s.path, "error", err)
		return Entry{}, false, nil
	}
	defer rc.Close()

	entry := Entry{Path: s.path, Size: size, Offset: cw.N}
	filesTotal := len(e.sources)
	e.cfg.reportProgress(StagePacking, s.path, 0, size, filesDone, filesTotal)
	_, err = ioutil.CopyN(ctx, cw, rc, size, buf, func(done int64) {
		e.cfg.reportProgress(StagePacking, s.path, done, size, filesDone, filesTotal)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("copy %s: %w", s.path, err)
	}

	log.Debug("packed entry", "path", entry.Path, "size", entry.Size, "offset", entry.Offset)
	return entry, true, nil
}

// writeIndex writes the records for entries followed by the trailer and
// returns the index length. The trailer holds the number of record bytes
// actually written.
func writeIndex(w io.Writer, entries []Entry) (int64, error) {
	bw := bufio.NewWriter(w)
	var indexLen int64
	for _, entry := range entries {
		n, err := format.WriteRecord(bw, entry)
		if err != nil {
			return 0, fmt.Errorf("write index record %s: %w", entry.Path, err)
		}
		indexLen += n
	}
	if _, err := bw.Write(format.AppendTrailer(nil, indexLen)); err != nil {
		return 0, fmt.Errorf("write trailer: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush index: %w", err)
	}
	return indexLen, nil
}
