package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/zp2/internal/sizing"
)

// AppendRecord appends the encoded record for e to b.
func AppendRecord(b []byte, e Entry) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(len(e.Path)))
	b = append(b, e.Path...)
	b = binary.LittleEndian.AppendUint64(b, uint64(e.Size))   //nolint:gosec // two's complement round-trips
	b = binary.LittleEndian.AppendUint64(b, uint64(e.Offset)) //nolint:gosec // two's complement round-trips
	return b
}

// WriteRecord writes the encoded record for e to w and returns the bytes written.
func WriteRecord(w io.Writer, e Entry) (int64, error) {
	n, err := w.Write(AppendRecord(make([]byte, 0, e.EncodedLen()), e))
	return int64(n), err
}

// ReadRecord consumes exactly one record from r.
//
// remaining is the number of index bytes left before the index boundary; a
// record that would extend past it is rejected with ErrMalformed. ReadRecord
// returns the decoded entry and the number of bytes consumed. It does not
// validate the payload range the entry describes.
func ReadRecord(r io.Reader, remaining int64) (Entry, int64, error) {
	if remaining < RecordFixedSize {
		return Entry{}, 0, fmt.Errorf("%w: %d index bytes left, record needs at least %d", ErrMalformed, remaining, RecordFixedSize)
	}

	var word [8]byte
	if err := readFull(r, word[:]); err != nil {
		return Entry{}, 0, fmt.Errorf("read path length: %w", err)
	}
	pathLen, err := sizing.ToInt64(binary.LittleEndian.Uint64(word[:]), ErrMalformed)
	if err != nil {
		return Entry{}, 0, fmt.Errorf("path length: %w", err)
	}
	if pathLen > remaining-RecordFixedSize {
		return Entry{}, 0, fmt.Errorf("%w: path length %d runs past index boundary", ErrMalformed, pathLen)
	}

	path := make([]byte, pathLen)
	if err := readFull(r, path); err != nil {
		return Entry{}, 0, fmt.Errorf("read path: %w", err)
	}

	var tail [16]byte
	if err := readFull(r, tail[:]); err != nil {
		return Entry{}, 0, fmt.Errorf("read size and offset: %w", err)
	}

	e := Entry{
		Path:   string(path),
		Size:   int64(binary.LittleEndian.Uint64(tail[:8])), //nolint:gosec // two's complement round-trips
		Offset: int64(binary.LittleEndian.Uint64(tail[8:])), //nolint:gosec // two's complement round-trips
	}
	return e, e.EncodedLen(), nil
}

// readFull is io.ReadFull with truncation reported as ErrMalformed.
func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
		}
		return err
	}
	return nil
}
