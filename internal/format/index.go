package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TrailerSize is the size of the trailer holding the index length.
const TrailerSize = 8

// AppendIndex appends the records for entries, in order, to b.
func AppendIndex(b []byte, entries []Entry) []byte {
	for _, e := range entries {
		b = AppendRecord(b, e)
	}
	return b
}

// IndexLen returns the encoded size of the index for entries.
func IndexLen(entries []Entry) int64 {
	var n int64
	for _, e := range entries {
		n += e.EncodedLen()
	}
	return n
}

// DecodeIndex decodes every record in b. Iteration stops exactly when the
// consumed byte count equals len(b); a record straddling the end is an error.
func DecodeIndex(b []byte) ([]Entry, error) {
	var (
		entries  []Entry
		consumed int64
		size     = int64(len(b))
	)
	r := bytes.NewReader(b)
	for consumed < size {
		e, n, err := ReadRecord(r, size-consumed)
		if err != nil {
			return nil, fmt.Errorf("index record %d at byte %d: %w", len(entries), consumed, err)
		}
		entries = append(entries, e)
		consumed += n
	}
	return entries, nil
}

// AppendTrailer appends the trailer for an index of indexLen bytes to b.
func AppendTrailer(b []byte, indexLen int64) []byte {
	return binary.LittleEndian.AppendUint64(b, uint64(indexLen)) //nolint:gosec // two's complement round-trips
}

// ParseTrailer decodes a trailer. b must hold exactly TrailerSize bytes.
func ParseTrailer(b []byte) (int64, error) {
	if len(b) != TrailerSize {
		return 0, fmt.Errorf("%w: trailer is %d bytes, want %d", ErrMalformed, len(b), TrailerSize)
	}
	return int64(binary.LittleEndian.Uint64(b)), nil //nolint:gosec // two's complement round-trips
}

// Locate returns the offset of the index region in a container of
// containerSize bytes whose trailer holds indexLen. The index start is also
// the end of the data region.
func Locate(containerSize, indexLen int64) (int64, error) {
	if containerSize < TrailerSize {
		return 0, fmt.Errorf("%w: %d bytes is smaller than the trailer", ErrMalformed, containerSize)
	}
	if indexLen < 0 || indexLen > containerSize-TrailerSize {
		return 0, fmt.Errorf("%w: index length %d does not fit in %d byte container", ErrMalformed, indexLen, containerSize)
	}
	return containerSize - TrailerSize - indexLen, nil
}
