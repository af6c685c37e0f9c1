package format

import (
	"errors"
	"fmt"

	"github.com/meigma/zp2/internal/sizing"
)

// ErrMalformed is returned when a container's trailer or index is inconsistent.
var ErrMalformed = errors.New("zp2: malformed archive")

// RecordFixedSize is the encoded size of a record excluding the path bytes.
const RecordFixedSize = 8 + 8 + 8

// Entry describes one file stored in a container.
type Entry struct {
	// Path identifies the file and is its destination on unpack.
	Path string

	// Size is the payload length in bytes.
	Size int64

	// Offset is the position of the payload's first byte, measured from the
	// start of the container.
	Offset int64
}

// EncodedLen returns the number of bytes the entry occupies in the index.
func (e Entry) EncodedLen() int64 {
	return RecordFixedSize + int64(len(e.Path))
}

// End returns Offset+Size, or false if the range is negative or overflows.
func (e Entry) End() (int64, bool) {
	return sizing.AddInt64(e.Offset, e.Size)
}

// Validate checks that the entry has a path and that its payload range lies
// within [0, dataEnd).
func (e Entry) Validate(dataEnd int64) error {
	if e.Path == "" {
		return fmt.Errorf("%w: empty path", ErrMalformed)
	}
	end, ok := e.End()
	if !ok {
		return fmt.Errorf("%w: %s: invalid range offset=%d size=%d", ErrMalformed, e.Path, e.Offset, e.Size)
	}
	if end > dataEnd {
		return fmt.Errorf("%w: %s: range [%d, %d) exceeds data region of %d bytes", ErrMalformed, e.Path, e.Offset, end, dataEnd)
	}
	return nil
}
