package ioutil

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the buffer size used for bulk payload transfer.
const DefaultChunkSize = 1 << 20

// ErrShortRead is returned when a source ends before the requested number of
// bytes was read. It always wraps io.ErrUnexpectedEOF as well.
var ErrShortRead = errors.New("zp2: short read")

// ChunkFunc is called after every chunk with the running byte count.
type ChunkFunc func(done int64)

// CopyN copies exactly n bytes from src to dst, one chunk of len(buf) bytes at
// a time; the final chunk is sized to the remainder. It returns the number of
// bytes written.
//
// If src is exhausted first, CopyN returns ErrShortRead. Write failures are
// returned as-is so callers can tell a bad source from a bad sink. The context
// is checked between chunks.
func CopyN(ctx context.Context, dst io.Writer, src io.Reader, n int64, buf []byte, onChunk ChunkFunc) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative copy length %d", n)
	}
	if len(buf) == 0 {
		buf = make([]byte, min(n, DefaultChunkSize))
	}

	var written int64
	for written < n {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk := min(int64(len(buf)), n-written)
		nr, er := io.ReadFull(src, buf[:chunk])
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if errors.Is(er, io.EOF) || errors.Is(er, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortRead, written, n, io.ErrUnexpectedEOF)
			}
			return written, er
		}
		if onChunk != nil {
			onChunk(written)
		}
	}
	return written, nil
}
