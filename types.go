package zp2

import "github.com/meigma/zp2/internal/format"

// Entry describes one file inside a container: its path, payload size and the
// payload's byte offset from the start of the container.
type Entry = format.Entry

// PackStats summarizes a pack operation.
type PackStats struct {
	// Entries lists the packed entries in container order, with final
	// sizes and offsets.
	Entries []Entry

	// FileCount is the number of entries written.
	FileCount int

	// Skipped is the number of registered entries whose source could not
	// be opened.
	Skipped int

	// SkippedPaths lists the skipped entries in registration order.
	SkippedPaths []string

	// DataBytes is the size of the data region.
	DataBytes int64

	// IndexBytes is the size of the index region, as stored in the trailer.
	IndexBytes int64
}

// UnpackStats summarizes an unpack operation.
type UnpackStats struct {
	// Entries lists the extracted entries in container order.
	Entries []Entry

	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the number of payload bytes written.
	TotalBytes int64
}
