package zp2

// ProgressEvent represents a progress update during pack or unpack.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of bytes completed for the current entry.
	BytesDone int64

	// BytesTotal is the size of the current entry.
	BytesTotal int64

	// FilesDone is the number of entries completed.
	FilesDone int

	// FilesTotal is the total number of entries.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for pack and unpack.
const (
	// StagePacking indicates payload bytes are being copied into the container.
	StagePacking ProgressStage = iota

	// StageWritingIndex indicates the index and trailer are being written.
	StageWritingIndex

	// StageReadingIndex indicates the trailer and index are being read.
	StageReadingIndex

	// StageExtracting indicates payload bytes are being copied out to files.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StagePacking:
		return "packing"
	case StageWritingIndex:
		return "writing index"
	case StageReadingIndex:
		return "reading index"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
type ProgressFunc func(ProgressEvent)
