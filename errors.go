package zp2

import (
	"errors"

	"github.com/meigma/zp2/internal/format"
	"github.com/meigma/zp2/internal/ioutil"
)

// Sentinel errors for archive operations.
var (
	// ErrEmptyPath is returned when adding an entry with an empty path.
	ErrEmptyPath = errors.New("zp2: empty path")

	// ErrMalformed is returned when a container's trailer or index is
	// inconsistent, or an entry describes bytes outside the data region.
	ErrMalformed = format.ErrMalformed

	// ErrShortRead is returned when a source ends before its recorded size.
	ErrShortRead = ioutil.ErrShortRead

	// ErrIndexTooLarge is returned when a container's index exceeds the
	// configured maximum.
	ErrIndexTooLarge = errors.New("zp2: index too large")

	// ErrDestination is returned when an output file cannot be created or written.
	ErrDestination = errors.New("zp2: destination not writable")

	// ErrUnsafePath is returned when an entry path would escape the
	// destination directory.
	ErrUnsafePath = errors.New("zp2: unsafe entry path")
)
