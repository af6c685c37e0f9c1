// Package format defines the zp2 container layout and its codec.
//
// A container is laid out as:
//
//	[payload 1][payload 2]...[payload N]   data region
//	[record 1][record 2]...[record N]      index region
//	[int64 index length]                   trailer
//
// Each record is:
//
//	[uint64 pathLen][path bytes][int64 size][int64 offset]
//
// All integers are little-endian and fixed at 64 bits. The index has no entry
// count; it is delimited only by the trailer's byte length, so decoders must
// stop exactly when the consumed byte count reaches that length.
//
// The package performs no file I/O policy of its own. Range validation of the
// payloads described by the index is exposed through [Entry.Validate] and is
// the caller's responsibility.
package format
