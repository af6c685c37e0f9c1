// Package zp2 packs a set of named files into a single container file and
// reconstructs them byte-for-byte.
//
// A container holds the raw payload bytes of every file, concatenated in the
// order the files were added, followed by an index of (path, size, offset)
// records and an 8-byte trailer giving the index length:
//
//	[payload 1]...[payload N][record 1]...[record N][index length]
//
// There is no compression, encryption or checksum in the format; payloads are
// stored verbatim and the index is found by reading the container from the end.
//
// # Packing
//
//	e := zp2.New(zp2.WithLogger(logger))
//	_ = e.Add("a.txt")
//	_ = e.Add("b.txt")
//	stats, err := e.Pack(ctx, "out.zp2")
//
// Sources that cannot be opened at pack time are skipped rather than failing
// the whole archive; [PackStats] reports how many were skipped and which.
//
// # Unpacking
//
//	stats, err := zp2.New(zp2.WithDestDir("restore")).Unpack(ctx, "out.zp2")
//
// The whole index is read and validated before any file is written, so a
// malformed container never produces partial output.
//
// # Inspecting
//
// [Open] returns a read-only view of a container for listing entries,
// extracting single entries, or computing content digests.
package zp2
