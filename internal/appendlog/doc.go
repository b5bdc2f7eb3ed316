// Package appendlog implements durable append-only record files guarded by
// an exclusive inter-process lock.
//
// A file is a sequence of records:
//
//	length (u32 big endian) | checksum (4 bytes) | payload
//
// where the checksum is the first four bytes of the BLAKE3 hash of the
// payload. A truncated record or a checksum mismatch is reported as
// ErrCorruptedRecord; a file that ends exactly on a record boundary
// yields io.EOF.
package appendlog
