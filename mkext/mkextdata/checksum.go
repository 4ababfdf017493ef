// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import (
	"fmt"
	"hash"
	"hash/adler32"
	"io"
)

// The archive checksum is Adler-32 with its standard seed of 1, covering every
// byte from checksumStart to the end of the archive.

// ErrMismatchedChecksum is returned when the stored archive checksum doesn't
// match the archive contents.
type ErrMismatchedChecksum struct {
	Nominal uint32
	Actual  uint32
}

func (e *ErrMismatchedChecksum) Error() string {
	return fmt.Sprintf("mismatched checksum: 0x%08x expected 0x%08x", e.Nominal,
		e.Actual)
}

// checksumHash returns a hash which has already consumed the covered part of
// h.
func checksumHash(h Header) hash.Hash32 {
	var tail [HeaderSize - checksumStart]byte
	h.putTail(tail[:])
	sum := adler32.New()
	sum.Write(tail[:])
	return sum
}

// Checksum computes the archive checksum for header h followed by body, where
// body is everything after the header.
func Checksum(h Header, body []byte) uint32 {
	sum := checksumHash(h)
	sum.Write(body)
	return sum.Sum32()
}

// ArchiveChecksum computes the checksum of a complete, encoded archive.
func ArchiveChecksum(archive []byte) uint32 {
	if len(archive) <= checksumStart {
		return adler32.Checksum(nil)
	}
	return adler32.Checksum(archive[checksumStart:])
}

// VerifyChecksum streams body (everything after the header) through the
// checksum and compares it with h.Checksum.
func VerifyChecksum(h Header, body io.Reader) error {
	sum := checksumHash(h)
	if _, err := io.Copy(sum, body); err != nil {
		return err
	}
	if actual := sum.Sum32(); actual != h.Checksum {
		return &ErrMismatchedChecksum{h.Checksum, actual}
	}
	return nil
}
