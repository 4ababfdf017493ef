// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import "io"

// EntrySize is the encoded size of Entry.
const EntrySize = 32

// Blob locates one compressed file inside the archive.
type Blob struct {
	// Offset is the absolute offset of the compressed bytes.
	Offset uint32

	// CompressedSize is the number of compressed bytes at Offset, not counting
	// alignment padding.
	CompressedSize uint32

	// FullSize is the size of the file before compression.
	FullSize uint32

	// Reserved is always written as zero.
	Reserved uint32
}

// End returns the offset one past the last compressed byte.
func (b Blob) End() uint64 {
	return uint64(b.Offset) + uint64(b.CompressedSize)
}

// Entry is the per-module index slot following the header.
type Entry struct {
	Plist  Blob
	Binary Blob
}

// Put encodes e into the first EntrySize bytes of buf.
func (e Entry) Put(buf []byte) {
	_ = buf[EntrySize-1]
	w := writeBuf(buf)
	for _, b := range [...]Blob{e.Plist, e.Binary} {
		w.uint32(b.Offset)
		w.uint32(b.CompressedSize)
		w.uint32(b.FullSize)
		w.uint32(b.Reserved)
	}
}

// ReadEntry reads one index entry from r.
func ReadEntry(r io.Reader) (e Entry, err error) {
	var raw [EntrySize]byte
	if _, err = io.ReadFull(r, raw[:]); err != nil {
		return
	}
	b := readBuf(raw[:])
	for _, blob := range [...]*Blob{&e.Plist, &e.Binary} {
		blob.Offset = b.uint32()
		blob.CompressedSize = b.uint32()
		blob.FullSize = b.uint32()
		blob.Reserved = b.uint32()
	}
	return
}
