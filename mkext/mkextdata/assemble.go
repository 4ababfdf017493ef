// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

// Assemble lays out modules and returns the complete archive.
//
// The index entries and blobs are written first; the header is written last,
// once its checksum is known. Padding between blobs is left zero.
func Assemble(modules []CompressedModule) ([]byte, error) {
	l, err := Plan(modules)
	if err != nil {
		return nil, err
	}
	return l.Emit(modules), nil
}

// Emit writes the archive described by l. modules must be the slice l was
// planned from.
func (l *Layout) Emit(modules []CompressedModule) []byte {
	if len(modules) != len(l.Entries) {
		panic("mkextdata: layout planned for a different module list")
	}

	buf := make([]byte, l.Length)
	for i, m := range modules {
		e := l.Entries[i]
		e.Put(buf[HeaderSize+EntrySize*i:])
		copy(buf[e.Plist.Offset:], m.Plist.Data)
		copy(buf[e.Binary.Offset:], m.Binary.Data)
	}

	h := NewHeader(l.Length, uint32(len(l.Entries)))
	h.Checksum = Checksum(h, buf[HeaderSize:])
	h.Put(buf)
	return buf
}
