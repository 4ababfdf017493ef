// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import (
	"math"

	"github.com/pkg/errors"
)

// Alignment is the boundary every blob starts on.
const Alignment = 32

// ErrOverflow is returned when an archive would not fit the 32-bit offsets and
// sizes of the format.
var ErrOverflow = errors.New("mkext exceeds 32-bit limits")

// Align32 rounds n up to the next multiple of Alignment.
func Align32(n uint64) uint64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// CompressedFile is one LZSS-compressed file together with its original size.
type CompressedFile struct {
	Data     []byte
	FullSize int
}

// CompressedModule is the input to Plan and Assemble for a single module.
type CompressedModule struct {
	Plist  CompressedFile
	Binary CompressedFile
}

// Layout is the complete placement of an archive, computed before any byte is
// written.
type Layout struct {
	// Length is the total archive size.
	Length uint32

	// Entries holds one index entry per module, in module order.
	Entries []Entry
}

// Plan computes the Layout for modules. Blobs are placed in module order,
// plist before binary, each starting on an Alignment boundary.
func Plan(modules []CompressedModule) (*Layout, error) {
	l := &Layout{Entries: make([]Entry, len(modules))}

	cursor := uint64(HeaderSize) + uint64(EntrySize)*uint64(len(modules))
	if cursor > math.MaxUint32 {
		return nil, errors.Wrapf(ErrOverflow, "index for %d modules", len(modules))
	}

	place := func(i int, what string, f CompressedFile) (Blob, error) {
		if uint64(f.FullSize) > math.MaxUint32 {
			return Blob{}, errors.Wrapf(ErrOverflow, "module %d %s: full size %d", i, what, f.FullSize)
		}
		b := Blob{
			Offset:         uint32(cursor),
			CompressedSize: uint32(len(f.Data)),
			FullSize:       uint32(f.FullSize),
		}
		cursor += Align32(uint64(len(f.Data)))
		if cursor > math.MaxUint32 {
			return Blob{}, errors.Wrapf(ErrOverflow, "module %d %s: archive reaches %d bytes", i, what, cursor)
		}
		return b, nil
	}

	var err error
	for i, m := range modules {
		e := &l.Entries[i]
		if e.Plist, err = place(i, "plist", m.Plist); err != nil {
			return nil, err
		}
		if e.Binary, err = place(i, "binary", m.Binary); err != nil {
			return nil, err
		}
	}

	l.Length = uint32(cursor)
	return l, nil
}
