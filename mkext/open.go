// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkext

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

// OpenedArchive is an mkext whose header and index have been read.
type OpenedArchive struct {
	r io.ReaderAt

	Header  mkextdata.Header
	Entries []mkextdata.Entry
}

// VerifyStateEnum allows you to control how Open will verify the archive
// checksum. It defaults to VerifyEarly.
type VerifyStateEnum int

// Valid values of VerifyStateEnum
const (
	// Checksum verification will occur when calling Open()
	VerifyEarly VerifyStateEnum = iota

	// Checksum verification will be skipped.
	VerifyNever
)

type openOptionData struct {
	verifyState VerifyStateEnum
}

// OpenOption functions can be supplied to the Open function
type OpenOption func(*openOptionData)

// WithVerification allows you to dictate whether the checksum in the archive
// is verified.
func WithVerification(val VerifyStateEnum) OpenOption {
	return func(o *openOptionData) {
		o.verifyState = val
	}
}

// Open reads the header and index of the size byte archive in r.
//
// Every blob must lie after the index, start on a 32 byte boundary and end
// inside the archive. Unless VerifyNever is given, the checksum is checked too.
func Open(r io.ReaderAt, size int64, options ...OpenOption) (ret *OpenedArchive, err error) {
	opts := openOptionData{}
	for _, o := range options {
		o(&opts)
	}

	sr := io.NewSectionReader(r, 0, size)
	ar := &OpenedArchive{r: r}
	if ar.Header, err = mkextdata.ReadHeader(sr); err != nil {
		err = errors.Wrap(err, "reading header")
		return
	}
	h := &ar.Header
	if int64(h.Length) != size {
		err = errors.Errorf("length field says %d bytes, archive is %d", h.Length, size)
		return
	}

	bodyOffset := uint64(mkextdata.HeaderSize) + uint64(mkextdata.EntrySize)*uint64(h.NumModules)
	if bodyOffset > uint64(h.Length) {
		err = errors.Errorf("index for %d modules doesn't fit in %d bytes", h.NumModules, h.Length)
		return
	}

	ar.Entries = make([]mkextdata.Entry, h.NumModules)
	for i := range ar.Entries {
		e := &ar.Entries[i]
		if *e, err = mkextdata.ReadEntry(sr); err != nil {
			err = errors.Wrapf(err, "reading index entry %d", i)
			return
		}
		for _, b := range []struct {
			what string
			blob mkextdata.Blob
		}{{"plist", e.Plist}, {"binary", e.Binary}} {
			if err = checkBlob(b.blob, bodyOffset, uint64(h.Length)); err != nil {
				err = errors.Wrapf(err, "module %d %s", i, b.what)
				return
			}
		}
	}

	switch opts.verifyState {
	case VerifyEarly:
		body := io.NewSectionReader(r, mkextdata.HeaderSize, size-mkextdata.HeaderSize)
		if err = mkextdata.VerifyChecksum(ar.Header, body); err != nil {
			return
		}
	case VerifyNever:
	default:
		panic(fmt.Sprintf("unknown verification state 0x%x", opts.verifyState))
	}

	ret = ar
	return
}

func checkBlob(b mkextdata.Blob, bodyOffset, length uint64) error {
	switch {
	case uint64(b.Offset) < bodyOffset:
		return errors.Errorf("offset %d is inside the header or index", b.Offset)
	case b.Offset%mkextdata.Alignment != 0:
		return errors.Errorf("offset %d is not %d byte aligned", b.Offset, mkextdata.Alignment)
	case b.End() > length:
		return errors.Errorf("%d bytes at %d run past the end (%d)", b.CompressedSize, b.Offset, length)
	}
	return nil
}

// Blob returns the compressed plist and binary of module i, exactly as stored.
func (a *OpenedArchive) Blob(i int) (plist, binary []byte, err error) {
	if i < 0 || i >= len(a.Entries) {
		return nil, nil, errors.Errorf("module %d out of range [0, %d)", i, len(a.Entries))
	}
	read := func(b mkextdata.Blob) ([]byte, error) {
		buf := make([]byte, b.CompressedSize)
		n, err := a.r.ReadAt(buf, int64(b.Offset))
		if n == len(buf) {
			// ReaderAt may report io.EOF alongside a full read at the end.
			err = nil
		}
		return buf, err
	}
	if plist, err = read(a.Entries[i].Plist); err != nil {
		return nil, nil, errors.Wrapf(err, "reading module %d plist", i)
	}
	if binary, err = read(a.Entries[i].Binary); err != nil {
		return nil, nil, errors.Wrapf(err, "reading module %d binary", i)
	}
	return
}
