// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// These constants identify an mkext version 1 archive.
const (
	Magic     uint32 = 0x4D4B5854 // 'MKXT'
	Signature uint32 = 0x4D4F5358 // 'MOSX'
	Version   uint32 = 0x01008000 // v1.0.0

	// CPUAny is written for both the cpu type and subtype; fat archives are
	// not produced.
	CPUAny int32 = -1
)

// HeaderSize is the encoded size of Header.
const HeaderSize = 32

// checksumStart is the first byte covered by the archive checksum; it
// immediately follows the checksum field.
const checksumStart = 16

var (
	// ErrBadMagic is returned by ReadHeader when the magic or signature don't
	// match an mkext.
	ErrBadMagic = errors.New("not an mkext archive")

	// ErrUnsupportedVersion is returned by ReadHeader for any version other than
	// Version.
	ErrUnsupportedVersion = errors.New("unsupported mkext version")
)

// Header is the fixed-size prefix of an mkext archive.
type Header struct {
	Magic      uint32
	Signature  uint32
	Length     uint32
	Checksum   uint32
	Version    uint32
	NumModules uint32
	CPUType    int32
	CPUSubtype int32
}

// NewHeader returns the header for an archive of the given length holding
// numModules modules. Checksum is left zero.
func NewHeader(length, numModules uint32) Header {
	return Header{
		Magic:      Magic,
		Signature:  Signature,
		Length:     length,
		Version:    Version,
		NumModules: numModules,
		CPUType:    CPUAny,
		CPUSubtype: CPUAny,
	}
}

// Put encodes h into the first HeaderSize bytes of buf.
func (h Header) Put(buf []byte) {
	_ = buf[HeaderSize-1]
	binary.BigEndian.PutUint32(buf[0:], h.Magic)
	binary.BigEndian.PutUint32(buf[4:], h.Signature)
	binary.BigEndian.PutUint32(buf[8:], h.Length)
	binary.BigEndian.PutUint32(buf[12:], h.Checksum)
	h.putTail(buf[checksumStart:])
}

// putTail encodes the fields which follow the checksum, i.e. the part of the
// header that the checksum covers.
func (h Header) putTail(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:], h.Version)
	binary.BigEndian.PutUint32(buf[4:], h.NumModules)
	binary.BigEndian.PutUint32(buf[8:], uint32(h.CPUType))
	binary.BigEndian.PutUint32(buf[12:], uint32(h.CPUSubtype))
}

// Write writes the encoded header to w.
func (h Header) Write(w io.Writer) error {
	var buf [HeaderSize]byte
	h.Put(buf[:])
	_, err := w.Write(buf[:])
	return err
}

// ReadHeader reads and validates an mkext header from r.
func ReadHeader(r io.Reader) (h Header, err error) {
	var raw [HeaderSize]byte
	if _, err = io.ReadFull(r, raw[:]); err != nil {
		return
	}
	b := readBuf(raw[:])
	h = Header{
		Magic:      b.uint32(),
		Signature:  b.uint32(),
		Length:     b.uint32(),
		Checksum:   b.uint32(),
		Version:    b.uint32(),
		NumModules: b.uint32(),
		CPUType:    int32(b.uint32()),
		CPUSubtype: int32(b.uint32()),
	}

	if h.Magic != Magic || h.Signature != Signature {
		err = errors.Wrapf(ErrBadMagic, "magic 0x%08x, signature 0x%08x", h.Magic, h.Signature)
		return
	}
	if h.Version != Version {
		err = errors.Wrapf(ErrUnsupportedVersion, "0x%08x", h.Version)
		return
	}
	return
}
