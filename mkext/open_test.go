// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkext

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

func TestOpen(tst *testing.T) {
	tst.Parallel()

	mods := mockModules(4)
	mods[2].Binary = nil
	mockArchive, err := Build(context.Background(), mods)
	if err != nil {
		panic(err)
	}

	open := func(data []byte, options ...OpenOption) (*OpenedArchive, error) {
		return Open(bytes.NewReader(data), int64(len(data)), options...)
	}
	clone := func() []byte {
		return append([]byte{}, mockArchive...)
	}

	Convey("Open", tst, func() {
		Convey("standard", func() {
			ar, err := open(mockArchive)
			So(err, ShouldBeNil)
			So(ar.Header.NumModules, ShouldEqual, 4)
			So(ar.Header.Length, ShouldEqual, len(mockArchive))
			So(ar.Entries, ShouldHaveLength, 4)

			for i, m := range mods {
				plist, bin, err := ar.Blob(i)
				So(err, ShouldBeNil)
				So(plist, ShouldResemble, mkextdata.CompressLZSS(m.Plist))
				So(bin, ShouldResemble, mkextdata.CompressLZSS(m.Binary))
				So(ar.Entries[i].Binary.FullSize, ShouldEqual, len(m.Binary))
			}

			_, _, err = ar.Blob(4)
			So(err.Error(), ShouldContainSubstring, "module 4 out of range [0, 4)")
		})

		Convey("empty archive", func() {
			empty, err := Build(context.Background(), nil)
			So(err, ShouldBeNil)
			ar, err := open(empty)
			So(err, ShouldBeNil)
			So(ar.Entries, ShouldBeEmpty)
		})

		Convey("bad checksum", func() {
			data := clone()
			data[len(data)-1] ^= 0xff
			_, err := open(data)
			So(err, ShouldHaveSameTypeAs, &mkextdata.ErrMismatchedChecksum{})

			Convey("VerifyNever", func() {
				ar, err := open(data, WithVerification(VerifyNever))
				So(err, ShouldBeNil)
				So(ar.Entries, ShouldHaveLength, 4)
			})
		})

		Convey("header fields are covered by the checksum", func() {
			data := clone()
			data[31] = 0x07 // cpu subtype
			_, err := open(data)
			So(err, ShouldHaveSameTypeAs, &mkextdata.ErrMismatchedChecksum{})
		})

		Convey("truncated", func() {
			_, err := open(mockArchive[:len(mockArchive)-32])
			So(err.Error(), ShouldContainSubstring, "length field says")

			_, err = open(mockArchive[:10])
			So(err.Error(), ShouldContainSubstring, "reading header")
		})

		Convey("bad magic", func() {
			data := clone()
			copy(data, "PK\x03\x04")
			_, err := open(data)
			So(err.Error(), ShouldContainSubstring, "not an mkext archive")
		})

		Convey("index too big", func() {
			data := clone()
			binary.BigEndian.PutUint32(data[20:], 1000)
			_, err := open(data, WithVerification(VerifyNever))
			So(err.Error(), ShouldContainSubstring, "index for 1000 modules doesn't fit")
		})

		Convey("bad blobs", func() {
			entry := func(data []byte, i int) []byte {
				return data[mkextdata.HeaderSize+i*mkextdata.EntrySize:]
			}

			Convey("misaligned", func() {
				data := clone()
				binary.BigEndian.PutUint32(entry(data, 1)[0:], binary.BigEndian.Uint32(entry(data, 1)[0:])+1)
				_, err := open(data, WithVerification(VerifyNever))
				So(err.Error(), ShouldContainSubstring, "module 1 plist")
				So(err.Error(), ShouldContainSubstring, "not 32 byte aligned")
			})

			Convey("inside index", func() {
				data := clone()
				binary.BigEndian.PutUint32(entry(data, 0)[16:], 32)
				_, err := open(data, WithVerification(VerifyNever))
				So(err.Error(), ShouldContainSubstring, "module 0 binary")
				So(err.Error(), ShouldContainSubstring, "inside the header or index")
			})

			Convey("past the end", func() {
				data := clone()
				binary.BigEndian.PutUint32(entry(data, 3)[20:], uint32(len(data)))
				_, err := open(data, WithVerification(VerifyNever))
				So(err.Error(), ShouldContainSubstring, "module 3 binary")
				So(err.Error(), ShouldContainSubstring, "run past the end")
			})
		})
	})
}
