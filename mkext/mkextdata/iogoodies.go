// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import "encoding/binary"

// readBuf consumes big-endian fields from the front of a byte slice.
type readBuf []byte

func (b *readBuf) uint32() uint32 {
	v := binary.BigEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

// writeBuf fills big-endian fields from the front of a byte slice.
type writeBuf []byte

func (b *writeBuf) uint32(v uint32) {
	binary.BigEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}
