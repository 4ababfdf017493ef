// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package mkextdata implements the wire pieces of an mkext version 1 archive:
// the header, the module index, the blob layout, the Adler-32 checksum and the
// LZSS compressor used for every blob.
package mkextdata
