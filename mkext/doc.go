// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package mkext builds mkext version 1 archives: the multi-kext bundles a Mac
// OS X boot loader reads to load a set of drivers in one go.
//
// It has a fairly basic format, all integers big-endian:
//   - header: magic "MKXT", signature "MOSX", total length, Adler-32 checksum,
//     version 0x01008000, number of kexts, cpu type and subtype (both -1).
//   - one 32 byte index entry per kext: offset, compressed size, full size and
//     a reserved word, first for the Info.plist and then for the executable.
//   - the LZSS-compressed plists and executables, in index order, each padded
//     with zeros to a multiple of 32 bytes.
//
// The checksum covers every byte after the checksum field. The offsets in the
// index are absolute.
//
// Archives are write-only here: Open checks an archive's structure and
// checksum and hands out the compressed blobs, but nothing is decompressed.
package mkext
