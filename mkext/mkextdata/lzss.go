// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

// LZSS parameters shared with the loader's decompressor. The decoder keeps a
// ring of lzssRingSize bytes, initially all spaces, and starts writing at
// lzssRingStart.
const (
	lzssRingSize  = 4096
	lzssRingStart = lzssRingSize - lzssMaxMatch
	lzssMaxMatch  = 18
	lzssThreshold = 2
	lzssMinMatch  = lzssThreshold + 1

	// lzssMaxDistance keeps references clear of the lookahead region of the
	// ring.
	lzssMaxDistance = lzssRingSize - lzssMaxMatch

	lzssHashBits = 12
)

// MaxCompressedLen returns the largest possible CompressLZSS output for n input
// bytes: every byte a literal, plus one flag byte per eight tokens.
func MaxCompressedLen(n int) int {
	return n + (n+7)/8
}

// CompressLZSS compresses src into the LZSS stream understood by the mkext
// loader.
//
// Each group of up to eight tokens is preceded by a flag byte; bit i (from the
// least significant) is set when token i is a literal byte and clear when it
// is a two byte reference. A reference encodes the ring position p of the
// match and its length n (3 to 18) as:
//
//	p&0xff, (p>>4)&0xf0 | (n-3)
//
// References only ever point at earlier input, never at the initial space
// fill of the ring. The longest match wins; among equally long matches the
// nearest one is used. Empty input produces empty output.
func CompressLZSS(src []byte) []byte {
	dst := make([]byte, 0, MaxCompressedLen(len(src)))
	m := newMatcher(src)

	flagIdx, bit := 0, uint(0)
	for pos := 0; pos < len(src); {
		if bit == 0 {
			flagIdx = len(dst)
			dst = append(dst, 0)
		}

		n, dist := m.find(pos)
		if n < lzssMinMatch {
			dst[flagIdx] |= 1 << bit
			dst = append(dst, src[pos])
			n = 1
		} else {
			p := (lzssRingStart + pos - dist) & (lzssRingSize - 1)
			dst = append(dst, byte(p), byte(p>>4)&0xf0|byte(n-lzssMinMatch))
		}

		for end := pos + n; pos < end; pos++ {
			m.insert(pos)
		}
		bit = (bit + 1) & 7
	}
	return dst
}

// matcher finds back-references with hash chains over 3-byte prefixes.
// Chains are ordered newest first.
type matcher struct {
	src  []byte
	head []int32
	prev []int32
}

func newMatcher(src []byte) *matcher {
	m := &matcher{
		src:  src,
		head: make([]int32, 1<<lzssHashBits),
		prev: make([]int32, len(src)),
	}
	for i := range m.head {
		m.head[i] = -1
	}
	return m
}

func (m *matcher) hash(pos int) uint32 {
	v := uint32(m.src[pos])<<16 | uint32(m.src[pos+1])<<8 | uint32(m.src[pos+2])
	return (v * 2654435761) >> (32 - lzssHashBits)
}

// insert makes pos available as a match candidate for later positions.
func (m *matcher) insert(pos int) {
	if pos+lzssMinMatch > len(m.src) {
		return
	}
	h := m.hash(pos)
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

// find returns the longest match for the input at pos, preferring the smallest
// distance on ties. n is 0 when fewer than lzssMinMatch bytes remain.
func (m *matcher) find(pos int) (n, dist int) {
	limit := len(m.src) - pos
	if limit < lzssMinMatch {
		return
	}
	if limit > lzssMaxMatch {
		limit = lzssMaxMatch
	}

	for cand := int(m.head[m.hash(pos)]); cand >= 0 && pos-cand <= lzssMaxDistance; cand = int(m.prev[cand]) {
		l := 0
		for l < limit && m.src[cand+l] == m.src[pos+l] {
			l++
		}
		if l > n {
			n, dist = l, pos-cand
			if l == limit {
				break
			}
		}
	}
	return
}
