// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkextdata

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DigestScheme selects a cryptographic digest to publish alongside a built
// archive. The digest is not part of the mkext format; the loader only checks
// the Adler-32 checksum.
type DigestScheme byte

// These are the available digest algorithms.
const (
	DigestNone DigestScheme = iota
	DigestSHA2_256
	DigestSHA2_512
	DigestBLAKE2s
	DigestBLAKE2b
	DigestSHA3_256
	DigestSHA3_512
)

var digestNames = map[DigestScheme]string{
	DigestNone:     "none",
	DigestSHA2_256: "sha256",
	DigestSHA2_512: "sha512",
	DigestBLAKE2s:  "blake2s",
	DigestBLAKE2b:  "blake2b",
	DigestSHA3_256: "sha3-256",
	DigestSHA3_512: "sha3-512",
}

func (d DigestScheme) String() string {
	if n, ok := digestNames[d]; ok {
		return n
	}
	return fmt.Sprintf("DigestScheme(%d)", byte(d))
}

// ParseDigestScheme maps a name as printed by String back to its scheme.
// The empty string means DigestNone.
func ParseDigestScheme(name string) (DigestScheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DigestNone, nil
	}
	for d, n := range digestNames {
		if n == name {
			return d, nil
		}
	}
	return DigestNone, errors.Errorf("unknown digest scheme %q", name)
}

// Valid returns nil iff the DigestScheme is valid.
func (d DigestScheme) Valid() error {
	if _, ok := digestNames[d]; !ok {
		return errors.Errorf("unknown digest scheme 0x%x", byte(d))
	}
	return nil
}

// Hash gets the hash.Hash for this scheme, or nil for DigestNone.
func (d DigestScheme) Hash() hash.Hash {
	var h hash.Hash
	switch d {
	case DigestNone:
		return nil
	case DigestSHA2_256:
		h = sha256.New()
	case DigestSHA2_512:
		h = sha512.New()
	case DigestBLAKE2s:
		h, _ = blake2s.New256(nil)
	case DigestBLAKE2b:
		h, _ = blake2b.New512(nil)
	case DigestSHA3_256:
		h = sha3.New256()
	case DigestSHA3_512:
		h = sha3.New512()
	}
	if h == nil {
		panic(d.Valid())
	}
	return h
}

// Sum returns the digest of data, or nil for DigestNone.
func (d DigestScheme) Sum(data []byte) []byte {
	h := d.Hash()
	if h == nil {
		return nil
	}
	h.Write(data)
	return h.Sum(nil)
}
