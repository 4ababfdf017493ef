// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WiiIntosh/osx-drivers/mkext"
	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

const testManifest = `
modules:
  - bundle: WiiPlatform/build_kext/WiiPlatform.kext
  - name: exi
    plist: WiiEXI/Info.plist
    binary: WiiEXI/WiiEXI
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func setupTree(t *testing.T) (dir, cfg string) {
	dir = t.TempDir()
	kext := filepath.Join(dir, "WiiPlatform", "build_kext", "WiiPlatform.kext", "Contents")
	writeFile(t, filepath.Join(kext, "Info.plist"), []byte("<plist>platform</plist>"))
	writeFile(t, filepath.Join(kext, "MacOS", "WiiPlatform"), make([]byte, 4096))
	writeFile(t, filepath.Join(dir, "WiiEXI", "Info.plist"), []byte("<plist>exi</plist>"))
	writeFile(t, filepath.Join(dir, "WiiEXI", "WiiEXI"), bytes.Repeat([]byte{0xfe, 0xed, 0xfa, 0xce}, 64))
	cfg = filepath.Join(dir, "mkext.yaml")
	writeFile(t, cfg, []byte(testManifest))
	return
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestBuildCommand(t *testing.T) {
	dir, cfg := setupTree(t)
	out := filepath.Join(dir, "Wii.mkext")

	stdout, err := run(t, "build", "-c", cfg, "-o", out, "--digest", "sha256", "--log-level", "debug", "-j", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mkext v1: 2 modules")
	assert.Contains(t, stdout, "WiiPlatform")
	assert.Contains(t, stdout, "exi")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	ar, err := mkext.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, ar.Entries, 2)
	assert.EqualValues(t, 4096, ar.Entries[0].Binary.FullSize)
	assert.EqualValues(t, 256, ar.Entries[1].Binary.FullSize)

	plist, _, err := ar.Blob(0)
	require.NoError(t, err)
	assert.Equal(t, mkextdata.CompressLZSS([]byte("<plist>platform</plist>")), plist)

	sum := sha256.Sum256(data)
	sidecar, err := os.ReadFile(out + ".sha256")
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:])+"  Wii.mkext\n", string(sidecar))

	t.Run("inspect", func(t *testing.T) {
		stdout, err := run(t, "inspect", out)
		require.NoError(t, err)
		assert.Contains(t, stdout, "mkext v1: 2 modules")
		assert.Contains(t, stdout, "4.1 kB ->")
	})

	t.Run("inspect corrupt", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.mkext")
		corrupt := append([]byte{}, data...)
		corrupt[len(corrupt)-1] ^= 0xff
		writeFile(t, bad, corrupt)

		_, err := run(t, "inspect", bad)
		assert.ErrorContains(t, err, "mismatched checksum")

		_, err = run(t, "inspect", "--no-verify", bad)
		assert.NoError(t, err)
	})
}

func TestBuildCommandEnv(t *testing.T) {
	dir, cfg := setupTree(t)
	out := filepath.Join(dir, "env.mkext")
	t.Setenv("MKEXT_OUTPUT", out)
	t.Setenv("MKEXT_CONFIG", cfg)

	_, err := run(t, "build")
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestBuildCommandFailures(t *testing.T) {
	dir, cfg := setupTree(t)
	out := filepath.Join(dir, "Wii.mkext")

	t.Run("missing module", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "WiiEXI", "WiiEXI")))
		_, err := run(t, "build", "-c", cfg, "-o", out)
		assert.ErrorContains(t, err, `module "exi": reading "WiiEXI/WiiEXI"`)

		_, err = os.Stat(out)
		assert.True(t, os.IsNotExist(err))
		leftovers, err := filepath.Glob(filepath.Join(dir, ".Wii.mkext.*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("no output", func(t *testing.T) {
		_, err := run(t, "build", "-c", cfg)
		assert.ErrorContains(t, err, "no output")
	})

	t.Run("bad digest", func(t *testing.T) {
		_, err := run(t, "build", "-c", cfg, "-o", out, "--digest", "md5")
		assert.ErrorContains(t, err, `unknown digest scheme "md5"`)
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := run(t, "build", "-c", filepath.Join(dir, "nope.yaml"), "-o", out)
		assert.ErrorContains(t, err, "reading manifest")
	})
}
