// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/containerd/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WiiIntosh/osx-drivers/mkext"
	"github.com/WiiIntosh/osx-drivers/mkext/manifest"
	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

func newBuildCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an mkext from a manifest",
		Long: `Build reads the manifest, compresses every listed kext and writes the
archive. Settings other than the module list may come from the manifest, from
MKEXT_* environment variables or from flags, flags winning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringP("config", "c", "mkext.yaml", "manifest file (yaml, toml or json)")
	f.String("root", "", "directory module paths are relative to (default: the manifest's directory)")
	f.StringP("output", "o", "", "archive to write")
	f.IntP("concurrency", "j", 0, "modules compressed at once (default: number of CPUs)")
	f.String("digest", "", "also write <output>.<digest>; one of sha256, sha512, blake2s, blake2b, sha3-256, sha3-512")
	for _, name := range []string{"config", "root", "output", "concurrency", "digest"} {
		v.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func loadManifest(v *viper.Viper) (m *manifest.Manifest, cfgPath string, err error) {
	if cfgPath, err = expandPath(v.GetString("config")); err != nil {
		return
	}
	v.SetConfigFile(cfgPath)
	if err = v.ReadInConfig(); err != nil {
		err = errors.Wrapf(err, "reading manifest %q", cfgPath)
		return
	}
	m = &manifest.Manifest{}
	if err = v.UnmarshalKey("modules", &m.Modules); err != nil {
		err = errors.Wrapf(err, "parsing modules in %q", cfgPath)
	}
	return
}

func runBuild(ctx context.Context, v *viper.Viper, stdout io.Writer) error {
	m, cfgPath, err := loadManifest(v)
	if err != nil {
		return err
	}

	root, err := expandPath(v.GetString("root"))
	if err != nil {
		return err
	}
	if root == "" {
		root = filepath.Dir(cfgPath)
	}
	output, err := expandPath(v.GetString("output"))
	if err != nil {
		return err
	}
	if output == "" {
		return errors.New("no output: pass --output or set output in the manifest")
	}
	digest, err := mkextdata.ParseDigestScheme(v.GetString("digest"))
	if err != nil {
		return err
	}

	ctx = log.WithLogger(ctx, log.G(ctx).WithField("output", output))
	log.G(ctx).WithField("manifest", cfgPath).Infof("packing %d modules from %s", len(m.Modules), root)

	var st *mkext.Stats
	err = writeAtomic(output, func(w io.Writer) (err error) {
		st, err = mkext.CreateFromManifest(ctx, w, os.DirFS(root), m,
			mkext.WithConcurrency(v.GetInt("concurrency")),
			mkext.WithDigest(digest))
		return
	})
	if err != nil {
		return err
	}

	if st.Digest != nil {
		sidecar := output + "." + st.DigestScheme.String()
		line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(st.Digest), filepath.Base(output))
		if err := os.WriteFile(sidecar, []byte(line), 0644); err != nil {
			return errors.Wrapf(err, "writing %q", sidecar)
		}
		log.G(ctx).WithField("digest", st.DigestScheme).Infof("wrote %s", sidecar)
	}

	names := make([]string, len(st.Modules))
	entries := make([]mkextdata.Entry, len(st.Modules))
	for i, ms := range st.Modules {
		names[i], entries[i] = ms.Name, ms.Entry
	}
	return printIndex(stdout, st.Length, st.Checksum, names, entries)
}

// writeAtomic calls write with a temporary file next to path and renames it
// into place once write succeeds. On failure path is left untouched.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating temporary output")
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = write(f); err != nil {
		return
	}
	if err = f.Chmod(0644); err != nil {
		return errors.Wrap(err, "setting output mode")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing output")
	}
	return errors.Wrap(os.Rename(f.Name(), path), "renaming output")
}
