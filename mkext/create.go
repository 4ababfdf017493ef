// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkext

import (
	"context"
	"io"
	"io/fs"
	"runtime"

	"github.com/containerd/log"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/WiiIntosh/osx-drivers/mkext/manifest"
	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

// Module is one kext, fully read into memory.
type Module struct {
	Name   string
	Plist  []byte
	Binary []byte
}

type createOptionData struct {
	concurrency int
	digest      mkextdata.DigestScheme
}

// CreateOption functions can be supplied to Compress, Build, Create and
// CreateFromManifest.
type CreateOption func(*createOptionData)

// WithConcurrency sets how many modules are compressed at once. Values below
// 1 mean GOMAXPROCS.
func WithConcurrency(n int) CreateOption {
	return func(o *createOptionData) {
		o.concurrency = n
	}
}

// WithDigest makes Create compute a digest of the finished archive and report
// it in Stats.
func WithDigest(d mkextdata.DigestScheme) CreateOption {
	return func(o *createOptionData) {
		o.digest = d
	}
}

func getCreateOptions(options []CreateOption) (createOptionData, error) {
	var opts createOptionData
	for _, o := range options {
		o(&opts)
	}
	if opts.concurrency < 1 {
		opts.concurrency = runtime.GOMAXPROCS(0)
	}
	return opts, opts.digest.Valid()
}

// Compress compresses the plist and binary of every module. Modules are
// compressed in parallel; the result is in the same order as modules.
func Compress(ctx context.Context, modules []Module, options ...CreateOption) ([]mkextdata.CompressedModule, error) {
	opts, err := getCreateOptions(options)
	if err != nil {
		return nil, err
	}

	ret := make([]mkextdata.CompressedModule, len(modules))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i := range modules {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := &modules[i]
			ret[i] = mkextdata.CompressedModule{
				Plist:  mkextdata.CompressedFile{Data: mkextdata.CompressLZSS(m.Plist), FullSize: len(m.Plist)},
				Binary: mkextdata.CompressedFile{Data: mkextdata.CompressLZSS(m.Binary), FullSize: len(m.Binary)},
			}
			log.G(ctx).WithFields(log.Fields{
				"module": m.Name,
				"plist":  ratio(ret[i].Plist),
				"binary": ratio(ret[i].Binary),
			}).Debug("compressed module")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

func ratio(f mkextdata.CompressedFile) string {
	return humanize.Bytes(uint64(f.FullSize)) + " -> " + humanize.Bytes(uint64(len(f.Data)))
}

// Build compresses modules and returns the complete archive.
func Build(ctx context.Context, modules []Module, options ...CreateOption) ([]byte, error) {
	compressed, err := Compress(ctx, modules, options...)
	if err != nil {
		return nil, err
	}
	return mkextdata.Assemble(compressed)
}

// ModuleStats describes where one module ended up.
type ModuleStats struct {
	Name  string
	Entry mkextdata.Entry
}

// Stats summarizes an archive written by Create.
type Stats struct {
	Length   uint32
	Checksum uint32
	Modules  []ModuleStats

	// Digest is set when WithDigest was given.
	DigestScheme mkextdata.DigestScheme
	Digest       []byte
}

// Create builds an archive from modules and writes it to out.
//
// Nothing is written unless the whole archive was built successfully.
func Create(ctx context.Context, out io.Writer, modules []Module, options ...CreateOption) (*Stats, error) {
	opts, err := getCreateOptions(options)
	if err != nil {
		return nil, err
	}

	compressed, err := Compress(ctx, modules, options...)
	if err != nil {
		return nil, errors.Wrap(err, "compressing modules")
	}
	layout, err := mkextdata.Plan(compressed)
	if err != nil {
		return nil, errors.Wrap(err, "planning layout")
	}
	archive := layout.Emit(compressed)

	st := &Stats{
		Length:       layout.Length,
		Checksum:     mkextdata.ArchiveChecksum(archive),
		Modules:      make([]ModuleStats, len(modules)),
		DigestScheme: opts.digest,
		Digest:       opts.digest.Sum(archive),
	}
	for i, m := range modules {
		st.Modules[i] = ModuleStats{Name: m.Name, Entry: layout.Entries[i]}
	}

	if _, err := out.Write(archive); err != nil {
		return nil, errors.Wrap(err, "writing archive")
	}
	log.G(ctx).WithFields(log.Fields{
		"modules":  len(modules),
		"size":     humanize.Bytes(uint64(st.Length)),
		"checksum": st.Checksum,
	}).Info("wrote mkext")
	return st, nil
}

// CreateFromManifest reads every module named by m from fsys and writes the
// archive to out. If any module can't be read, nothing is written.
func CreateFromManifest(ctx context.Context, out io.Writer, fsys fs.FS, m *manifest.Manifest, options ...CreateOption) (*Stats, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating manifest")
	}
	modules, err := ReadModules(ctx, fsys, m)
	if err != nil {
		return nil, err
	}
	return Create(ctx, out, modules, options...)
}
