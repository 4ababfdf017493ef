// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mkext

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/containerd/log"

	"github.com/WiiIntosh/osx-drivers/mkext/manifest"
)

// ErrModuleUnavailable is returned when a file named by the manifest can't be
// read.
type ErrModuleUnavailable struct {
	Module string
	Path   string
	Err    error
}

func (e *ErrModuleUnavailable) Error() string {
	return fmt.Sprintf("module %q: reading %q: %s", e.Module, e.Path, e.Err)
}

func (e *ErrModuleUnavailable) Unwrap() error { return e.Err }

// ReadModules reads the plist and binary of every module in m from fsys, in
// manifest order. It stops at the first file that can't be read.
func ReadModules(ctx context.Context, fsys fs.FS, m *manifest.Manifest) ([]Module, error) {
	ret := make([]Module, 0, len(m.Modules))
	err := m.LoopModules(func(i int, mod *manifest.Module) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := mod.DisplayName()
		read := func(path string) ([]byte, error) {
			log.G(ctx).WithField("module", name).Debugf("reading %s", path)
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return nil, &ErrModuleUnavailable{name, path, err}
			}
			return data, nil
		}

		plist, err := read(mod.PlistPath())
		if err != nil {
			return err
		}
		bin, err := read(mod.BinaryPath())
		if err != nil {
			return err
		}
		ret = append(ret, Module{Name: name, Plist: plist, Binary: bin})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
