// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package manifest describes which kexts go into an mkext, and in what order.
package manifest

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Module names one kext. Either Bundle or both Plist and Binary must be set;
// explicit paths override the ones derived from Bundle.
//
// All paths are slash-separated and relative to the root the manifest is
// resolved against.
type Module struct {
	// Name is used in logs and reports. It defaults to the bundle name.
	Name string `mapstructure:"name" json:"name,omitempty"`

	// Bundle is a .kext directory.
	Bundle string `mapstructure:"bundle" json:"bundle,omitempty"`

	Plist  string `mapstructure:"plist" json:"plist,omitempty"`
	Binary string `mapstructure:"binary" json:"binary,omitempty"`
}

// bundleName returns the bundle directory name without its extension.
func (m *Module) bundleName() string {
	if m.Bundle == "" {
		return ""
	}
	base := path.Base(path.Clean(m.Bundle))
	return strings.TrimSuffix(base, path.Ext(base))
}

// DisplayName returns Name, falling back to the bundle or binary name.
func (m *Module) DisplayName() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Bundle != "":
		return m.bundleName()
	}
	return path.Base(m.Binary)
}

// PlistPath returns the path of the module's Info.plist.
func (m *Module) PlistPath() string {
	if m.Plist != "" {
		return path.Clean(m.Plist)
	}
	if m.Bundle == "" {
		return ""
	}
	return path.Join(m.Bundle, "Contents", "Info.plist")
}

// BinaryPath returns the path of the module's executable.
func (m *Module) BinaryPath() string {
	if m.Binary != "" {
		return path.Clean(m.Binary)
	}
	if m.Bundle == "" {
		return ""
	}
	return path.Join(m.Bundle, "Contents", "MacOS", m.bundleName())
}

// Manifest is the ordered list of modules in an archive. Order is preserved
// into the archive index.
type Manifest struct {
	Modules []Module `mapstructure:"modules" json:"modules"`
}

// LoopModules invokes cb for every module in order. Returning an error from cb
// immediately stops the loop and forwards the error.
func (m *Manifest) LoopModules(cb func(i int, mod *Module) error) error {
	for i := range m.Modules {
		if err := cb(i, &m.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every module resolves to two valid paths and that
// display names are unique.
func (m *Manifest) Validate() error {
	names := make(map[string]int, len(m.Modules))
	return m.LoopModules(func(i int, mod *Module) error {
		name := mod.DisplayName()
		if prev, ok := names[name]; ok {
			return errors.Errorf("module %d: duplicate name %q (also module %d)", i, name, prev)
		}
		names[name] = i

		for _, p := range []struct{ what, path string }{
			{"plist", mod.PlistPath()},
			{"binary", mod.BinaryPath()},
		} {
			switch {
			case p.path == "":
				return errors.Errorf("module %d (%s): no %s path and no bundle", i, name, p.what)
			case !fs.ValidPath(p.path):
				return errors.Errorf("module %d (%s): invalid %s path %q", i, name, p.what, p.path)
			}
		}
		return nil
	})
}
