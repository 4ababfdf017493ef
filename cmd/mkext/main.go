// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command mkext packs kexts into an mkext archive and inspects existing ones.
package main

import (
	"context"
	"os"

	"github.com/containerd/log"
)

func main() {
	ctx := log.WithLogger(context.Background(), log.L)
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
