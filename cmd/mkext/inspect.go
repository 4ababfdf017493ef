// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/WiiIntosh/osx-drivers/mkext"
	"github.com/WiiIntosh/osx-drivers/mkext/mkextdata"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "Check an mkext and print its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noVerify, err := cmd.Flags().GetBool("no-verify")
			if err != nil {
				return err
			}
			return runInspect(cmd.OutOrStdout(), args[0], noVerify)
		},
	}
	cmd.Flags().Bool("no-verify", false, "skip the checksum check")
	return cmd
}

func runInspect(stdout io.Writer, path string, noVerify bool) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	var opts []mkext.OpenOption
	if noVerify {
		opts = append(opts, mkext.WithVerification(mkext.VerifyNever))
	}
	ar, err := mkext.Open(f, st.Size(), opts...)
	if err != nil {
		return errors.Wrapf(err, "opening %q", path)
	}
	return printIndex(stdout, ar.Header.Length, ar.Header.Checksum, nil, ar.Entries)
}

// printIndex writes a summary line and one row per module. names may be nil,
// in which case modules are numbered.
func printIndex(w io.Writer, length, checksum uint32, names []string, entries []mkextdata.Entry) error {
	fmt.Fprintf(w, "mkext v1: %d modules, %s, checksum 0x%08x\n",
		len(entries), humanize.Bytes(uint64(length)), checksum)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMODULE\tPLIST\tBINARY\t")
	for i, e := range entries {
		name := fmt.Sprintf("%d", i)
		if names != nil {
			name = names[i]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", i, name, blobString(e.Plist), blobString(e.Binary))
	}
	return tw.Flush()
}

func blobString(b mkextdata.Blob) string {
	return fmt.Sprintf("%s -> %s @0x%x",
		humanize.Bytes(uint64(b.FullSize)), humanize.Bytes(uint64(b.CompressedSize)), b.Offset)
}
