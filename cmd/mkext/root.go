// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"strings"

	"github.com/containerd/log"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MKEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "mkext",
		Short:        "Pack kexts into an mkext archive",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return errors.Wrap(log.SetLevel(v.GetString("log-level")), "setting log level")
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newBuildCommand(v), newInspectCommand())
	return root
}

// expandPath expands a leading ~ in p.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	ret, err := homedir.Expand(p)
	return ret, errors.Wrapf(err, "expanding %q", p)
}
