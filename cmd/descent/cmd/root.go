// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descent",
		Short: "descent minimizes smooth functions with gradient-based methods.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("DESCENT")
	viper.AutomaticEnv()

	cmd.AddCommand(
		minimizeCmd(),
		versionCmd(),
	)

	return cmd
}
