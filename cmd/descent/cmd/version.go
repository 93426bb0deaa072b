// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the toolkit version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Descent Optimization Toolkit %s\n", version)
		},
	}
}
