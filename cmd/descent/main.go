// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the Descent optimization toolkit CLI.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/descent-ml/descent/cmd/descent/cmd"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
