// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project
//
// Pelorus - Septentrio SBF receiver toolkit
//
// A CLI tool for configuring Septentrio GNSS receivers and decoding the
// SBF binary stream into position, velocity, DOP and satellite facts.

package main

import (
	"os"

	"github.com/pelorus-gnss/pelorus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
