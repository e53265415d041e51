// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pelorus Project

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pelorus-gnss/pelorus/pkg/sbf"
)

var replayInput string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Decode a capture file and print its frames",
	Long: `Read a capture file written by "pelorus record" and print every frame
in the same human-readable format as "pelorus watch", with summary
statistics at the end. No receiver connection is needed.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayInput, "input", "i", "", "Capture file to read (required)")
	replayCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(replayInput)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	reader := sbf.NewCaptureReader(f)
	stats := sbf.NewStatistics()

	for {
		frame, err := reader.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("capture read: %w", err)
		}
		stats.Update(frame, nil)
		fmt.Print(sbf.FormatFrame(frame))
	}

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
