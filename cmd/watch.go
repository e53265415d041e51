// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pelorus Project

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/pelorus-gnss/pelorus/pkg/sbf"
)

var watchStatsInterval int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display raw SBF frame log in human-readable format",
	Long: `Continuously decode and display SBF frames as they arrive.

Each frame is shown with timestamp, block name, revision, length and CRC
status; known navigation blocks are decoded field by field. Running
statistics are printed periodically.

No configuration commands are sent: the receiver must already be
streaming SBF. Use "pelorus track" for the full handshake.

Supports both serial and WebSocket connections.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchStatsInterval, "stats", 30, "Statistics print interval in seconds (0 to disable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Pelorus - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := sbf.NewDecoder()
	stats := sbf.NewStatistics()
	buf := make([]byte, 256)
	lastStats := time.Now()

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			frame, err := decoder.DecodeByte(buf[i])
			stats.Update(frame, err)
			if err != nil {
				fmt.Printf("[DISCARD] %v\n", err)
				continue
			}
			if frame != nil {
				fmt.Print(sbf.FormatFrame(frame))
			}
		}

		if watchStatsInterval > 0 && time.Since(lastStats) >= time.Duration(watchStatsInterval)*time.Second {
			fmt.Print(stats.String())
			lastStats = time.Now()
		}
	}
}
