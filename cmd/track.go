// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pelorus Project

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/pelorus-gnss/pelorus/pkg/sbf"
)

var (
	dynamicsModel uint8
	noConfigure   bool
	pollTimeout   time.Duration
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Configure the receiver and print live position fixes",
	Long: `Run the full configuration handshake (baud rate negotiation, dynamics
model, SBF output setup), then poll the receiver and print one line per
completed navigation cycle: fix type, position, velocity, DOP and
satellites used.

Use --no-configure for receivers that are already streaming SBF.

Supports both serial and WebSocket connections.`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().Uint8Var(&dynamicsModel, "dynamics", 7, "Receiver dynamics parameter (tiers: <6 low, <7 moderate, <8 high, else max)")
	trackCmd.Flags().BoolVar(&noConfigure, "no-configure", false, "Skip the configuration handshake")
	trackCmd.Flags().DurationVar(&pollTimeout, "timeout", 2*time.Second, "Per-poll timeout")
	rootCmd.AddCommand(trackCmd)
}

// printingClock logs receiver time once instead of touching the system
// clock; slewing the host clock is the platform's job, not ours.
type printingClock struct {
	reported bool
}

func (c *printingClock) SetClock(t time.Time) {
	if c.reported {
		return
	}
	log.Printf("Receiver time: %s", t.UTC().Format(time.RFC3339Nano))
	c.reported = true
}

func runTrack(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Pelorus - Position Tracking\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	driver := sbf.NewDriver(conn, &printingClock{})

	if !noConfigure {
		baud, err := driver.Configure(dynamicsModel)
		if err != nil {
			return fmt.Errorf("receiver configuration: %w", err)
		}
		fmt.Printf("Receiver configured at %d baud\n\n", baud)
	}

	var pos sbf.PositionFix
	var sats sbf.SatelliteInfo

	for {
		result, err := driver.Receive(pollTimeout, &pos, &sats)
		if err != nil {
			if errors.Is(err, sbf.ErrTimeout) {
				log.Printf("No complete navigation cycle within %s", pollTimeout)
				continue
			}
			return err
		}

		if result&sbf.ResultNav != 0 || driver.Configured() {
			fmt.Println(sbf.FormatFix(&pos))
		}
		if result&sbf.ResultSatInfo != 0 {
			fmt.Printf("  satellites visible: %d\n", sats.Count)
		}
	}
}
