// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pelorus Project

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pelorus-gnss/pelorus/pkg/sbf"
)

var (
	recordOutput      string
	recordDynamics    uint8
	recordNoConfigure bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record CRC-valid SBF frames to a capture file",
	Long: `Run the configuration handshake, then decode the incoming SBF stream
and append every CRC-valid frame to a capture file as a timestamped CBOR
entry. The capture can be examined offline with "pelorus replay".

Use --no-configure for receivers that are already streaming SBF.

Supports both serial and WebSocket connections.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Capture file to append to (required)")
	recordCmd.MarkFlagRequired("output")
	recordCmd.Flags().Uint8Var(&recordDynamics, "dynamics", 7, "Receiver dynamics parameter")
	recordCmd.Flags().BoolVar(&recordNoConfigure, "no-configure", false, "Skip the configuration handshake")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if !recordNoConfigure {
		driver := sbf.NewDriver(conn, nil)
		baud, err := driver.Configure(recordDynamics)
		if err != nil {
			return fmt.Errorf("receiver configuration: %w", err)
		}
		fmt.Printf("Receiver configured at %d baud\n", baud)
	}

	f, err := os.OpenFile(recordOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	fmt.Printf("Pelorus - Frame Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Capture: %s\n", recordOutput)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := sbf.NewDecoder()
	writer := sbf.NewCaptureWriter(f)
	buf := make([]byte, 256)
	recorded := 0

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed, %d frames recorded", recorded)
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			frame, err := decoder.DecodeByte(buf[i])
			if err != nil || frame == nil {
				continue
			}
			if !frame.Valid() {
				continue
			}
			if err := writer.WriteFrame(frame); err != nil {
				return fmt.Errorf("capture write: %w", err)
			}
			recorded++
			if recorded%100 == 0 {
				fmt.Printf("%d frames recorded\n", recorded)
			}
		}
	}
}
