// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

// Package sbf provides a Go implementation of the Septentrio Binary Format
// (SBF) receiver protocol.
//
// SBF is the framed binary telemetry protocol spoken by Septentrio GNSS
// receivers. This package provides the streaming frame decoder, block
// payload decoding for the navigation blocks, and the text command
// configuration handshake that brings a receiver into a usable state.
package sbf

import "time"

// Protocol sync bytes. Every SBF block starts with "$@".
const (
	Sync1 = 0x24 // '$'
	Sync2 = 0x40 // '@'
)

// Frame size limits
const (
	// MaxFrameSize bounds the payload buffer: message ID (2) + length (2)
	// + body. SBF block lengths are multiples of 4 up to 4096.
	MaxFrameSize = 4096

	// frameHeaderSize is the ID + length region that precedes the body in
	// the checksum-protected payload.
	frameHeaderSize = 4
)

// SBF block numbers (lower 13 bits of the message ID field)
const (
	BlockDOP            = 4001
	BlockPVTGeodetic    = 4007
	BlockChannelStatus  = 4013
	BlockVelCovGeodetic = 5908
)

// blockIDMask extracts the block number; the top 3 bits carry the
// block revision.
const blockIDMask = 0x1FFF

// Configuration handshake parameters
const (
	// ReceiverBaudRate is the fixed operating baud the receiver adopts
	// after a successful setCOMSettings exchange.
	ReceiverBaudRate = 115200

	// AckTimeout bounds the wait for a command acknowledgment.
	AckTimeout = 200 * time.Millisecond

	// PacketTimeout is the short per-read wait used to drain buffered
	// bytes once a reporting cycle is ready.
	PacketTimeout = 2 * time.Millisecond

	// flushWindow is the quiet period used to discard stale input after
	// a baud switch.
	flushWindow = 20 * time.Millisecond
)

// ackPrefix precedes the command echo in every valid reply.
const ackPrefix = "$R: "

// Configuration command templates and the fixed init batch, newline
// delimited. Each line is sent and acknowledged individually.
const (
	cmdSetBaudRate = "setCOMSettings, COM1, baud%d\n"
	cmdSetDynamics = "setReceiverDynamics, %s\n"

	configBatch = "setDataInOut, COM1, Auto, SBF\n" +
		"setPVTMode, Rover, All\n" +
		"setSatelliteTracking, All\n" +
		"setSBFOutput, Stream1, COM1, PVTGeodetic+VelCovGeodetic+DOP+ChannelStatus, msec100\n"
)

// baudCandidates are tried in order during the handshake.
var baudCandidates = []int{9600, 38400, 19200, 57600, 115200, 230400}

// Dynamics model thresholds for setReceiverDynamics
const (
	dynamicsModerate = 6
	dynamicsHigh     = 7
	dynamicsMax      = 8
)

// GPS time constants
const (
	// gpsEpochUnix is 1980-01-06 00:00:00 UTC, the GPS week zero origin.
	gpsEpochUnix = 315964800

	// gpsTimeSanityFloor rejects receiver timestamps from before the
	// firmware could plausibly have a fix (2009-02-13).
	gpsTimeSanityFloor = 1234567890

	secondsPerWeek = 7 * 24 * 3600
)

// healthTracking is the ChannelStatus health value marking a satellite
// as used in the PVT solution.
const healthTracking = 1

// azimuthMask keeps the 9 azimuth bits of the packed azimuth/rise-set
// field.
const azimuthMask = (1 << 9) - 1

// readBufferSize sizes the chunk buffer for transport reads.
const readBufferSize = 256

// Decoder states (internal)
const (
	stateSync1 = iota
	stateSync2
	stateCRC1
	stateCRC2
	stateID1
	stateID2
	stateLength1
	stateLength2
	statePayload
)
