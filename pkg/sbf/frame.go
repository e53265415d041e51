// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import "time"

// Frame represents one complete sync-delimited SBF block as it came off
// the wire. The payload holds the checksum-protected region: message ID,
// declared length, and body.
type Frame struct {
	id        uint16
	revision  uint8
	crc       uint16
	payload   []byte
	timestamp time.Time
}

// NewFrame creates a frame from a checksum-protected payload region and
// its declared CRC. Used by capture replay; the decoder builds frames
// directly.
func NewFrame(payload []byte, crc uint16) *Frame {
	f := &Frame{
		crc:       crc,
		payload:   payload,
		timestamp: time.Now(),
	}
	if len(payload) >= 2 {
		raw := uint16(payload[0]) | uint16(payload[1])<<8
		f.id = raw & blockIDMask
		f.revision = uint8(raw >> 13)
	}
	return f
}

// ID returns the block number (13-bit message identifier).
func (f *Frame) ID() uint16 {
	return f.id
}

// Revision returns the 3-bit block revision.
func (f *Frame) Revision() uint8 {
	return f.revision
}

// CRC returns the checksum declared in the frame header.
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Payload returns the checksum-protected region: ID + length + body.
func (f *Frame) Payload() []byte {
	return f.payload
}

// Body returns the block body following the ID and length fields.
func (f *Frame) Body() []byte {
	if len(f.payload) <= frameHeaderSize {
		return nil
	}
	return f.payload[frameHeaderSize:]
}

// Timestamp returns the frame's decode timestamp.
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// Valid reports whether the declared CRC matches the checksum computed
// over the payload region.
func (f *Frame) Valid() bool {
	return f.crc == CalculateCRC(f.payload)
}
