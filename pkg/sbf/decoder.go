// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"fmt"
	"time"
)

// Decoder implements the SBF frame decoder state machine.
//
// Bytes are fed in one at a time. A frame is started by the "$@" sync
// pair, followed by the little-endian declared CRC, then the message ID,
// length and body, which together form the checksum-protected payload
// region. The declared length counts only the body; the ID and length
// fields add four bytes to the total accumulated.
type Decoder struct {
	state         int
	buffer        []byte
	bufferIndex   int
	payloadLength int // total payload bytes to accumulate (ID + length + body)
	crc           uint16
	frame         *Frame
}

// NewDecoder creates a new SBF frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateSync1,
		buffer: make([]byte, MaxFrameSize),
	}
}

// Reset returns the decoder to the sync search state, discarding any
// frame in progress.
func (d *Decoder) Reset() {
	d.state = stateSync1
	d.bufferIndex = 0
	d.payloadLength = 0
	d.crc = 0
	d.frame = nil
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil while the frame is incomplete.
// Returns an error when a frame is discarded; the decoder has already
// reset itself and the caller may simply continue feeding bytes.
//
// The returned frame has not been checksum-verified; callers dispatch it
// through a Driver or check Frame.Valid themselves.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	switch d.state {

	case stateSync1:
		if b == Sync1 {
			d.state = stateSync2
		}
		// Anything else is inter-frame noise.
		return nil, nil

	case stateSync2:
		if b != Sync2 {
			// No partial credit: the apparent Sync1 is discarded, not
			// reinterpreted.
			d.Reset()
			return nil, nil
		}
		d.state = stateCRC1
		return nil, nil

	case stateCRC1:
		d.crc = uint16(b)
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.crc |= uint16(b) << 8
		d.state = stateID1
		return nil, nil

	case stateID1:
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		d.state = stateID2
		return nil, nil

	case stateID2:
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		d.state = stateLength1
		return nil, nil

	case stateLength1:
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		d.state = stateLength2
		return nil, nil

	case stateLength2:
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		bodyLength := int(d.buffer[2]) | int(d.buffer[3])<<8
		// The ID and length fields already stored are not counted in the
		// declared length but belong to the checksum-protected region.
		total := bodyLength + frameHeaderSize
		if total > MaxFrameSize {
			err := fmt.Errorf("declared length %d exceeds buffer capacity %d", bodyLength, MaxFrameSize)
			d.Reset()
			return nil, err
		}
		d.payloadLength = total
		if d.bufferIndex >= d.payloadLength {
			// Zero-length body: the frame is already complete.
			return d.complete(), nil
		}
		d.state = statePayload
		return nil, nil

	case statePayload:
		if d.bufferIndex >= d.payloadLength || d.bufferIndex >= MaxFrameSize {
			// Should not happen given the length bound; discard rather
			// than write past the declared region.
			err := fmt.Errorf("payload overrun at index %d", d.bufferIndex)
			d.Reset()
			return nil, err
		}
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		if d.bufferIndex == d.payloadLength {
			return d.complete(), nil
		}
		return nil, nil

	default:
		err := fmt.Errorf("invalid state: %d", d.state)
		d.Reset()
		return nil, err
	}
}

// complete builds the finished frame and resets for the next sync search.
func (d *Decoder) complete() *Frame {
	payload := make([]byte, d.payloadLength)
	copy(payload, d.buffer[:d.payloadLength])
	frame := NewFrame(payload, d.crc)
	frame.timestamp = time.Now()
	d.Reset()
	return frame
}
