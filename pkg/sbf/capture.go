// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"errors"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CaptureEntry is one recorded frame in a capture file: the
// checksum-protected payload region plus the declared CRC and the
// decode timestamp. Capture files are a plain concatenation of
// CBOR-encoded entries.
type CaptureEntry struct {
	Time    time.Time `cbor:"1,keyasint"`
	CRC     uint16    `cbor:"2,keyasint"`
	Payload []byte    `cbor:"3,keyasint"`
}

// Frame reconstructs the frame for an entry, preserving the recorded
// timestamp.
func (e *CaptureEntry) Frame() *Frame {
	f := NewFrame(e.Payload, e.CRC)
	f.timestamp = e.Time
	return f
}

// CaptureWriter appends frames to a capture stream.
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter creates a capture writer on w.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// WriteFrame appends one frame to the capture.
func (cw *CaptureWriter) WriteFrame(f *Frame) error {
	return cw.enc.Encode(CaptureEntry{
		Time:    f.Timestamp(),
		CRC:     f.CRC(),
		Payload: f.Payload(),
	})
}

// CaptureReader reads frames back from a capture stream.
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader creates a capture reader on r.
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// ReadFrame returns the next recorded frame, or io.EOF at the end of
// the capture.
func (cr *CaptureReader) ReadFrame() (*Frame, error) {
	var entry CaptureEntry
	if err := cr.dec.Decode(&entry); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return entry.Frame(), nil
}
