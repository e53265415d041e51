// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"encoding/binary"
	"math"
	"testing"
)

// ============================================================
// Frame Building Helpers
// ============================================================

// buildFramePayload assembles the checksum-protected region: ID +
// declared body length + body.
func buildFramePayload(id uint16, body []byte) []byte {
	payload := make([]byte, 0, frameHeaderSize+len(body))
	payload = append(payload, byte(id), byte(id>>8))
	payload = append(payload, byte(len(body)), byte(len(body)>>8))
	return append(payload, body...)
}

// buildFrameBytes assembles a complete wire frame with a correct CRC.
func buildFrameBytes(id uint16, body []byte) []byte {
	payload := buildFramePayload(id, body)
	crc := CalculateCRC(payload)
	frame := []byte{Sync1, Sync2, byte(crc), byte(crc >> 8)}
	return append(frame, payload...)
}

// feedBytes pushes a byte sequence through a decoder and returns every
// completed frame and discard error.
func feedBytes(d *Decoder, data []byte) ([]*Frame, []error) {
	var frames []*Frame
	var errs []error
	for _, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames, errs
}

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	if crc := CalculateCRC([]byte{}); crc != 0 {
		t.Errorf("CRC of empty data should be 0, got 0x%04X", crc)
	}
}

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "single 0x01",
			data:     []byte{0x01},
			expected: 0x1021,
		},
		{
			// Golden vector pinning the exact bit-mixing recurrence.
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x31C3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := CalculateCRC(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestCalculateCRC_Deterministic(t *testing.T) {
	data := []byte{0xA7, 0x0F, 0x5C, 0x00, 0x01, 0x02}
	crc1 := CalculateCRC(data)
	crc2 := CalculateCRC(data)
	if crc1 != crc2 {
		t.Errorf("CRC should be deterministic: 0x%04X != 0x%04X", crc1, crc2)
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_ValidFrame(t *testing.T) {
	body := []byte{0x10, 0x20, 0x30, 0x40}
	data := buildFrameBytes(BlockDOP, body)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)

	if len(errs) != 0 {
		t.Fatalf("unexpected discard errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}

	f := frames[0]
	if f.ID() != BlockDOP {
		t.Errorf("ID mismatch: expected %d, got %d", BlockDOP, f.ID())
	}
	if len(f.Body()) != len(body) {
		t.Errorf("body length mismatch: expected %d, got %d", len(body), len(f.Body()))
	}
	if !f.Valid() {
		t.Error("frame with correct CRC should be valid")
	}
}

func TestDecoder_BlockRevision(t *testing.T) {
	// Revision bits occupy the top 3 bits of the ID field.
	raw := uint16(BlockPVTGeodetic) | 2<<13
	data := buildFrameBytes(raw, make([]byte, 8))

	d := NewDecoder()
	frames, _ := feedBytes(d, data)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].ID() != BlockPVTGeodetic {
		t.Errorf("ID should mask revision bits: got %d", frames[0].ID())
	}
	if frames[0].Revision() != 2 {
		t.Errorf("revision mismatch: expected 2, got %d", frames[0].Revision())
	}
}

func TestDecoder_LeadingNoiseIgnored(t *testing.T) {
	data := append([]byte{0x00, 0xFF, 0x7E, Sync2}, buildFrameBytes(BlockDOP, []byte{1, 2})...)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)
	if len(errs) != 0 {
		t.Fatalf("noise before sync should not error: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after noise, got %d", len(frames))
	}
}

func TestDecoder_SyncViolationResets(t *testing.T) {
	// Sync1 followed by a non-Sync2 byte must return to the sync search
	// with no partial credit, and a subsequent valid frame must still
	// decode.
	data := []byte{Sync1, 0x55}
	data = append(data, buildFrameBytes(BlockDOP, []byte{9, 9, 9, 9})...)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)
	if len(errs) != 0 {
		t.Fatalf("sync violation should be a silent reset: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after sync violation, got %d", len(frames))
	}
	if frames[0].ID() != BlockDOP {
		t.Errorf("wrong frame decoded after sync violation: ID %d", frames[0].ID())
	}
}

func TestDecoder_SyncOneIsNotReinterpreted(t *testing.T) {
	// The second '$' lands on the sync2 check and is consumed by the
	// violation, not treated as the start of a new frame.
	data := []byte{Sync1, Sync1, Sync2 - 1}
	data = append(data, buildFrameBytes(BlockDOP, nil)...)

	d := NewDecoder()
	frames, _ := feedBytes(d, data)
	if len(frames) != 1 {
		t.Fatalf("expected exactly 1 frame, got %d", len(frames))
	}
}

func TestDecoder_LengthOverCapacity(t *testing.T) {
	tests := []struct {
		name       string
		bodyLength int
	}{
		{"just over capacity", MaxFrameSize - frameHeaderSize + 1},
		{"adversarial maximum", 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			header := []byte{
				Sync1, Sync2,
				0x00, 0x00, // declared CRC, irrelevant here
				0x12, 0x34, // ID
				byte(tt.bodyLength), byte(tt.bodyLength >> 8),
			}

			var gotErr error
			for _, b := range header {
				frame, err := d.DecodeByte(b)
				if frame != nil {
					t.Fatal("oversized frame must not complete")
				}
				if err != nil {
					gotErr = err
				}
			}
			if gotErr == nil {
				t.Fatal("expected a discard error at the length field")
			}

			// The decoder must have recovered: a valid frame decodes.
			frames, errs := feedBytes(d, buildFrameBytes(BlockDOP, []byte{1}))
			if len(errs) != 0 || len(frames) != 1 {
				t.Fatalf("decoder did not recover: frames=%d errs=%v", len(frames), errs)
			}
		})
	}
}

func TestDecoder_MaximumAllowedLength(t *testing.T) {
	body := make([]byte, MaxFrameSize-frameHeaderSize)
	data := buildFrameBytes(BlockChannelStatus, body)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)
	if len(errs) != 0 {
		t.Fatalf("maximum-size frame should decode: %v", errs)
	}
	if len(frames) != 1 || len(frames[0].Body()) != len(body) {
		t.Fatal("maximum-size frame did not decode correctly")
	}
}

func TestDecoder_ZeroLengthBody(t *testing.T) {
	data := buildFrameBytes(0x0123, nil)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)
	if len(errs) != 0 {
		t.Fatalf("zero-length body should decode: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if len(frames[0].Body()) != 0 {
		t.Errorf("expected empty body, got %d bytes", len(frames[0].Body()))
	}
	if !frames[0].Valid() {
		t.Error("zero-length frame with correct CRC should be valid")
	}
}

func TestDecoder_CorruptedCRCStillFrames(t *testing.T) {
	// The decoder frames regardless of checksum; validity is the
	// dispatcher's concern.
	data := buildFrameBytes(BlockDOP, []byte{1, 2, 3, 4})
	data[2] ^= 0xFF // corrupt declared CRC

	d := NewDecoder()
	frames, _ := feedBytes(d, data)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Valid() {
		t.Error("frame with corrupted CRC must not validate")
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	data := buildFrameBytes(BlockDOP, []byte{1})
	data = append(data, buildFrameBytes(BlockPVTGeodetic, []byte{2, 3})...)

	d := NewDecoder()
	frames, errs := feedBytes(d, data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].ID() != BlockDOP || frames[1].ID() != BlockPVTGeodetic {
		t.Error("frames decoded out of order")
	}
}

// ============================================================
// Message Parsing Tests
// ============================================================

// buildPVTBody builds a minimal PVTGeodetic body.
func buildPVTBody(tow uint32, wnc uint16, mode, errCode uint8, latRad, lonRad, height float64,
	undulation, vn, ve, vu, cog float32, nrSV uint8, hAcc, vAcc uint16) []byte {

	body := make([]byte, pvtGeodeticMinSize)
	binary.LittleEndian.PutUint32(body[0:], tow)
	binary.LittleEndian.PutUint16(body[4:], wnc)
	body[6] = mode
	body[7] = errCode
	binary.LittleEndian.PutUint64(body[8:], math.Float64bits(latRad))
	binary.LittleEndian.PutUint64(body[16:], math.Float64bits(lonRad))
	binary.LittleEndian.PutUint64(body[24:], math.Float64bits(height))
	binary.LittleEndian.PutUint32(body[32:], math.Float32bits(undulation))
	binary.LittleEndian.PutUint32(body[36:], math.Float32bits(vn))
	binary.LittleEndian.PutUint32(body[40:], math.Float32bits(ve))
	binary.LittleEndian.PutUint32(body[44:], math.Float32bits(vu))
	binary.LittleEndian.PutUint32(body[48:], math.Float32bits(cog))
	body[66] = nrSV
	binary.LittleEndian.PutUint16(body[82:], hAcc)
	binary.LittleEndian.PutUint16(body[84:], vAcc)
	return body
}

func TestParsePVTGeodetic(t *testing.T) {
	body := buildPVTBody(123456, 2000, 1, 0,
		math.Pi/2, -math.Pi/4, 150.5,
		30.5, 3.0, 4.0, 1.5, 90.0, 12, 250, 480)

	pvt, err := ParsePVTGeodetic(body)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if pvt.TOW != 123456 || pvt.WNc != 2000 {
		t.Errorf("time header mismatch: TOW=%d WNc=%d", pvt.TOW, pvt.WNc)
	}
	if pvt.ModeType() != 1 {
		t.Errorf("mode type mismatch: %d", pvt.ModeType())
	}
	if pvt.Latitude != math.Pi/2 || pvt.Longitude != -math.Pi/4 {
		t.Errorf("lat/lon mismatch: %f %f", pvt.Latitude, pvt.Longitude)
	}
	if pvt.NrSV != 12 {
		t.Errorf("NrSV mismatch: %d", pvt.NrSV)
	}
	if pvt.HAccuracy != 250 || pvt.VAccuracy != 480 {
		t.Errorf("accuracy mismatch: %d %d", pvt.HAccuracy, pvt.VAccuracy)
	}
}

func TestParsePVTGeodetic_ModeTypeMasksUpperBits(t *testing.T) {
	// Upper mode bits carry flags, not the solution type.
	body := buildPVTBody(0, 0, 0xF6, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	pvt, err := ParsePVTGeodetic(body)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if pvt.ModeType() != 6 {
		t.Errorf("mode type should mask to 6, got %d", pvt.ModeType())
	}
}

func TestParsePVTGeodetic_TooShort(t *testing.T) {
	if _, err := ParsePVTGeodetic(make([]byte, pvtGeodeticMinSize-1)); err == nil {
		t.Error("expected error for truncated body")
	}
}

func TestParseDOP(t *testing.T) {
	body := make([]byte, dopMinSize)
	binary.LittleEndian.PutUint32(body[0:], 1000)
	binary.LittleEndian.PutUint16(body[4:], 2100)
	body[6] = 9
	binary.LittleEndian.PutUint16(body[8:], 180)  // PDOP
	binary.LittleEndian.PutUint16(body[10:], 90)  // TDOP
	binary.LittleEndian.PutUint16(body[12:], 150) // HDOP
	binary.LittleEndian.PutUint16(body[14:], 220) // VDOP

	dop, err := ParseDOP(body)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dop.NrSV != 9 || dop.PDOP != 180 || dop.HDOP != 150 || dop.VDOP != 220 {
		t.Errorf("field mismatch: %+v", dop)
	}
}

func TestParseVelCovGeodetic(t *testing.T) {
	body := make([]byte, velCovGeodeticMinSize)
	binary.LittleEndian.PutUint32(body[8:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(body[12:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(body[16:], math.Float32bits(0.75))

	cov, err := ParseVelCovGeodetic(body)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if cov.CovVnVn != 0.25 || cov.CovVeVe != 1.5 || cov.CovVuVu != 0.75 {
		t.Errorf("covariance mismatch: %+v", cov)
	}
}

// buildChannelStatusBody builds a ChannelStatus body with n satellite
// records. Each record has the given number of secondary sub-blocks.
func buildChannelStatusBody(n int, sb1, sb2 uint8, secondaryCounts []uint8) []byte {
	body := make([]byte, channelStatusHeaderSize)
	body[6] = uint8(n)
	body[7] = sb1
	body[8] = sb2

	for i := 0; i < n; i++ {
		rec := make([]byte, sb1)
		rec[0] = uint8(10 + i) // SVID
		// Azimuth with rise/set bits set above bit 9 to verify masking.
		binary.LittleEndian.PutUint16(rec[4:], uint16(100+i)|0x0600)
		if i%2 == 0 {
			binary.LittleEndian.PutUint16(rec[6:], healthTracking)
		}
		rec[8] = uint8(40 + i) // elevation
		n2 := secondaryCounts[i%len(secondaryCounts)]
		rec[9] = n2
		body = append(body, rec...)
		body = append(body, make([]byte, int(n2)*int(sb2))...)
	}
	return body
}

func TestParseChannelStatus_VariableStride(t *testing.T) {
	// Varying secondary-block counts force the cursor to advance by a
	// different stride for each record.
	body := buildChannelStatusBody(5, 12, 8, []uint8{0, 3, 1, 2, 0})

	cs, err := ParseChannelStatus(body, MaxSatellites)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cs.Satellites) != 5 {
		t.Fatalf("expected 5 satellites, got %d", len(cs.Satellites))
	}

	for i, sat := range cs.Satellites {
		if sat.SVID != uint8(10+i) {
			t.Errorf("satellite %d: SVID %d, traversal out of step", i, sat.SVID)
		}
		if sat.Azimuth != uint16(100+i) {
			t.Errorf("satellite %d: azimuth %d not masked to 9 bits", i, sat.Azimuth)
		}
		if sat.Elevation != int8(40+i) {
			t.Errorf("satellite %d: elevation %d", i, sat.Elevation)
		}
	}
}

func TestParseChannelStatus_CapsAtMaxSats(t *testing.T) {
	body := buildChannelStatusBody(MaxSatellites+5, 12, 4, []uint8{1})

	cs, err := ParseChannelStatus(body, MaxSatellites)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cs.Satellites) != MaxSatellites {
		t.Errorf("expected cap at %d satellites, got %d", MaxSatellites, len(cs.Satellites))
	}
	if cs.N != uint8(MaxSatellites+5) {
		t.Errorf("reported count should be preserved: %d", cs.N)
	}
}

func TestParseChannelStatus_TruncatedBody(t *testing.T) {
	body := buildChannelStatusBody(4, 12, 4, []uint8{1})
	// Chop the last record in half.
	body = body[:len(body)-10]

	cs, err := ParseChannelStatus(body, MaxSatellites)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cs.Satellites) >= 4 {
		t.Errorf("truncated record should be dropped, got %d satellites", len(cs.Satellites))
	}
}

func TestParseChannelStatus_ZeroStrideStalls(t *testing.T) {
	// SB1Length below the sub-block minimum must not loop forever.
	body := buildChannelStatusBody(3, 12, 0, []uint8{0})
	body[7] = 0

	cs, err := ParseChannelStatus(body, MaxSatellites)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cs.Satellites) != 0 {
		t.Errorf("malformed stride should decode no satellites, got %d", len(cs.Satellites))
	}
}

func TestUnixTime(t *testing.T) {
	// Week 0, 6 seconds in.
	if got := UnixTime(0, 6000); got != gpsEpochUnix+6 {
		t.Errorf("UnixTime(0, 6000) = %d", got)
	}
	// One full week.
	if got := UnixTime(1, 0); got != gpsEpochUnix+secondsPerWeek {
		t.Errorf("UnixTime(1, 0) = %d", got)
	}
	// Sub-second milliseconds truncate.
	if got := UnixTime(0, 6999); got != gpsEpochUnix+6 {
		t.Errorf("UnixTime(0, 6999) = %d", got)
	}
}
