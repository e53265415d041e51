// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Block body layouts, little-endian, offsets relative to the start of
// the body (after the ID and length fields). Every recognized block
// begins with the common time header: TOW in milliseconds and the GPS
// week number.

// PVTGeodetic is the position/velocity/time block (4007).
type PVTGeodetic struct {
	TOW        uint32
	WNc        uint16
	Mode       uint8
	Error      uint8
	Latitude   float64 // radians
	Longitude  float64 // radians
	Height     float64 // ellipsoidal, meters
	Undulation float32 // geoid undulation, meters
	Vn         float32 // m/s
	Ve         float32 // m/s
	Vu         float32 // m/s
	COG        float32 // course over ground, degrees
	RxClkBias  float64
	NrSV       uint8
	HAccuracy  uint16 // cm
	VAccuracy  uint16 // cm
}

// ModeType returns the PVT solution type from the low four mode bits.
func (p *PVTGeodetic) ModeType() uint8 {
	return p.Mode & 0x0F
}

const pvtGeodeticMinSize = 86

// ParsePVTGeodetic decodes a PVTGeodetic block body.
func ParsePVTGeodetic(body []byte) (*PVTGeodetic, error) {
	if len(body) < pvtGeodeticMinSize {
		return nil, fmt.Errorf("PVTGeodetic body too short: %d bytes", len(body))
	}
	return &PVTGeodetic{
		TOW:        binary.LittleEndian.Uint32(body[0:]),
		WNc:        binary.LittleEndian.Uint16(body[4:]),
		Mode:       body[6],
		Error:      body[7],
		Latitude:   float64At(body, 8),
		Longitude:  float64At(body, 16),
		Height:     float64At(body, 24),
		Undulation: float32At(body, 32),
		Vn:         float32At(body, 36),
		Ve:         float32At(body, 40),
		Vu:         float32At(body, 44),
		COG:        float32At(body, 48),
		RxClkBias:  float64At(body, 52),
		NrSV:       body[66],
		HAccuracy:  binary.LittleEndian.Uint16(body[82:]),
		VAccuracy:  binary.LittleEndian.Uint16(body[84:]),
	}, nil
}

// VelCovGeodetic is the velocity covariance block (5908).
type VelCovGeodetic struct {
	TOW     uint32
	WNc     uint16
	Mode    uint8
	Error   uint8
	CovVnVn float32
	CovVeVe float32
	CovVuVu float32
	CovDtDt float32
}

const velCovGeodeticMinSize = 24

// ParseVelCovGeodetic decodes a VelCovGeodetic block body.
func ParseVelCovGeodetic(body []byte) (*VelCovGeodetic, error) {
	if len(body) < velCovGeodeticMinSize {
		return nil, fmt.Errorf("VelCovGeodetic body too short: %d bytes", len(body))
	}
	return &VelCovGeodetic{
		TOW:     binary.LittleEndian.Uint32(body[0:]),
		WNc:     binary.LittleEndian.Uint16(body[4:]),
		Mode:    body[6],
		Error:   body[7],
		CovVnVn: float32At(body, 8),
		CovVeVe: float32At(body, 12),
		CovVuVu: float32At(body, 16),
		CovDtDt: float32At(body, 20),
	}, nil
}

// DOP is the dilution-of-precision block (4001). The DOP fields are
// reported scaled by 100.
type DOP struct {
	TOW  uint32
	WNc  uint16
	NrSV uint8
	PDOP uint16
	TDOP uint16
	HDOP uint16
	VDOP uint16
}

const dopMinSize = 16

// ParseDOP decodes a DOP block body.
func ParseDOP(body []byte) (*DOP, error) {
	if len(body) < dopMinSize {
		return nil, fmt.Errorf("DOP body too short: %d bytes", len(body))
	}
	return &DOP{
		TOW:  binary.LittleEndian.Uint32(body[0:]),
		WNc:  binary.LittleEndian.Uint16(body[4:]),
		NrSV: body[6],
		PDOP: binary.LittleEndian.Uint16(body[8:]),
		TDOP: binary.LittleEndian.Uint16(body[10:]),
		HDOP: binary.LittleEndian.Uint16(body[12:]),
		VDOP: binary.LittleEndian.Uint16(body[14:]),
	}, nil
}

// ChannelStatus is the satellite channel status block (4013). Each of
// the N satellite records is one fixed-size first sub-block followed by
// N2 secondary sub-blocks; only the first sub-block is decoded but the
// cursor must advance past the whole record.
type ChannelStatus struct {
	TOW        uint32
	WNc        uint16
	N          uint8
	SB1Length  uint8
	SB2Length  uint8
	Satellites []ChannelSatInfo
}

// ChannelSatInfo is the fixed first sub-block of one satellite record.
type ChannelSatInfo struct {
	SVID         uint8
	FreqNr       uint8
	Azimuth      uint16 // 9-bit azimuth, degrees
	HealthStatus uint16
	Elevation    int8 // degrees
	N2           uint8
	RxChannel    uint8
}

const (
	channelStatusHeaderSize = 12
	channelSatInfoMinSize   = 12
)

// ParseChannelStatus decodes a ChannelStatus block body, traversing at
// most maxSats satellite records. Records truncated by the body length
// are dropped.
func ParseChannelStatus(body []byte, maxSats int) (*ChannelStatus, error) {
	if len(body) < channelStatusHeaderSize {
		return nil, fmt.Errorf("ChannelStatus body too short: %d bytes", len(body))
	}
	cs := &ChannelStatus{
		TOW:       binary.LittleEndian.Uint32(body[0:]),
		WNc:       binary.LittleEndian.Uint16(body[4:]),
		N:         body[6],
		SB1Length: body[7],
		SB2Length: body[8],
	}

	stride1 := int(cs.SB1Length)
	if stride1 < channelSatInfoMinSize {
		// A malformed sub-block size would stall the cursor.
		return cs, nil
	}

	cursor := channelStatusHeaderSize
	for i := 0; i < int(cs.N) && i < maxSats; i++ {
		if cursor+channelSatInfoMinSize > len(body) {
			break
		}
		rec := body[cursor:]
		sat := ChannelSatInfo{
			SVID:         rec[0],
			FreqNr:       rec[1],
			Azimuth:      binary.LittleEndian.Uint16(rec[4:]) & azimuthMask,
			HealthStatus: binary.LittleEndian.Uint16(rec[6:]),
			Elevation:    int8(rec[8]),
			N2:           rec[9],
			RxChannel:    rec[10],
		}
		cs.Satellites = append(cs.Satellites, sat)
		// Advance past the full variable-length record: first sub-block
		// plus N2 secondary sub-blocks.
		cursor += stride1 + int(sat.N2)*int(cs.SB2Length)
	}

	return cs, nil
}

// UnixTime converts a GPS week number and time of week in milliseconds
// to a Unix timestamp (no leap second correction, as the original
// driver does).
func UnixTime(wnc uint16, towMillis uint32) int64 {
	return gpsEpochUnix + int64(wnc)*secondsPerWeek + int64(towMillis/1000)
}

func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func float64At(b []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
}
