// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import "time"

// FixType classifies the quality of a position solution.
type FixType uint8

// Fix quality tiers, derived from the PVTGeodetic mode field.
const (
	FixNone     FixType = 1
	Fix2D       FixType = 2
	Fix3D       FixType = 3
	FixDGPS     FixType = 4
	FixRTKFloat FixType = 5
	FixRTKFixed FixType = 6
)

func (f FixType) String() string {
	switch f {
	case FixNone:
		return "none"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	case FixDGPS:
		return "DGPS"
	case FixRTKFloat:
		return "RTK float"
	case FixRTKFixed:
		return "RTK fixed"
	default:
		return "unknown"
	}
}

// fixTypeFromMode maps the PVT solution mode to a fix tier.
func fixTypeFromMode(modeType uint8) FixType {
	switch {
	case modeType < 1:
		return FixNone
	case modeType == 6:
		return FixDGPS
	case modeType == 5 || modeType == 8:
		return FixRTKFloat
	case modeType == 4 || modeType == 7:
		return FixRTKFixed
	default:
		return Fix3D
	}
}

// PositionFix is the caller-owned navigation output record. The driver
// only writes into it; ownership stays with the caller.
type PositionFix struct {
	FixType        FixType
	VelValid       bool
	SatellitesUsed uint8

	Latitude     float64 // degrees
	Longitude    float64 // degrees
	AltEllipsoid float64 // meters
	Altitude     float64 // orthometric, meters

	EpH float32 // horizontal accuracy, meters
	EpV float32 // vertical accuracy, meters

	HDOP float32
	VDOP float32

	VelN  float32 // m/s
	VelE  float32 // m/s
	VelD  float32 // m/s
	Speed float32 // ground speed, m/s

	CourseRad         float32 // radians
	CourseVarianceRad float32
	SpeedVariance     float32 // m^2/s^2

	TimeUTCMicros uint64 // receiver UTC, microseconds since Unix epoch
	Timestamp     time.Time
}

// MaxSatellites bounds the satellite-info output record.
const MaxSatellites = 20

// Satellite is one entry of the satellite visibility record.
type Satellite struct {
	SVID      uint8
	Used      bool
	Elevation int8   // degrees
	Azimuth   uint16 // degrees
	SNR       uint8  // not reported by ChannelStatus, left at zero
}

// SatelliteInfo is the caller-owned satellite visibility record.
type SatelliteInfo struct {
	Count      int
	Satellites [MaxSatellites]Satellite
	Timestamp  time.Time
}
