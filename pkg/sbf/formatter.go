// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"fmt"
	"math"
)

// FormatFrame formats a decoded frame into a human-readable string.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	name := FormatBlockName(f.ID())

	status := "ok"
	if !f.Valid() {
		status = "CRC MISMATCH"
	}

	result := fmt.Sprintf("[%s] %s (%d) rev=%d len=%d crc=0x%04X %s\n",
		timestamp, name, f.ID(), f.Revision(), len(f.Body()), f.CRC(), status)

	if f.Valid() {
		result += FormatBody(f.ID(), f.Body())
	}

	return result
}

// FormatBlockName returns the human-readable name for a block number.
func FormatBlockName(id uint16) string {
	switch id {
	case BlockPVTGeodetic:
		return "PVTGeodetic"
	case BlockVelCovGeodetic:
		return "VelCovGeodetic"
	case BlockDOP:
		return "DOP"
	case BlockChannelStatus:
		return "ChannelStatus"
	default:
		return "UNKNOWN"
	}
}

// FormatBody formats the decoded fields of a known block body.
func FormatBody(id uint16, body []byte) string {
	switch id {
	case BlockPVTGeodetic:
		pvt, err := ParsePVTGeodetic(body)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  Mode: %d (%s), SVs: %d, Lat: %.7f°, Lon: %.7f°, Hgt: %.2f m\n",
			pvt.ModeType(), fixTypeFromMode(pvt.ModeType()), pvt.NrSV,
			pvt.Latitude*(180.0/math.Pi),
			pvt.Longitude*(180.0/math.Pi),
			pvt.Height)

	case BlockVelCovGeodetic:
		cov, err := ParseVelCovGeodetic(body)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  Cov VnVn: %.4f, VeVe: %.4f, VuVu: %.4f\n",
			cov.CovVnVn, cov.CovVeVe, cov.CovVuVu)

	case BlockDOP:
		dop, err := ParseDOP(body)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  PDOP: %.2f, HDOP: %.2f, VDOP: %.2f, SVs: %d\n",
			float32(dop.PDOP)*0.01, float32(dop.HDOP)*0.01, float32(dop.VDOP)*0.01, dop.NrSV)

	case BlockChannelStatus:
		cs, err := ParseChannelStatus(body, MaxSatellites)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		result := fmt.Sprintf("  Satellites: %d (of %d reported)\n", len(cs.Satellites), cs.N)
		for _, sat := range cs.Satellites {
			used := " "
			if sat.HealthStatus == healthTracking {
				used = "*"
			}
			result += fmt.Sprintf("   %s SV %3d  elev %3d°  az %3d°\n", used, sat.SVID, sat.Elevation, sat.Azimuth)
		}
		return result

	default:
		return ""
	}
}

// FormatFix formats a position record as a single status line.
func FormatFix(pos *PositionFix) string {
	return fmt.Sprintf("[%s] %s  %.7f° %.7f°  alt %.2f m  vel %.2f m/s  hdop %.2f vdop %.2f  sats %d",
		pos.Timestamp.Format("15:04:05.000"), pos.FixType,
		pos.Latitude, pos.Longitude, pos.Altitude,
		pos.Speed, pos.HDOP, pos.VDOP, pos.SatellitesUsed)
}
