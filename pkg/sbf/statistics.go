// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"fmt"
	"time"
)

// Statistics tracks frame counts and error rates for a decode session.
type Statistics struct {
	StartTime time.Time

	// Counters
	TotalFrames   uint64
	ValidFrames   uint64
	CRCErrors     uint64
	DecodeErrors  uint64
	UnknownBlocks uint64
	NavBlocks     uint64
	SatBlocks     uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Update updates statistics for one decoder event: a completed frame, a
// decode discard, or both nil (still decoding).
func (s *Statistics) Update(frame *Frame, decodeErr error) {
	if decodeErr != nil {
		s.TotalFrames++
		s.DecodeErrors++
		return
	}
	if frame == nil {
		return
	}

	s.TotalFrames++
	if !frame.Valid() {
		s.CRCErrors++
		return
	}

	s.ValidFrames++
	switch frame.ID() {
	case BlockPVTGeodetic, BlockVelCovGeodetic, BlockDOP:
		s.NavBlocks++
	case BlockChannelStatus:
		s.SatBlocks++
	default:
		s.UnknownBlocks++
	}
}

// CalculateRates calculates frame and error rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.CRCErrors+s.DecodeErrors) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, crcPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		crcPercent = float64(s.CRCErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, crcPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Discards: %8d\n", s.DecodeErrors)
	}
	if s.UnknownBlocks > 0 {
		result += fmt.Sprintf("Unknown Blocks:  %8d\n", s.UnknownBlocks)
	}

	result += fmt.Sprintf("Nav Blocks:      %8d\n", s.NavBlocks)
	result += fmt.Sprintf("Sat Blocks:      %8d\n", s.SatBlocks)
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters.
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
