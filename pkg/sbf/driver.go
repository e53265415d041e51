// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Transport is the byte-level link to the receiver. ReadWithTimeout
// returns 0 bytes (and no error) when the timeout elapses without data.
type Transport interface {
	Write(p []byte) (int, error)
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	SetBaudRate(rate int) error
}

// Clock receives receiver-derived UTC time. It is invoked only when a
// freshly decoded timestamp exceeds the sanity floor.
type Clock interface {
	SetClock(t time.Time)
}

// Result reports what a Receive call produced. Values combine as a
// bitmask: a single call can complete a navigation cycle and update
// satellite info.
type Result int

// Receive results
const (
	ResultNone    Result = 0
	ResultNav     Result = 1 << 0 // position/velocity/DOP cycle complete
	ResultSatInfo Result = 1 << 1 // satellite visibility updated
)

// Errors surfaced by the driver. Frame-level failures (sync violations,
// oversized lengths, checksum mismatches) are recovered locally and
// never propagate.
var (
	ErrTimeout             = errors.New("sbf: receive timeout")
	ErrConfigurationFailed = errors.New("sbf: all baud rate candidates exhausted")
)

// cycleStatus tracks which block kinds have arrived in the current
// reporting cycle.
type cycleStatus struct {
	position bool
	velCov   bool
	dop      bool
}

func (c cycleStatus) complete() bool {
	return c.position && c.velCov && c.dop
}

// Driver decodes the SBF stream from a receiver and drives its
// configuration handshake. It is single-threaded: one caller owns the
// driver, the decoder state and the output records for the duration of
// each call.
type Driver struct {
	transport Transport
	clock     Clock

	decoder    *Decoder
	configured bool

	cycle  cycleStatus
	gotPos bool
	gotDOP bool
}

// NewDriver creates a driver on the given transport. clock may be nil
// if receiver time is not wanted.
func NewDriver(transport Transport, clock Clock) *Driver {
	return &Driver{
		transport: transport,
		clock:     clock,
		decoder:   NewDecoder(),
	}
}

// Configured reports whether the configuration handshake has completed.
func (d *Driver) Configured() bool {
	return d.configured
}

// Configure performs the configuration handshake: for each candidate
// baud rate it switches the transport, drains stale input, negotiates
// the baud via setCOMSettings, sets the receiver dynamics model for the
// given dynamics parameter, and replays the fixed configuration batch,
// requiring an acknowledgment for every command. The first candidate to
// complete the whole sequence wins; exhaustion of all candidates
// returns ErrConfigurationFailed.
//
// Returns the baud rate in effect after configuration.
func (d *Driver) Configure(dynamics uint8) (int, error) {
	d.configured = false

	for _, baud := range baudCandidates {
		if err := d.transport.SetBaudRate(baud); err != nil {
			continue
		}

		// Discard whatever was in flight at the old baud.
		d.decoder.Reset()
		d.drainInput(flushWindow)
		d.decoder.Reset()

		if !d.sendAndAwaitAck(fmt.Sprintf(cmdSetBaudRate, baud)) {
			continue
		}

		// The receiver silently adopts its fixed operating baud after
		// the port settings command.
		if baud != ReceiverBaudRate {
			if err := d.transport.SetBaudRate(ReceiverBaudRate); err != nil {
				continue
			}
			baud = ReceiverBaudRate
		}

		if !d.sendAndAwaitAck(fmt.Sprintf(cmdSetDynamics, dynamicsModel(dynamics))) {
			continue
		}

		if !d.sendConfigBatch() {
			continue
		}

		d.configured = true
		return baud, nil
	}

	return 0, ErrConfigurationFailed
}

// dynamicsModel maps the dynamics parameter to a receiver dynamics mode
// string.
func dynamicsModel(dynamics uint8) string {
	switch {
	case dynamics < dynamicsModerate:
		return "low"
	case dynamics < dynamicsHigh:
		return "moderate"
	case dynamics < dynamicsMax:
		return "high"
	default:
		return "max"
	}
}

// sendConfigBatch replays the static configuration commands, one
// acknowledged line at a time. The first unacknowledged line aborts the
// rest of the batch.
func (d *Driver) sendConfigBatch() bool {
	for _, line := range strings.SplitAfter(configBatch, "\n") {
		if line == "" {
			continue
		}
		if !d.sendAndAwaitAck(line) {
			return false
		}
	}
	return true
}

// sendAndAwaitAck sends one command and waits for its acknowledgment.
// For all valid set-, get- and exe-commands the first line of the reply
// is an exact copy of the command as entered, preceded by "$R: ". Any
// other reply, a timeout or a read failure fails the exchange.
func (d *Driver) sendAndAwaitAck(cmd string) bool {
	n, err := d.transport.Write([]byte(cmd))
	if err != nil || n != len(cmd) {
		return false
	}

	want := ackPrefix + strings.TrimRight(cmd, "\r\n")
	got := make([]byte, 0, len(want)+readBufferSize)
	buf := make([]byte, readBufferSize)
	deadline := time.Now().Add(AckTimeout)

	for len(got) < len(want) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		n, err := d.transport.ReadWithTimeout(buf, remaining)
		if err != nil || n == 0 {
			return false
		}
		got = append(got, buf[:n]...)
	}

	return string(got[:len(want)]) == want
}

// drainInput discards pending input for at most the given window.
func (d *Driver) drainInput(window time.Duration) {
	buf := make([]byte, readBufferSize)
	deadline := time.Now().Add(window)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		n, err := d.transport.ReadWithTimeout(buf, remaining)
		if err != nil || n == 0 {
			return
		}
	}
}

// Receive pulls bytes from the transport and feeds the frame decoder
// until the reporting cycle is ready, writing navigation facts into the
// caller-owned output records. Before configuration any dispatched
// frame suffices; after configuration the call returns only once both a
// position and a DOP block have arrived in this cycle. Exceeding the
// overall timeout returns ErrTimeout; transport failures are fatal to
// the call.
func (d *Driver) Receive(timeout time.Duration, pos *PositionFix, sats *SatelliteInfo) (Result, error) {
	buf := make([]byte, readBufferSize)
	started := time.Now()
	handled := ResultNone
	dispatched := false

	// A fresh call starts a fresh reporting cycle.
	d.gotPos = false
	d.gotDOP = false
	d.cycle = cycleStatus{}

	for {
		ready := dispatched
		if d.configured {
			ready = d.gotPos && d.gotDOP
		}

		// Wait only for the short packet timeout once something already
		// arrived, to drain buffered bytes promptly.
		wait := timeout
		if ready {
			wait = PacketTimeout
		}

		n, err := d.transport.ReadWithTimeout(buf, wait)
		if err != nil {
			return ResultNone, fmt.Errorf("transport read: %w", err)
		}

		if n == 0 {
			if ready {
				d.gotPos = false
				d.gotDOP = false
				return handled, nil
			}
		} else {
			for i := 0; i < n; i++ {
				frame, err := d.decoder.DecodeByte(buf[i])
				if err != nil {
					// Frame discarded; the decoder has already reset.
					continue
				}
				if frame != nil {
					result, ok := d.dispatch(frame, pos, sats)
					handled |= result
					dispatched = dispatched || ok
				}
			}
		}

		if time.Since(started) > timeout {
			return ResultNone, ErrTimeout
		}
	}
}

// dispatch verifies a completed frame's checksum and decodes it into
// the output records. A checksum mismatch is a no-op discard reporting
// nothing handled. The boolean reports whether a recognized, valid
// block was routed; unknown block numbers are accepted but produce no
// output mutation and do not count as dispatched.
func (d *Driver) dispatch(frame *Frame, pos *PositionFix, sats *SatelliteInfo) (Result, bool) {
	if !frame.Valid() {
		return ResultNone, false
	}

	switch frame.ID() {
	case BlockPVTGeodetic:
		return d.handlePVTGeodetic(frame.Body(), pos), true
	case BlockVelCovGeodetic:
		return d.handleVelCovGeodetic(frame.Body(), pos), true
	case BlockDOP:
		return d.handleDOP(frame.Body(), pos), true
	case BlockChannelStatus:
		return d.handleChannelStatus(frame.Body(), sats), true
	default:
		return ResultNone, false
	}
}

func (d *Driver) handlePVTGeodetic(body []byte, pos *PositionFix) Result {
	pvt, err := ParsePVTGeodetic(body)
	if err != nil {
		return ResultNone
	}

	pos.FixType = fixTypeFromMode(pvt.ModeType())
	pos.VelValid = pos.FixType > FixNone && pvt.Error == 0
	pos.SatellitesUsed = pvt.NrSV

	pos.Latitude = pvt.Latitude * (180.0 / math.Pi)
	pos.Longitude = pvt.Longitude * (180.0 / math.Pi)
	pos.AltEllipsoid = pvt.Height
	pos.Altitude = pvt.Height - float64(pvt.Undulation)

	pos.EpH = float32(pvt.HAccuracy) / 100.0
	pos.EpV = float32(pvt.VAccuracy) / 100.0

	pos.VelN = pvt.Vn
	pos.VelE = pvt.Ve
	pos.VelD = -pvt.Vu
	pos.Speed = float32(math.Sqrt(float64(pvt.Vn)*float64(pvt.Vn) + float64(pvt.Ve)*float64(pvt.Ve)))

	pos.CourseRad = pvt.COG * (math.Pi / 180.0)
	pos.CourseVarianceRad = 1.0 * (math.Pi / 180.0) * 1e-5

	pos.TimeUTCMicros = 0
	epoch := UnixTime(pvt.WNc, pvt.TOW)
	if epoch > gpsTimeSanityFloor {
		subMillis := int64(pvt.TOW % 1000)
		if d.clock != nil {
			d.clock.SetClock(time.Unix(epoch, subMillis*int64(time.Millisecond)))
		}
		pos.TimeUTCMicros = uint64(epoch)*1000000 + uint64(subMillis)*1000
	}

	pos.Timestamp = time.Now()

	d.cycle.position = true
	d.gotPos = true
	if d.cycle.complete() {
		return ResultNav
	}
	return ResultNone
}

func (d *Driver) handleVelCovGeodetic(body []byte, pos *PositionFix) Result {
	cov, err := ParseVelCovGeodetic(body)
	if err != nil {
		return ResultNone
	}

	pos.SpeedVariance = max(cov.CovVnVn, cov.CovVeVe, cov.CovVuVu)

	d.cycle.velCov = true
	return ResultNone
}

func (d *Driver) handleDOP(body []byte, pos *PositionFix) Result {
	dop, err := ParseDOP(body)
	if err != nil {
		return ResultNone
	}

	pos.HDOP = float32(dop.HDOP) * 0.01
	pos.VDOP = float32(dop.VDOP) * 0.01

	d.cycle.dop = true
	d.gotDOP = true
	return ResultNone
}

func (d *Driver) handleChannelStatus(body []byte, sats *SatelliteInfo) Result {
	cs, err := ParseChannelStatus(body, MaxSatellites)
	if err != nil {
		return ResultNone
	}

	sats.Timestamp = time.Now()
	sats.Count = len(cs.Satellites)
	for i, sat := range cs.Satellites {
		sats.Satellites[i] = Satellite{
			SVID:      sat.SVID,
			Used:      sat.HealthStatus == healthTracking,
			Elevation: sat.Elevation,
			Azimuth:   sat.Azimuth,
			SNR:       0,
		}
	}

	return ResultSatInfo
}
