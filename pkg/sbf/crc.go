// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pelorus Project

package sbf

// CalculateCRC computes the 16-bit SBF block checksum for the given data.
//
// The receiver computes the same function over the ID + length + body
// region of each block, so the recurrence must match it bit for bit:
// fold the high checksum byte with the input byte, self-XOR the fold by
// four bits, then recombine at bit offsets 12, 5 and 0.
func CalculateCRC(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		x := byte(crc>>8) ^ b
		x ^= x >> 4
		crc = (crc << 8) ^ (uint16(x) << 12) ^ (uint16(x) << 5) ^ uint16(x)
	}
	return crc
}
