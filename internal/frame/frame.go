// stm32-sdcard
// Copyright (c) 2026 The stm32-sdcard Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of stm32-sdcard.
//
// stm32-sdcard is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// stm32-sdcard is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with stm32-sdcard; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package frame provides SPI-mode command framing and protocol constants
// for SD/MMC cards.
package frame

// Dummy is the byte clocked out when the host only wants to read. The card
// sees an idle (all-ones) data-in line, which is what the SD protocol
// requires between transactions.
const Dummy = 0xFF

// BlockSize is the fixed sector size used on the wire. Standard-capacity
// cards are forced to it with SET_BLOCKLEN; high-capacity cards only ever
// transfer 512-byte blocks.
const BlockSize = 512

// Length is the size of an SPI-mode command frame: index byte, four
// big-endian argument bytes, one CRC byte.
const Length = 6

// Start tokens framing data blocks on the wire. At idle with CS asserted
// the data line carries only 0xFF, so any other byte marks a boundary.
const (
	TokenBlockStart      = 0xFE // single read/write and multi-block read
	TokenMultiWriteStart = 0xFC // each block of a multi-block write
	TokenMultiWriteStop  = 0xFD // terminates a multi-block write
)

// R1 response bits. Bit 7 is always zero in a valid response; while the
// card has not answered yet the host reads 0xFF, so the check bit doubles
// as the framing marker during response polling.
const (
	R1IdleState      = 0x01
	R1EraseReset     = 0x02
	R1IllegalCommand = 0x04
	R1CommandCRC     = 0x08
	R1EraseSequence  = 0x10
	R1AddressError   = 0x20
	R1ParameterError = 0x40
	R1CheckBit       = 0x80
)

// Data response token values (write path). Only bits 1-3 carry meaning.
const (
	DataResponseMask  = 0x0E
	DataAccepted      = 0x04
	DataRejectedCRC   = 0x0A
	DataRejectedWrite = 0x0C
)

// crc7 computes the CRC-7 of data with polynomial x^7 + x^3 + 1, the
// checksum SD commands carry in their final frame byte.
func crc7(data []byte) byte {
	var crc byte
	for _, b := range data {
		for bit := 0; bit < 8; bit++ {
			crc <<= 1
			if (b&0x80)^(crc&0x80) != 0 {
				crc ^= 0x09
			}
			b <<= 1
		}
	}
	return crc & 0x7F
}

// Build assembles the 6-byte command frame for the given index (0-63) and
// argument. The trailing byte is the CRC-7 shifted left with the stop bit
// set; only GO_IDLE_STATE and SEND_IF_COND verify it in SPI mode, but a
// correct value is always wire-legal.
func Build(buf *[Length]byte, cmd byte, arg uint32) {
	buf[0] = (cmd & 0x3F) | 0x40
	buf[1] = byte(arg >> 24)
	buf[2] = byte(arg >> 16)
	buf[3] = byte(arg >> 8)
	buf[4] = byte(arg)
	buf[5] = Checksum(cmd, arg)
}

// Checksum returns the complete trailing frame byte for a command:
// CRC-7 over the first five frame bytes, shifted left, stop bit set.
func Checksum(cmd byte, arg uint32) byte {
	head := [5]byte{
		(cmd & 0x3F) | 0x40,
		byte(arg >> 24),
		byte(arg >> 16),
		byte(arg >> 8),
		byte(arg),
	}
	return crc7(head[:])<<1 | 0x01
}
