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

package cardsim

// csd builds a register image whose capacity fields round-trip to the
// simulator's sector count. Standard-capacity variants use the v1 layout
// (multiplier fixed at 0, so the sector count must divide by 4);
// high-capacity uses the v2 layout (22-bit size in 512 KB units).
func (c *Card) csd() []byte {
	raw := make([]byte, 16)
	const ccc = 0x5B5 // basic, read, write, erase, protect, app, switch

	raw[1] = 0x0E // TAAC 1 ms
	raw[2] = 0x00
	raw[3] = 0x32 // 25 MHz
	raw[4] = byte(ccc >> 4)
	raw[5] = byte(ccc&0x0F)<<4 | 9 // READ_BL_LEN 2^9

	if c.variant == SDHC {
		csize := c.sectors/1024 - 1
		raw[0] = 0x40 // CSD_STRUCTURE 1
		raw[7] = byte(csize>>16) & 0x3F
		raw[8] = byte(csize >> 8)
		raw[9] = byte(csize)
	} else {
		csize := c.sectors/4 - 1 // C_SIZE_MULT 0: 2^2 blocks per unit
		raw[6] = byte(csize>>10) & 0x03
		raw[7] = byte(csize >> 2)
		raw[8] = byte(csize&0x03) << 6
	}

	raw[10] = 0x40 | 0x3F // ERASE_BLK_EN, SECTOR_SIZE high bits
	raw[11] = 0x80        // SECTOR_SIZE low bit
	raw[12] = 0x08 | 0x02 // R2W_FACTOR 4, WRITE_BL_LEN high bits
	raw[13] = 0x40        // WRITE_BL_LEN low bits (2^9)
	raw[15] = 0x01
	return raw
}

// cid builds a fixed card-identification image.
func (c *Card) cid() []byte {
	raw := make([]byte, 16)
	raw[0] = 0x03
	copy(raw[1:3], "SD")
	copy(raw[3:8], "GOSIM")
	raw[8] = 0x10 // revision 1.0
	raw[9] = 0xDE // serial number
	raw[10] = 0xAD
	raw[11] = 0xBE
	raw[12] = 0xEF
	raw[13] = 0x01 // 2023-07
	raw[14] = 0x77
	raw[15] = 0x01
	return raw
}

// scr builds the configuration register, reflecting the configured
// erased-state byte.
func (c *Card) scr() []byte {
	raw := make([]byte, 8)
	raw[0] = 0x02 // SCR v1, spec 2.00
	raw[1] = 0x25 // security 2, bus widths 1+4 bit
	if c.erasedByte == 0xFF {
		raw[1] |= 0x80
	}
	raw[2] = 0x80 // spec 3.0x
	raw[3] = 0x02 // CMD23 supported
	return raw
}

// status builds the 64-byte SD status record.
func (*Card) status() []byte {
	raw := make([]byte, 64)
	raw[8] = 0x04  // speed class 10
	raw[9] = 0x02  // performance move 2 MB/s
	raw[10] = 0x90 // AU size 4 MB
	raw[11] = 0x00
	raw[12] = 0x10 // erase size 16 AU
	raw[13] = 0x09 // erase timeout 2 s, offset 1 s
	raw[14] = 0x17 // UHS grade >10 MB/s, UHS AU 1 MB
	return raw
}
