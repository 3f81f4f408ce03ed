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

package sdcard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A real-world 2 GB SDSC register image: layout 0, READ_BL_LEN 10,
// C_SIZE 3751, C_SIZE_MULT 7.
func csdV1Image() []byte {
	return []byte{
		0x00,       // structure 0
		0x26, 0x00, // TAAC, NSAC
		0x32,       // 25 MHz
		0x5B, 0x5A, // CCC 0x5B5, READ_BL_LEN 10
		0x83, 0xA9, 0xFF, // partial read, C_SIZE 3751 spans here
		0xFF, 0xCF, // currents, C_SIZE_MULT 7
		0x80, 0x16, 0x80, 0x00, // erase/protect/write fields
		0x91, // CRC
	}
}

// An 8 GB SDHC register image: layout 1, C_SIZE 15159.
func csdV2Image() []byte {
	return []byte{
		0x40,       // structure 1
		0x0E, 0x00, // TAAC, NSAC
		0x32,       // 25 MHz
		0x5B, 0x59, // CCC 0x5B5, READ_BL_LEN 9
		0x00, 0x00, 0x3B, 0x37, // C_SIZE 15159
		0x7F, 0x80, // erase sector size 127
		0x0A, 0x40, 0x00, // write fields
		0x01, // CRC
	}
}

func TestParseCSD_LayoutV1(t *testing.T) {
	t.Parallel()
	csd := parseCSD(csdV1Image())

	assert.Equal(t, uint8(0), csd.Structure)
	assert.Equal(t, uint8(10), csd.RdBlockLen)
	assert.Equal(t, uint32(3751), csd.DeviceSize)
	assert.Equal(t, uint8(7), csd.DeviceSizeMul)
	assert.Equal(t, uint16(0x5B5), csd.CardCommandClasses)
	assert.True(t, csd.PartBlockRead)

	// Layout 0 must have produced a usable multiplier.
	assert.NotZero(t, csd.DeviceSizeMul)
}

func TestParseCSD_LayoutV2(t *testing.T) {
	t.Parallel()
	csd := parseCSD(csdV2Image())

	assert.Equal(t, uint8(1), csd.Structure)
	assert.Equal(t, uint8(9), csd.RdBlockLen)
	assert.Equal(t, uint32(15159), csd.DeviceSize)
	// 22 bits of bytes 7-9: the top byte never leaks in.
	assert.Less(t, csd.DeviceSize, uint32(1)<<22)
	assert.Equal(t, uint8(127), csd.EraseSectorSize)
	assert.True(t, csd.EraseBlockEnable)
}

func TestCapacityKB(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		csd       CSD
		wantKB    uint64
		wantBlock uint32
	}{
		{
			// (3751+1) * 2^(7+2) units of 1 KB.
			name:      "2GB class SDSC",
			csd:       CSD{Structure: 0, DeviceSize: 3751, DeviceSizeMul: 7, RdBlockLen: 10},
			wantKB:    3752 * 512,
			wantBlock: 1024,
		},
		{
			// Small v1 card: (15+1) * 2^2 blocks of 512 bytes = 32 KB.
			name:      "tiny SDSC",
			csd:       CSD{Structure: 0, DeviceSize: 15, DeviceSizeMul: 0, RdBlockLen: 9},
			wantKB:    32,
			wantBlock: 512,
		},
		{
			// (15159+1) * 512 KB units: ~7.4 GB.
			name:      "8GB class SDHC",
			csd:       CSD{Structure: 1, DeviceSize: 15159, RdBlockLen: 9},
			wantKB:    15160 * 512,
			wantBlock: 512,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotKB, gotBlock := capacityKB(&tt.csd)
			assert.Equal(t, tt.wantKB, gotKB)
			assert.Equal(t, tt.wantBlock, gotBlock)
		})
	}
}

func TestParseCID(t *testing.T) {
	t.Parallel()
	raw := []byte{
		0x03,       // SanDisk
		'S', 'D',   // OEM
		'S', 'U', '0', '4', 'G', // product name
		0x80,                   // revision 8.0
		0x12, 0x34, 0x56, 0x78, // serial
		0x01, 0x47, // 2020-07
		0xAB, // CRC
	}
	cid := parseCID(raw)

	assert.Equal(t, uint8(0x03), cid.ManufacturerID)
	assert.Equal(t, "SU04G", cid.ProductName())
	assert.Equal(t, uint8(0x80), cid.ProdRev)
	assert.Equal(t, uint32(0x12345678), cid.ProdSN)
	assert.Equal(t, uint16(2020), cid.ManufactYear)
	assert.Equal(t, uint8(7), cid.ManufactMonth)
	assert.Equal(t, uint8(0x55), cid.CRC)
}

func TestParseSCR(t *testing.T) {
	t.Parallel()
	raw := []byte{0x02, 0xA5, 0x80, 0x03, 0x00, 0x00, 0x00, 0x00}
	scr := parseSCR(raw)

	assert.Equal(t, uint8(0), scr.Version)
	assert.Equal(t, uint8(2), scr.SpecVersion)
	assert.True(t, scr.SpecVersion3)
	assert.Equal(t, uint8(1), scr.DataAfterErase)
	assert.Equal(t, byte(0xFF), scr.ErasedByte())
	assert.Equal(t, uint8(2), scr.Security)
	assert.Equal(t, uint8(0x05), scr.BusWidths)
	assert.True(t, scr.CmdSetBlockCnt)
	assert.True(t, scr.CmdSpeedClass)
}

func TestReadSCR_MMCShortcut(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	device := &Device{transport: mock, config: DefaultDeviceConfig(), cardType: CardMMC}

	_, err := device.readSCR(context.Background())
	require.ErrorIs(t, err, ErrIllegalCommand)
	assert.Empty(t, mock.Sent, "no bus traffic for the refused register")
}
