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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()
	raw := make([]byte, statusSize)
	raw[0] = 0x80 | 0x20             // 4-bit bus, secured mode
	raw[2], raw[3] = 0x00, 0x01      // SD ROM card
	raw[4], raw[5] = 0x01, 0x02      // protected area
	raw[6], raw[7] = 0x03, 0x04
	raw[8] = 0x04                    // speed class 10
	raw[9] = 0x02                    // performance move
	raw[10] = 0x9F                   // AU size 9
	raw[11], raw[12] = 0x00, 0x10    // erase size
	raw[13] = 0x0B                   // erase timeout 2, offset 3
	raw[14] = 0x17                   // UHS grade 1, UHS AU 7

	status := parseStatus(raw)

	assert.Equal(t, uint8(2), status.BusWidth)
	assert.True(t, status.InSecuredMode)
	assert.Equal(t, uint16(1), status.CardType)
	assert.Equal(t, uint32(0x01020304), status.SizeProtectedArea)
	assert.Equal(t, uint8(4), status.SpeedClass)
	assert.Equal(t, uint8(2), status.PerformanceMove)
	assert.Equal(t, uint8(9), status.AUSize)
	assert.Equal(t, uint16(16), status.EraseSize)
	assert.Equal(t, uint8(2), status.EraseTimeout)
	assert.Equal(t, uint8(3), status.EraseOffset)
	assert.Equal(t, uint8(1), status.UHSSpeedGrade)
	assert.Equal(t, uint8(7), status.UHSAUSize)
}

func TestStatus_MMCShortcut(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	device := &Device{transport: mock, config: DefaultDeviceConfig(), cardType: CardMMC}

	_, err := device.Status()
	require.ErrorIs(t, err, ErrIllegalCommand)
	assert.Empty(t, mock.Sent)
	assert.Empty(t, mock.CSLog)
}
