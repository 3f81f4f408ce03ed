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

package sdcard_test

import (
	"testing"

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	"github.com/ganinaleksei/stm32-sdcard/internal/cardsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardInfo_SDHC(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	info, err := device.CardInfo()
	require.NoError(t, err)

	// The simulated register image encodes exactly the simulated size.
	assert.Equal(t, uint64(2048), info.Sectors())
	assert.Equal(t, uint64(1024), info.CapacityKB)
	assert.Equal(t, uint32(512), info.BlockSize)
	assert.Equal(t, uint8(1), info.CSD.Structure)

	assert.Equal(t, "GOSIM", info.CID.ProductName())
	assert.Equal(t, uint16(2023), info.CID.ManufactYear)
	assert.Equal(t, uint8(7), info.CID.ManufactMonth)

	assert.True(t, info.SCR.CmdSetBlockCnt)
	assert.Equal(t, byte(0xFF), info.SCR.ErasedByte())
}

func TestCardInfo_SDSC(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64)
	device := initDevice(t, card)

	info, err := device.CardInfo()
	require.NoError(t, err)

	assert.Equal(t, uint64(64), info.Sectors())
	assert.Equal(t, uint64(32), info.CapacityKB)
	assert.Equal(t, uint8(0), info.CSD.Structure)
	assert.NotZero(t, info.CapacityBytes())
}

func TestCardInfo_MMC_SkipsSCR(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.MMC, 64)
	device := initDevice(t, card)

	info, err := device.CardInfo()
	require.NoError(t, err)

	assert.Equal(t, uint64(64), info.Sectors())
	assert.Zero(t, info.SCR, "SCR not read on MMC")
	assert.Empty(t, card.FramesFor(51))
}

func TestStatus_ViaSimulator(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	status, err := device.Status()
	require.NoError(t, err)

	assert.Equal(t, uint8(0x04), status.SpeedClass)
	assert.Equal(t, uint8(9), status.AUSize)
	assert.Equal(t, uint16(16), status.EraseSize)
	assert.False(t, card.CSAsserted())
}

func TestStatus_MMC_ViaSimulator(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.MMC, 64)
	device := initDevice(t, card)

	before := len(card.Frames())
	_, err := device.Status()
	require.ErrorIs(t, err, sdcard.ErrIllegalCommand)
	assert.Len(t, card.Frames(), before)
}
