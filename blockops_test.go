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
	"bytes"
	"testing"

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	"github.com/ganinaleksei/stm32-sdcard/internal/cardsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pattern fills a buffer with a deterministic, sector-dependent pattern.
func pattern(n int, seed byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)*7 + seed
	}
	return buf
}

func TestWriteSector_SDHC_WireAddressing(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	payload := pattern(512, 0x42)
	require.NoError(t, device.WriteSector(7, payload))

	// Sector-addressed: the argument is the sector index, not 7<<9.
	cmd24 := card.FramesFor(24)
	require.Len(t, cmd24, 1)
	assert.Equal(t, uint32(7), cmd24[0].Arg)

	assert.Equal(t, payload, card.Sector(7))
	assert.False(t, card.CSAsserted())
}

func TestWriteSector_SDSC_ByteAddressing(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64)
	device := initDevice(t, card)

	payload := pattern(512, 0x11)
	require.NoError(t, device.WriteSector(7, payload))

	cmd24 := card.FramesFor(24)
	require.Len(t, cmd24, 1)
	assert.Equal(t, uint32(7<<9), cmd24[0].Arg)
	assert.Equal(t, payload, card.Sector(7))
}

func TestReadSector_RoundTrip(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	want := pattern(512, 0x99)
	card.SetSector(12, want)

	got := make([]byte, 512)
	require.NoError(t, device.ReadSector(12, got))
	assert.Equal(t, want, got)
	assert.False(t, card.CSAsserted())
}

func TestReadSector_Boundaries(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64)
	device := initDevice(t, card)

	first := pattern(512, 0x01)
	last := pattern(512, 0x02)
	card.SetSector(0, first)
	card.SetSector(63, last)

	buf := make([]byte, 512)
	require.NoError(t, device.ReadSector(0, buf))
	assert.Equal(t, first, buf)
	require.NoError(t, device.ReadSector(63, buf))
	assert.Equal(t, last, buf)
}

func TestReadSectors_OpenEnded(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	want := make([]byte, 3*512)
	for i := 0; i < 3; i++ {
		copy(want[i*512:], pattern(512, byte(0x30+i)))
		card.SetSector(uint32(40+i), want[i*512:(i+1)*512])
	}

	got := make([]byte, 3*512)
	require.NoError(t, device.ReadSectors(40, got, 3))
	assert.Equal(t, want, got)

	// Open-ended transmission: no CMD23 on the read path, CMD12 ends it.
	assert.Empty(t, card.FramesFor(23))
	assert.NotEmpty(t, card.FramesFor(12))
}

func TestWriteSectors_PreDeclaresCount(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	payload := pattern(3*512, 0x77)
	require.NoError(t, device.WriteSectors(20, payload, 3))

	cmd23 := card.FramesFor(23)
	require.Len(t, cmd23, 1)
	assert.Equal(t, uint32(3), cmd23[0].Arg)

	for i := uint32(0); i < 3; i++ {
		assert.Equal(t, payload[i*512:(i+1)*512], card.Sector(20+i))
	}
}

// Legacy MMC cards never get CMD23; the multi-write goes straight to
// CMD25 with a byte-oriented address.
func TestWriteSectors_MMC(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.MMC, 256)
	device := initDevice(t, card)

	payload := pattern(3*512, 0xA5)
	require.NoError(t, device.WriteSectors(100, payload, 3))

	assert.Empty(t, card.FramesFor(23))
	cmd25 := card.FramesFor(25)
	require.Len(t, cmd25, 1)
	assert.Equal(t, uint32(100<<9), cmd25[0].Arg)

	for i := uint32(0); i < 3; i++ {
		assert.Equal(t, payload[i*512:(i+1)*512], card.Sector(100+i))
	}
	assert.False(t, card.CSAsserted())
}

func TestMultiWriteMultiRead_RoundTrip(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64)
	device := initDevice(t, card)

	want := pattern(4*512, 0xC3)
	require.NoError(t, device.WriteSectors(8, want, 4))

	got := make([]byte, 4*512)
	require.NoError(t, device.ReadSectors(8, got, 4))
	assert.Equal(t, want, got)
}

func TestEraseSectors_SDSCv2_Addressing(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64)
	device := initDevice(t, card)

	// Leave recognizable data in and around the range.
	for s := uint32(9); s <= 21; s++ {
		card.SetSector(s, pattern(512, byte(s)))
	}

	require.NoError(t, device.EraseSectors(10, 20))

	cmd32 := card.FramesFor(32)
	require.Len(t, cmd32, 1)
	assert.Equal(t, uint32(10<<9), cmd32[0].Arg)
	cmd33 := card.FramesFor(33)
	require.Len(t, cmd33, 1)
	assert.Equal(t, uint32(20<<9), cmd33[0].Arg)
	cmd38 := card.FramesFor(38)
	require.Len(t, cmd38, 1)
	assert.Equal(t, uint32(0), cmd38[0].Arg)

	// Every sector in the range reads as the erased state; neighbours
	// are untouched.
	erased := bytes.Repeat([]byte{0xFF}, 512)
	for s := uint32(10); s <= 20; s++ {
		assert.Equal(t, erased, card.Sector(s), "sector %d", s)
	}
	assert.NotEqual(t, erased, card.Sector(9))
	assert.NotEqual(t, erased, card.Sector(21))
}

func TestEraseSectors_MatchesConfiguredErasedState(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDSCv2, 64, cardsim.WithErasedByte(0x00))
	device := initDevice(t, card)

	card.SetSector(5, pattern(512, 0x5A))
	require.NoError(t, device.EraseSectors(5, 5))

	info, err := device.CardInfo()
	require.NoError(t, err)

	got := make([]byte, 512)
	require.NoError(t, device.ReadSector(5, got))
	assert.Equal(t, bytes.Repeat([]byte{info.SCR.ErasedByte()}, 512), got)
}

func TestEraseSectors_MMC_Illegal(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.MMC, 64)
	device := initDevice(t, card)

	before := len(card.Frames())
	err := device.EraseSectors(10, 20)
	require.ErrorIs(t, err, sdcard.ErrIllegalCommand)
	assert.Len(t, card.Frames(), before, "no bus activity for the refused erase")
}

func TestBlockOps_BufferSizeChecked(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	short := make([]byte, 100)
	assert.ErrorIs(t, device.ReadSector(0, short), sdcard.ErrParameter)
	assert.ErrorIs(t, device.WriteSector(0, short), sdcard.ErrParameter)
	assert.ErrorIs(t, device.ReadSectors(0, short, 2), sdcard.ErrParameter)
	assert.ErrorIs(t, device.WriteSectors(0, short, 2), sdcard.ErrParameter)
}

func TestChipSelectReleasedAfterEveryOperation(t *testing.T) {
	t.Parallel()
	card := cardsim.New(cardsim.SDHC, 2048)
	device := initDevice(t, card)

	buf := make([]byte, 512)
	require.NoError(t, device.WriteSector(1, pattern(512, 1)))
	assert.False(t, card.CSAsserted())
	require.NoError(t, device.ReadSector(1, buf))
	assert.False(t, card.CSAsserted())
	require.NoError(t, device.ReadSectors(0, make([]byte, 2*512), 2))
	assert.False(t, card.CSAsserted())
	require.NoError(t, device.WriteSectors(2, make([]byte, 2*512), 2))
	assert.False(t, card.CSAsserted())
	require.NoError(t, device.EraseSectors(1, 2))
	assert.False(t, card.CSAsserted())
	_, err := device.CardInfo()
	require.NoError(t, err)
	assert.False(t, card.CSAsserted())
	_, err = device.Status()
	require.NoError(t, err)
	assert.False(t, card.CSAsserted())
}
