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
)

// CardInfo aggregates the decoded registers and the derived capacity of
// an initialized card. SCR stays zero for MMC cards.
type CardInfo struct {
	CSD        CSD
	CID        CID
	SCR        SCR
	CapacityKB uint64
	BlockSize  uint32
}

// CapacityBytes returns the card capacity in bytes.
func (i *CardInfo) CapacityBytes() uint64 {
	return i.CapacityKB * 1024
}

// Sectors returns the number of addressable 512-byte sectors.
func (i *CardInfo) Sectors() uint64 {
	return i.CapacityKB * 1024 / blockSize
}

// capacityKB derives the capacity in kilobytes from the CSD, using the
// layout-appropriate formula. Kilobytes keep the v1 arithmetic inside 32
// bits the way the card specification intends.
func capacityKB(csd *CSD) (capKB uint64, blockLen uint32) {
	blockLen = 1 << csd.RdBlockLen
	capKB = uint64(csd.DeviceSize) + 1
	if csd.Structure == 0 {
		capKB *= 1 << (csd.DeviceSizeMul + 2)
		if csd.RdBlockLen > 10 {
			capKB *= 1 << (csd.RdBlockLen - 10)
		} else {
			capKB /= 1 << (10 - csd.RdBlockLen)
		}
	} else {
		// Fixed 512-byte blocks: each device-size unit is 512 KB.
		capKB *= uint64(blockLen)
	}
	return capKB, blockLen
}

// CardInfo reads CSD, CID and (for non-MMC) SCR under one bus hold and
// derives the capacity.
func (d *Device) CardInfo() (CardInfo, error) {
	return d.CardInfoContext(context.Background())
}

// CardInfoContext is CardInfo honoring ctx cancellation between polls.
func (d *Device) CardInfoContext(ctx context.Context) (CardInfo, error) {
	if err := d.requireInit(); err != nil {
		return CardInfo{}, err
	}
	if err := d.holdBus(); err != nil {
		return CardInfo{}, err
	}

	var info CardInfo
	var err error

	info.CSD, err = d.readCSD(ctx)
	if err == nil {
		info.CID, err = d.readCID(ctx)
	}
	if err == nil && d.cardType != CardMMC {
		info.SCR, err = d.readSCR(ctx)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	if err != nil {
		return CardInfo{}, err
	}

	info.CapacityKB, info.BlockSize = capacityKB(&info.CSD)
	return info, nil
}
