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

// statusSize is the length of the SD status record (ACMD13).
const statusSize = 64

// Status is the decoded 64-byte SD status record. Not available on MMC.
type Status struct {
	BusWidth          uint8
	InSecuredMode     bool
	CardType          uint16
	SizeProtectedArea uint32
	SpeedClass        uint8
	PerformanceMove   uint8
	AUSize            uint8
	EraseSize         uint16
	EraseTimeout      uint8
	EraseOffset       uint8
	UHSSpeedGrade     uint8
	UHSAUSize         uint8
}

// parseStatus decodes the fields held in the first 15 bytes of the status
// record; the remainder is reserved.
func parseStatus(raw []byte) Status {
	return Status{
		BusWidth:          raw[0] >> 6,
		InSecuredMode:     raw[0]&0x20 != 0,
		CardType:          uint16(raw[2])<<8 | uint16(raw[3]),
		SizeProtectedArea: uint32(raw[4])<<24 | uint32(raw[5])<<16 | uint32(raw[6])<<8 | uint32(raw[7]),
		SpeedClass:        raw[8],
		PerformanceMove:   raw[9],
		AUSize:            raw[10] >> 4,
		EraseSize:         uint16(raw[11])<<8 | uint16(raw[12]),
		EraseTimeout:      (raw[13] & 0xFC) >> 2,
		EraseOffset:       raw[13] & 0x03,
		UHSSpeedGrade:     raw[14] >> 4,
		UHSAUSize:         raw[14] & 0x0F,
	}
}

// Status retrieves the 64-byte SD status record via ACMD13.
func (d *Device) Status() (Status, error) {
	return d.StatusContext(context.Background())
}

// StatusContext is Status honoring ctx cancellation between polls.
func (d *Device) StatusContext(ctx context.Context) (Status, error) {
	if err := d.requireInit(); err != nil {
		return Status{}, err
	}
	if d.cardType == CardMMC {
		return Status{}, ErrIllegalCommand
	}
	if err := d.holdBus(); err != nil {
		return Status{}, err
	}

	raw := make([]byte, statusSize)
	err := d.waitReady(ctx)
	if err == nil {
		err = d.command(ctx, cmdSendApp, 0)
	}
	if err == nil {
		err = d.command(ctx, cmdStatus, 0)
	}
	if err == nil {
		err = d.receiveData(ctx, raw)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	if err != nil {
		return Status{}, err
	}
	return parseStatus(raw), nil
}
