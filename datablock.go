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

	"github.com/ganinaleksei/stm32-sdcard/internal/frame"
)

// receiveData reads one data block into buf. Most cards precede the
// payload with the start token; the token, if seen, is consumed and not
// stored. A card that begins with payload directly is accepted too: the
// first non-idle byte then IS payload byte 0. The two trailing CRC bytes
// are read and discarded (CRC is off by default in SPI mode).
func (d *Device) receiveData(ctx context.Context, buf []byte) error {
	b, err := d.waitToken(ctx)
	if err != nil {
		return err
	}
	if b == frame.Dummy {
		return ErrNoToken
	}

	start := 0
	if b != frame.TokenBlockStart {
		buf[0] = b
		start = 1
	}
	for i := start; i < len(buf); i++ {
		if buf[i], err = d.readByte(); err != nil {
			return err
		}
	}

	// CRC bytes, required on the wire but not verified.
	if _, err := d.readByte(); err != nil {
		return err
	}
	if _, err := d.readByte(); err != nil {
		return err
	}
	return nil
}

// sendBlock transmits one data block framed by the given start token and
// two dummy CRC bytes, then checks the data response token and sits out
// the busy phase on acceptance.
func (d *Device) sendBlock(ctx context.Context, token byte, data []byte) error {
	if err := d.writeByte(token); err != nil {
		return err
	}
	for _, b := range data {
		if err := d.writeByte(b); err != nil {
			return err
		}
	}
	if err := d.writeByte(frame.Dummy); err != nil {
		return err
	}
	if err := d.writeByte(frame.Dummy); err != nil {
		return err
	}

	res, err := d.readByte()
	if err != nil {
		return err
	}
	if res&frame.DataResponseMask != frame.DataAccepted {
		return ErrDataRejected
	}
	return d.waitIdle(ctx, d.config.WriteBusyBudget)
}

// setupDelay clocks a few dummy bytes between the write command response
// and the start token; the card needs at least eight clock cycles.
func (d *Device) setupDelay() error {
	for i := 0; i < 3; i++ {
		if _, err := d.readByte(); err != nil {
			return err
		}
	}
	return nil
}

// transmitSingle writes one 512-byte block for CMD24.
func (d *Device) transmitSingle(ctx context.Context, buf []byte) error {
	if err := d.setupDelay(); err != nil {
		return err
	}
	return d.sendBlock(ctx, frame.TokenBlockStart, buf)
}

// transmitMultiple writes n consecutive 512-byte blocks for CMD25 and
// terminates the transmission with the stop token. The byte following the
// stop token is discarded before the final busy wait.
func (d *Device) transmitMultiple(ctx context.Context, n uint32, buf []byte) error {
	if err := d.setupDelay(); err != nil {
		return err
	}

	var sendErr error
	for i := uint32(0); i < n; i++ {
		sendErr = d.sendBlock(ctx, frame.TokenMultiWriteStart, buf[i*blockSize:(i+1)*blockSize])
		if sendErr != nil {
			break
		}
	}

	if err := d.writeByte(frame.TokenMultiWriteStop); err != nil {
		return err
	}
	if _, err := d.readByte(); err != nil {
		return err
	}
	if err := d.waitReady(ctx); err != nil {
		return err
	}
	return sendErr
}
