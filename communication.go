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

const blockSize = frame.BlockSize

// ctxCheckInterval is how many polls pass between ctx.Err checks inside
// the bounded wait loops.
const ctxCheckInterval = 256

// readByte clocks a dummy byte out and returns what the card drove.
func (d *Device) readByte() (byte, error) {
	b, err := d.transport.Exchange(frame.Dummy)
	if err != nil {
		return 0, transportErr("read", err)
	}
	return b, nil
}

// writeByte clocks one byte out, discarding the byte latched in.
func (d *Device) writeByte(b byte) error {
	if _, err := d.transport.Exchange(b); err != nil {
		return transportErr("write", err)
	}
	return nil
}

// holdBus asserts chip-select for the duration of a transaction. The
// caller that holds the bus releases it; the framer never does.
func (d *Device) holdBus() error {
	if err := d.transport.AssertCS(); err != nil {
		return transportErr("assert cs", err)
	}
	return nil
}

// releaseBus deasserts chip-select and clocks one trailing dummy byte so
// the card sees eight idle cycles before the next transaction.
func (d *Device) releaseBus() error {
	if err := d.transport.ReleaseCS(); err != nil {
		return transportErr("release cs", err)
	}
	_, err := d.readByte()
	return err
}

// sendCmd transmits a 6-byte command frame and polls for the short
// response. The returned byte is the last byte read: a valid R1 response
// has bit 7 clear, 0xFF means the poll budget ran out. The error covers
// transport failures and ctx cancellation only; callers inspect the
// response byte themselves or go through command.
//
// Standard-capacity cards respond within 0-8 byte times and MMC cards
// within 1-8; the poll loop subsumes both without per-variant branching.
func (d *Device) sendCmd(ctx context.Context, cmd byte, arg uint32) (byte, error) {
	var buf [frame.Length]byte
	frame.Build(&buf, cmd, arg)
	for _, b := range buf {
		if err := d.writeByte(b); err != nil {
			return 0xFF, err
		}
	}

	// A stuff byte follows CMD12 before the response and must be
	// discarded.
	if cmd == cmdStopTransmission {
		if _, err := d.readByte(); err != nil {
			return 0xFF, err
		}
	}

	res := byte(0xFF)
	for i := 0; i < d.config.CmdPollBudget; i++ {
		b, err := d.readByte()
		if err != nil {
			return 0xFF, err
		}
		res = b
		if res&frame.R1CheckBit == 0 {
			break
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0xFF, err
			}
		}
	}
	return res, nil
}

// command sends a command whose short response must be zero, mapping any
// other response onto the error taxonomy.
func (d *Device) command(ctx context.Context, cmd byte, arg uint32) error {
	res, err := d.sendCmd(ctx, cmd, arg)
	if err != nil {
		return err
	}
	return responseError(res)
}

// response4 reads the 4-byte trailer of an R3/R7 response. The first byte
// off the wire is the most significant, so the assembled value is directly
// maskable.
func (d *Device) response4(_ context.Context) (uint32, error) {
	var res uint32
	for i := 0; i < 4; i++ {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		res = res<<8 | uint32(b)
	}
	return res, nil
}

// waitIdle polls until the card releases the data line (an all-ones byte)
// or the budget runs out. Commands with R1b responses and the busy phases
// after writes and erases all end this way.
func (d *Device) waitIdle(ctx context.Context, budget int) error {
	for i := 0; i < budget; i++ {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		if b == frame.Dummy {
			return nil
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return ErrTimeout
}

// waitReady is the generic pre-command ready wait.
func (d *Device) waitReady(ctx context.Context) error {
	return d.waitIdle(ctx, d.config.ReadyBudget)
}

// waitToken polls until a non-idle byte arrives, returning it. 0xFF means
// the read-token budget ran out before the card started transmitting.
func (d *Device) waitToken(ctx context.Context) (byte, error) {
	b := byte(frame.Dummy)
	for i := 0; i < d.config.ReadTokenBudget; i++ {
		var err error
		b, err = d.readByte()
		if err != nil {
			return frame.Dummy, err
		}
		if b != frame.Dummy {
			return b, nil
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return frame.Dummy, err
			}
		}
	}
	return b, nil
}
