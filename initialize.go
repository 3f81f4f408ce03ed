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
	"errors"

	"github.com/ganinaleksei/stm32-sdcard/internal/frame"
)

// rampUp supplies the power-up ramp: with chip-select released, clock
// dummy bytes so MOSI stays high for well past the required 74 cycles in
// the card's initial 100-400 kHz clock window.
func (d *Device) rampUp(ctx context.Context) error {
	if err := d.transport.ReleaseCS(); err != nil {
		return transportErr("release cs", err)
	}
	for i := 0; i < d.config.RampBytes; i++ {
		if err := d.writeByte(frame.Dummy); err != nil {
			return err
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// settle runs the generic ready wait between init steps. The original
// sequencer presses on when a card never shows the idle line here, so a
// timeout is not fatal; transport failures are.
func (d *Device) settle(ctx context.Context) error {
	err := d.waitReady(ctx)
	if err == nil || errors.Is(err, ErrTimeout) {
		return nil
	}
	return err
}

// identify performs the soft reset into SPI mode and the probe/activation
// sequence that decides the card variant. It asserts chip-select itself
// and leaves the bus held; the caller releases it.
func (d *Device) identify(ctx context.Context) error {
	if err := d.holdBus(); err != nil {
		return err
	}

	if err := d.goIdle(ctx); err != nil {
		return err
	}

	// Provisional variant until the probes say otherwise.
	d.cardType = CardSDSCv2

	if err := d.settle(ctx); err != nil {
		return err
	}

	if err := d.probeInterface(ctx); err != nil {
		return err
	}

	if err := d.settle(ctx); err != nil {
		return err
	}

	activated, err := d.activate(ctx)
	if err != nil {
		return err
	}

	if err := d.settle(ctx); err != nil {
		return err
	}

	switch {
	case d.cardType == CardMMC:
		if err := d.activateMMC(ctx); err != nil {
			return err
		}
	case d.cardType == CardSDSCv2:
		if !activated {
			return ErrTimeout
		}
		if err := d.disambiguateCapacity(ctx); err != nil {
			return err
		}
	}

	return d.settle(ctx)
}

// goIdle issues the soft reset until the card reports the idle state.
// CMD0 is one of the two commands that verify the frame CRC.
func (d *Device) goIdle(ctx context.Context) error {
	for i := 0; i < d.config.CmdPollBudget; i++ {
		res, err := d.sendCmd(ctx, cmdGoIdleState, 0)
		if err != nil {
			return err
		}
		if res == frame.R1IdleState {
			return nil
		}
	}
	return ErrTimeout
}

// probeInterface offers 2.7-3.6V via CMD8. A card rejecting the command
// as illegal predates v2 and is marked SDSC v1; a card that accepts it
// must echo the check pattern back or the probe is retried.
func (d *Device) probeInterface(ctx context.Context) error {
	for i := 0; i < d.config.CmdPollBudget; i++ {
		res, err := d.sendCmd(ctx, cmdSendIfCond, argIfCond)
		if err != nil {
			return err
		}
		if res&frame.R1IllegalCommand != 0 {
			d.cardType = CardSDSCv1
			return nil
		}
		echo, err := d.response4(ctx)
		if err != nil {
			return err
		}
		if echo&0x0000FFFF == argIfCond {
			return nil
		}
		// The card accepted CMD8 but garbled the echo; the
		// specification recommends retrying.
	}
	return ErrBadEcho
}

// activate runs the CMD55+ACMD41 loop until the card leaves the idle
// state. A card refusing the application prefix is a legacy MMC; a
// standard-capacity v1 card that never leaves idle is downgraded to MMC
// as a last resort. Returns whether idle cleared within the budget.
func (d *Device) activate(ctx context.Context) (bool, error) {
	for i := 0; i < d.config.InitBudget; i++ {
		res, err := d.sendCmd(ctx, cmdSendApp, 0)
		if err != nil {
			return false, err
		}
		if res != frame.R1IdleState {
			d.cardType = CardMMC
			return false, nil
		}

		if err := d.settle(ctx); err != nil {
			return false, err
		}

		// The HCS bit is ignored by v1 cards anyway; keep the v1 path
		// byte-exact with argument zero.
		arg := uint32(argHighCapacity)
		if d.cardType == CardSDSCv1 {
			arg = 0
		}
		res, err = d.sendCmd(ctx, cmdActivateInit, arg)
		if err != nil {
			return false, err
		}
		if res&frame.R1IdleState == 0 {
			return true, nil
		}
	}

	if d.cardType == CardSDSCv1 {
		d.cardType = CardMMC
	}
	return false, nil
}

// activateMMC initializes a legacy multimedia card with CMD1.
func (d *Device) activateMMC(ctx context.Context) error {
	for i := 0; i < d.config.InitBudget; i++ {
		res, err := d.sendCmd(ctx, cmdSendOpCond, 0)
		if err != nil {
			return err
		}
		if res&frame.R1IdleState == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// disambiguateCapacity reads the OCR register and promotes the card to
// SDHC when the card-capacity-status bit is set. A failed CMD58 leaves
// the variant at SDSC v2; only the addressing mode depends on it.
func (d *Device) disambiguateCapacity(ctx context.Context) error {
	res, err := d.sendCmd(ctx, cmdReadOCR, 0)
	if err != nil {
		return err
	}
	if res != 0 {
		return nil
	}
	ocr, err := d.response4(ctx)
	if err != nil {
		return err
	}
	if ocr&ocrCCS != 0 {
		d.cardType = CardSDHC
	}
	return nil
}
