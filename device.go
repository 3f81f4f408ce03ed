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

// DeviceConfig contains the poll budgets for the Device. Each budget is a
// bounded number of byte exchanges, not wall-clock time, so the worst case
// scales with the bus clock. The defaults are calibrated against the slowest
// consumer cards observed (status-erase on some multi-gigabyte cards runs
// past 100,000 polls).
type DeviceConfig struct {
	// CmdPollBudget bounds the wait for a short response after a command.
	// Cards answer within 0-8 byte times (1-8 for MMC).
	CmdPollBudget int
	// ReadyBudget bounds the generic ready wait before a command.
	ReadyBudget int
	// ReadTokenBudget bounds the wait for a data start token.
	ReadTokenBudget int
	// WriteBusyBudget bounds the busy phase after an accepted write block.
	WriteBusyBudget int
	// EraseBusyBudget bounds the busy phase after CMD38.
	EraseBusyBudget int
	// InitBudget bounds the ACMD41/CMD1 activation loop.
	InitBudget int
	// RampBytes is the number of 0xFF bytes clocked with CS released at
	// power-up. 2500 bytes exceed the required 74 clocks at any practical
	// host clock up to 25 MHz.
	RampBytes int
}

// DefaultDeviceConfig returns the default poll budgets.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		CmdPollBudget:   300,
		ReadyBudget:     300,
		ReadTokenBudget: 2000,
		WriteBusyBudget: 1000000,
		EraseBusyBudget: 1000000,
		InitBudget:      20000,
		RampBytes:       2500,
	}
}

// Device drives one SD/MMC card in SPI mode over a byte Transport.
//
// Thread Safety: Device is NOT thread-safe. Every operation assumes
// exclusive use of the bus and the chip-select line for its full duration.
// If the embedding system multiplexes the bus, wrap every public operation
// with external mutual exclusion.
type Device struct {
	transport Transport
	config    *DeviceConfig
	cardType  CardType
}

// New creates a new card device on the given transport.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// CardType returns the variant detected by the last successful Init, or
// CardUnknown before initialization.
func (d *Device) CardType() CardType {
	return d.cardType
}

// Detect reports whether a card is present in the slot.
func (d *Device) Detect() bool {
	return d.transport.CardPresent()
}

// Init brings the card from power-up through identification and leaves it
// ready for block operations. It fails without any bus activity when no
// card is present.
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext is Init honoring ctx cancellation between polls.
func (d *Device) InitContext(ctx context.Context) error {
	if !d.transport.CardPresent() {
		return ErrNoCard
	}

	if err := d.rampUp(ctx); err != nil {
		return err
	}

	err := d.identify(ctx)

	// Standard-capacity cards may come up with another block length
	// recorded in CSD; force 512. High-capacity cards are fixed at 512
	// and ignore CMD16.
	if err == nil && d.cardType != CardSDHC {
		err = d.command(ctx, cmdSetBlockLen, blockSize)
	}

	relErr := d.releaseBus()
	if err != nil {
		d.cardType = CardUnknown
		return err
	}
	if relErr != nil {
		d.cardType = CardUnknown
		return relErr
	}

	debugf("initialized %s card", d.cardType)
	return nil
}

// DeInit clears the driver state. The card itself keeps whatever state it
// had; a later Init restarts from the power-up ramp.
func (d *Device) DeInit() {
	d.cardType = CardUnknown
}

// Close closes the device and its transport.
func (d *Device) Close() error {
	d.cardType = CardUnknown
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return transportErr("close", err)
		}
	}
	return nil
}

// requireInit guards block operations against use before Init.
func (d *Device) requireInit() error {
	if d.cardType == CardUnknown {
		return ErrNotInitialized
	}
	return nil
}
