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

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithConfig replaces the whole poll-budget configuration.
func WithConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return ErrParameter
		}
		d.config = config
		return nil
	}
}

// WithReadyBudget sets the generic ready-wait budget.
func WithReadyBudget(polls int) Option {
	return func(d *Device) error {
		d.config.ReadyBudget = polls
		return nil
	}
}

// WithInitBudget sets the activation-loop budget.
func WithInitBudget(polls int) Option {
	return func(d *Device) error {
		d.config.InitBudget = polls
		return nil
	}
}

// WithWriteBusyBudget sets the post-write busy-wait budget.
func WithWriteBusyBudget(polls int) Option {
	return func(d *Device) error {
		d.config.WriteBusyBudget = polls
		return nil
	}
}

// WithEraseBusyBudget sets the post-erase busy-wait budget.
func WithEraseBusyBudget(polls int) Option {
	return func(d *Device) error {
		d.config.EraseBusyBudget = polls
		return nil
	}
}

// WithRampBytes sets the number of dummy bytes clocked during the
// power-up ramp.
func WithRampBytes(n int) Option {
	return func(d *Device) error {
		d.config.RampBytes = n
		return nil
	}
}
