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

// Transport defines the interface to the synchronous serial bus the card
// sits on. This can be implemented by a native SPI controller, a
// USB/serial SPI bridge, or a simulator.
type Transport interface {
	// Exchange clocks one byte out while latching one byte in.
	Exchange(out byte) (byte, error)

	// AssertCS drives chip-select active (low).
	AssertCS() error

	// ReleaseCS drives chip-select inactive (high).
	ReleaseCS() error

	// CardPresent reads the card-detect input. Transports without a
	// detect line report true.
	CardPresent() bool

	// Close closes the transport connection.
	Close() error

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents a native SPI controller transport.
	TransportSPI TransportType = "spi"
	// TransportSerial represents a serial SPI-bridge transport.
	TransportSerial TransportType = "serial"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
