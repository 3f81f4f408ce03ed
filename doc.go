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

/*
Package sdcard drives SD/MMC memory cards in SPI mode over a pluggable
byte transport.

The driver brings an unknown card from cold power-up through
identification, initialization and capacity discovery, then exposes block
read, block write and range erase at 512-byte granularity with the
timing, retry and busy-handling discipline the cards require. Four card
generations are recognized: legacy MMC, standard-capacity v1 and v2, and
high-capacity (SDHC), each with its own initialization path and
addressing mode.

Basic Usage:

	import (
	    sdcard "github.com/ganinaleksei/stm32-sdcard"
	    "github.com/ganinaleksei/stm32-sdcard/transport/spi"
	)

	// Create an SPI transport (Linux spidev, chip-select on a GPIO)
	transport, err := spi.New("/dev/spidev0.0", "GPIO8", "")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := sdcard.New(transport)
	if err != nil {
	    return err
	}
	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	buf := make([]byte, 512)
	if err := device.ReadSector(0, buf); err != nil {
	    log.Fatal(err)
	}

	info, err := device.CardInfo()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("%s, %d KB\n", device.CardType(), info.CapacityKB)

Transport Selection:

The library ships two transports:

  - spi: native SPI controllers via periph.io (Linux spidev and anything
    else spireg can open)
  - serial: Bus Pirate style SPI bridges on a serial port

Error Handling:

All operations return errors that can be inspected with errors.Is; card
response bits map onto sentinels such as ErrIllegalCommand:

	if errors.Is(err, sdcard.ErrTimeout) {
	    // Handle timeout
	}

Thread Safety:

Device operations are not thread-safe. Every operation assumes exclusive
use of the bus and the chip-select line; if the bus is shared, callers
must serialize access externally.
*/
package sdcard
