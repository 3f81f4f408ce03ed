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
	"fmt"
)

// wireAddr converts a sector index into the on-wire address: high-capacity
// cards are sector-addressed, everything else takes a byte offset.
func (d *Device) wireAddr(sector uint32) uint32 {
	if d.cardType.HighCapacity() {
		return sector
	}
	return sector << 9
}

// checkBuf validates that buf holds exactly n sectors.
func checkBuf(buf []byte, n uint32) error {
	if uint32(len(buf)) != n*blockSize {
		return fmt.Errorf("buffer is %d bytes, want %d: %w", len(buf), n*blockSize, ErrParameter)
	}
	return nil
}

// ReadSector reads one 512-byte sector into buf.
func (d *Device) ReadSector(sector uint32, buf []byte) error {
	return d.ReadSectorContext(context.Background(), sector, buf)
}

// ReadSectorContext is ReadSector honoring ctx cancellation between polls.
func (d *Device) ReadSectorContext(ctx context.Context, sector uint32, buf []byte) error {
	if err := d.requireInit(); err != nil {
		return err
	}
	if err := checkBuf(buf, 1); err != nil {
		return err
	}
	if err := d.holdBus(); err != nil {
		return err
	}

	err := d.settle(ctx)
	if err == nil {
		err = d.command(ctx, cmdReadSingleBlock, d.wireAddr(sector))
	}
	if err == nil {
		err = d.receiveData(ctx, buf)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	return err
}

// ReadSectors reads n consecutive sectors starting at sector into buf.
// The transmission is open-ended: no block count is declared up front and
// CMD12 terminates it, for compatibility with cards that do not implement
// CMD23 on the read path.
func (d *Device) ReadSectors(sector uint32, buf []byte, n uint32) error {
	return d.ReadSectorsContext(context.Background(), sector, buf, n)
}

// ReadSectorsContext is ReadSectors honoring ctx cancellation.
func (d *Device) ReadSectorsContext(ctx context.Context, sector uint32, buf []byte, n uint32) error {
	if err := d.requireInit(); err != nil {
		return err
	}
	if err := checkBuf(buf, n); err != nil {
		return err
	}
	if err := d.holdBus(); err != nil {
		return err
	}

	err := d.settle(ctx)
	if err == nil {
		err = d.command(ctx, cmdReadMultBlock, d.wireAddr(sector))
	}
	if err == nil {
		for i := uint32(0); i < n; i++ {
			if err = d.receiveData(ctx, buf[i*blockSize:(i+1)*blockSize]); err != nil {
				break
			}
		}
		// Stop the transmission even after a failed block.
		stopErr := d.command(ctx, cmdStopTransmission, 0)
		if err == nil {
			err = stopErr
		}
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	return err
}

// WriteSector writes one 512-byte sector from buf.
func (d *Device) WriteSector(sector uint32, buf []byte) error {
	return d.WriteSectorContext(context.Background(), sector, buf)
}

// WriteSectorContext is WriteSector honoring ctx cancellation.
func (d *Device) WriteSectorContext(ctx context.Context, sector uint32, buf []byte) error {
	if err := d.requireInit(); err != nil {
		return err
	}
	if err := checkBuf(buf, 1); err != nil {
		return err
	}
	if err := d.holdBus(); err != nil {
		return err
	}

	err := d.settle(ctx)
	if err == nil {
		err = d.command(ctx, cmdWriteSingleBlock, d.wireAddr(sector))
	}
	if err == nil {
		err = d.transmitSingle(ctx, buf)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	return err
}

// WriteSectors writes n consecutive sectors starting at sector from buf.
// For every variant except legacy MMC the block count is declared up front
// with CMD23 so the card can pre-erase and finish sooner.
func (d *Device) WriteSectors(sector uint32, buf []byte, n uint32) error {
	return d.WriteSectorsContext(context.Background(), sector, buf, n)
}

// WriteSectorsContext is WriteSectors honoring ctx cancellation.
func (d *Device) WriteSectorsContext(ctx context.Context, sector uint32, buf []byte, n uint32) error {
	if err := d.requireInit(); err != nil {
		return err
	}
	if err := checkBuf(buf, n); err != nil {
		return err
	}
	if err := d.holdBus(); err != nil {
		return err
	}

	err := d.settle(ctx)

	if err == nil && d.cardType != CardMMC {
		if err = d.command(ctx, cmdSetBlockCount, n); err != nil {
			_ = d.releaseBus()
			return err
		}
	}

	if err == nil {
		err = d.command(ctx, cmdWriteMultBlock, d.wireAddr(sector))
	}
	if err == nil {
		err = d.transmitMultiple(ctx, n, buf)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	return err
}

// EraseSectors erases the inclusive sector range [from, to]. Legacy MMC
// cards do not implement the erase command class in SPI mode.
func (d *Device) EraseSectors(from, to uint32) error {
	return d.EraseSectorsContext(context.Background(), from, to)
}

// EraseSectorsContext is EraseSectors honoring ctx cancellation.
func (d *Device) EraseSectorsContext(ctx context.Context, from, to uint32) error {
	if err := d.requireInit(); err != nil {
		return err
	}
	if d.cardType == CardMMC {
		return ErrIllegalCommand
	}
	if err := d.holdBus(); err != nil {
		return err
	}

	err := d.settle(ctx)
	if err == nil {
		err = d.command(ctx, cmdEraseBlockStart, d.wireAddr(from))
	}
	if err == nil {
		err = d.command(ctx, cmdEraseBlockEnd, d.wireAddr(to))
	}
	if err == nil {
		err = d.command(ctx, cmdErase, 0)
	}
	if err == nil {
		err = d.waitIdle(ctx, d.config.EraseBusyBudget)
	}

	if relErr := d.releaseBus(); err == nil {
		err = relErr
	}
	return err
}
