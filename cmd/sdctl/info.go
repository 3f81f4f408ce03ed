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

package main

import (
	"errors"
	"fmt"

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show card identification and capacity",
	Long:  "Initialize the card and print its type, identification registers and capacity.",
	Run: func(_ *cobra.Command, _ []string) {
		device, err := openDevice()
		cobra.CheckErr(err)
		defer device.Close()

		info, err := device.CardInfo()
		cobra.CheckErr(err)

		fmt.Printf("Card type       : %s\n", device.CardType())
		fmt.Printf("Capacity        : %d KB (%d sectors)\n", info.CapacityKB, info.Sectors())
		fmt.Printf("Block size      : %d bytes\n", info.BlockSize)
		fmt.Printf("Manufacturer ID : %d\n", info.CID.ManufacturerID)
		fmt.Printf("OEM ID          : %s\n", string(info.CID.OEMAppID[:]))
		fmt.Printf("Product         : %s rev %d.%d\n", info.CID.ProductName(),
			info.CID.ProdRev>>4, info.CID.ProdRev&0x0F)
		fmt.Printf("Serial number   : %d\n", info.CID.ProdSN)
		fmt.Printf("Manufactured    : %04d-%02d\n", info.CID.ManufactYear, info.CID.ManufactMonth)
		if device.CardType() != sdcard.CardMMC {
			fmt.Printf("Erased state    : 0x%02X\n", info.SCR.ErasedByte())
		}

		status, err := device.Status()
		if errors.Is(err, sdcard.ErrIllegalCommand) {
			return
		}
		cobra.CheckErr(err)
		fmt.Printf("Speed class     : %d\n", status.SpeedClass)
		fmt.Printf("AU size code    : %d\n", status.AUSize)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
