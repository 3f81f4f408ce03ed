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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	eraseFrom uint32
	eraseTo   uint32
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a sector range on the card",
	Long:  "Erase the inclusive sector range [from, to] on the card. Not supported on legacy MMC cards.",
	Run: func(_ *cobra.Command, _ []string) {
		if eraseTo < eraseFrom {
			cobra.CheckErr(fmt.Errorf("erase range [%d, %d] is reversed", eraseFrom, eraseTo))
		}

		device, err := openDevice()
		cobra.CheckErr(err)
		defer device.Close()

		cobra.CheckErr(device.EraseSectors(eraseFrom, eraseTo))
		fmt.Fprintf(os.Stderr, "erased sectors %d through %d\n", eraseFrom, eraseTo)
	},
}

func init() {
	eraseCmd.Flags().Uint32Var(&eraseFrom, "from", 0, "first sector to erase")
	eraseCmd.Flags().Uint32Var(&eraseTo, "to", 0, "last sector to erase")
	rootCmd.AddCommand(eraseCmd)
}
