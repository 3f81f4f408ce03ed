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

var writeStart uint32

var writeCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Write sectors to the card",
	Long:  "Write the contents of a file onto the card starting at the given sector. The file is zero-padded to a whole number of 512-byte sectors.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		cobra.CheckErr(err)
		if rem := len(data) % 512; rem != 0 {
			data = append(data, make([]byte, 512-rem)...)
		}
		n := uint32(len(data) / 512)
		if n == 0 {
			cobra.CheckErr(fmt.Errorf("%s is empty", args[0]))
		}

		device, err := openDevice()
		cobra.CheckErr(err)
		defer device.Close()

		if n == 1 {
			err = device.WriteSector(writeStart, data)
		} else {
			err = device.WriteSectors(writeStart, data, n)
		}
		cobra.CheckErr(err)
		fmt.Fprintf(os.Stderr, "wrote %d sectors at %d\n", n, writeStart)
	},
}

func init() {
	writeCmd.Flags().Uint32Var(&writeStart, "sector", 0, "first sector to write")
	rootCmd.AddCommand(writeCmd)
}
