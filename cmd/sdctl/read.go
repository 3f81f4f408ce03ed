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
	readStart uint32
	readCount uint32
	readOut   string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read sectors from the card",
	Long:  "Read a range of 512-byte sectors from the card into a file or stdout.",
	Run: func(_ *cobra.Command, _ []string) {
		device, err := openDevice()
		cobra.CheckErr(err)
		defer device.Close()

		buf := make([]byte, readCount*512)
		if readCount == 1 {
			err = device.ReadSector(readStart, buf)
		} else {
			err = device.ReadSectors(readStart, buf, readCount)
		}
		cobra.CheckErr(err)

		out := os.Stdout
		if readOut != "" {
			out, err = os.Create(readOut)
			cobra.CheckErr(err)
			defer out.Close()
		}
		_, err = out.Write(buf)
		cobra.CheckErr(err)
		fmt.Fprintf(os.Stderr, "read %d sectors from %d\n", readCount, readStart)
	},
}

func init() {
	readCmd.Flags().Uint32Var(&readStart, "sector", 0, "first sector to read")
	readCmd.Flags().Uint32VarP(&readCount, "count", "n", 1, "number of sectors")
	readCmd.Flags().StringVarP(&readOut, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(readCmd)
}
