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
	"path/filepath"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate ports",
	Long:  "List serial ports that may carry an SPI bridge and spidev devices on this machine.",
	Run: func(_ *cobra.Command, _ []string) {
		ports, err := enumerator.GetDetailedPortsList()
		cobra.CheckErr(err)
		for _, port := range ports {
			if port.IsUSB {
				fmt.Printf("serial %s (USB %s:%s %s)\n", port.Name, port.VID, port.PID, port.Product)
			} else {
				fmt.Printf("serial %s\n", port.Name)
			}
		}

		spidevs, err := filepath.Glob("/dev/spidev*")
		cobra.CheckErr(err)
		for _, dev := range spidevs {
			fmt.Printf("spi    %s\n", dev)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
