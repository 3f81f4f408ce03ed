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

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	serialtransport "github.com/ganinaleksei/stm32-sdcard/transport/serial"
	spitransport "github.com/ganinaleksei/stm32-sdcard/transport/spi"
	"github.com/spf13/cobra"
)

var (
	flagTransport string
	flagPort      string
	flagCS        string
	flagDetect    string
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "sdctl",
	Short: "A CLI program which works with SD/MMC cards over SPI",
	Long:  "The sdctl tool reads, writes and erases SD/MMC cards wired to a native SPI port or a serial SPI bridge.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if flagDebug {
			sdcard.SetDebugEnabled(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagTransport, "transport", "t", "spi",
		"transport to use: spi or serial")
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "",
		"SPI port name (e.g. /dev/spidev0.0) or serial device (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().StringVar(&flagCS, "cs", "",
		"chip-select GPIO name (spi transport only)")
	rootCmd.PersistentFlags().StringVar(&flagDetect, "detect", "",
		"card-detect GPIO name (spi transport only, optional)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"enable debug output")
}

// openDevice opens the selected transport and initializes the card.
func openDevice() (*sdcard.Device, error) {
	if flagPort == "" {
		return nil, fmt.Errorf("no port given, use --port (try \"sdctl ports\")")
	}

	var (
		transport sdcard.Transport
		err       error
	)
	switch flagTransport {
	case "spi":
		if flagCS == "" {
			return nil, fmt.Errorf("spi transport needs --cs")
		}
		transport, err = spitransport.New(flagPort, flagCS, flagDetect)
	case "serial":
		transport, err = serialtransport.New(flagPort)
	default:
		return nil, fmt.Errorf("unknown transport %q", flagTransport)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open transport: %w", err)
	}

	device, err := sdcard.New(transport)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	if !device.Detect() {
		_ = transport.Close()
		return nil, sdcard.ErrNoCard
	}
	if err := device.Init(); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to initialize card: %w", err)
	}
	return device, nil
}

func execute() {
	cobra.CheckErr(rootCmd.Execute())
}
