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

// Package spi provides an SPI byte transport for SD cards on native SPI
// controllers via periph.io (Linux spidev and anything spireg can open).
//
// Chip-select is driven manually through a GPIO rather than the
// controller's hardware CS: the SD protocol needs CS held across many
// byte exchanges and released with the clock still running.
package spi

import (
	"fmt"

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// defaultFreq keeps the bus inside the card's initial clock window.
	// The identification sequence tolerates anything up to 25 MHz because
	// the ramp length is calibrated for it, but 400 kHz is always safe.
	defaultFreq = 400 * physic.KiloHertz

	mode = spi.Mode0 // CPOL=0, CPHA=0
)

// Transport implements the sdcard.Transport interface over a periph.io
// SPI port with a GPIO chip-select and an optional card-detect input.
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	cs       gpio.PinOut
	detect   gpio.PinIn
	portName string
}

// Option configures the transport.
type Option func(*config)

type config struct {
	freq physic.Frequency
}

// WithFrequency sets the SPI clock frequency.
func WithFrequency(freq physic.Frequency) Option {
	return func(c *config) {
		c.freq = freq
	}
}

// New creates a new SPI transport on the named port with the named
// chip-select GPIO. detectPin may be empty when the slot has no
// card-detect switch; the transport then always reports a card present.
func New(portName, csPin, detectPin string, opts ...Option) (*Transport, error) {
	cfg := &config{freq: defaultFreq}
	for _, opt := range opts {
		opt(cfg)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(cfg.freq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		_ = port.Close()
		return nil, fmt.Errorf("chip-select pin %q not found", csPin)
	}
	if err := cs.Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to drive chip-select: %w", err)
	}

	t := &Transport{
		port:     port,
		conn:     conn,
		cs:       cs,
		portName: portName,
	}

	if detectPin != "" {
		pin := gpioreg.ByName(detectPin)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("card-detect pin %q not found", detectPin)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to configure card-detect: %w", err)
		}
		t.detect = pin
	}

	return t, nil
}

// Exchange clocks one byte out while latching one in.
func (t *Transport) Exchange(out byte) (byte, error) {
	var rx [1]byte
	if err := t.conn.Tx([]byte{out}, rx[:]); err != nil {
		return 0xFF, fmt.Errorf("spi exchange: %w", err)
	}
	return rx[0], nil
}

// AssertCS drives chip-select low.
func (t *Transport) AssertCS() error {
	if err := t.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert cs: %w", err)
	}
	return nil
}

// ReleaseCS drives chip-select high.
func (t *Transport) ReleaseCS() error {
	if err := t.cs.Out(gpio.High); err != nil {
		return fmt.Errorf("release cs: %w", err)
	}
	return nil
}

// CardPresent reads the card-detect switch, which shorts the input to
// ground when a card sits in the slot. Without a detect pin it reports
// true.
func (t *Transport) CardPresent() bool {
	if t.detect == nil {
		return true
	}
	return t.detect.Read() == gpio.Low
}

// Close releases the chip-select and closes the port.
func (t *Transport) Close() error {
	_ = t.cs.Out(gpio.High)
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port: %w", err)
	}
	return nil
}

// Type returns the transport type.
func (*Transport) Type() sdcard.TransportType {
	return sdcard.TransportSPI
}

// String returns a description of the transport.
func (t *Transport) String() string {
	return fmt.Sprintf("spi(%s)", t.portName)
}
