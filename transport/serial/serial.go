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

// Package serial provides an SPI byte transport through a Bus Pirate
// style serial bridge: the adapter's binary SPI mode maps each byte
// exchange and chip-select edge onto short serial commands.
package serial

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	sdcard "github.com/ganinaleksei/stm32-sdcard"
	internal "github.com/ganinaleksei/stm32-sdcard/internal/transport"
	"go.bug.st/serial"
)

// Bus Pirate binary-mode protocol bytes.
const (
	bpEnterBinary = 0x00 // answered with "BBIO1"
	bpEnterSPI    = 0x01 // answered with "SPI1"
	bpCSLow       = 0x02
	bpCSHigh      = 0x03
	bpBulkBase    = 0x10 // 0x10|(n-1): bulk transfer of n bytes
	bpSpeed       = 0x60 // 0x60|n: clock rate selector
	bpPeriph      = 0x40 // 0x40|mask: power, pull-ups, AUX, CS
	bpConfig      = 0x80 // 0x80|mask: output type, idle, clock edge

	bpAck = 0x01

	speed250k    = 0x02
	periphPower  = 0x08
	cfgPushPull  = 0x08
	cfgEdgeActv  = 0x02
	enterRetries = 20
)

var (
	bbioBanner = []byte("BBIO1")
	spiBanner  = []byte("SPI1")

	errNoBridge = errors.New("bridge did not enter binary mode")
)

// Transport implements the sdcard.Transport interface through a Bus
// Pirate compatible SPI bridge on a serial port.
type Transport struct {
	port     serial.Port
	portName string
}

// New opens the named serial port and brings the bridge into binary SPI
// mode with the card powered.
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(500 * time.Millisecond); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	t := &Transport{port: port, portName: portName}
	if err := t.enterSPIMode(); err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// enterSPIMode resets the bridge into raw bitbang mode, then switches to
// binary SPI and configures clock, output drivers and power.
func (t *Transport) enterSPIMode() error {
	// The bridge may sit anywhere in its terminal interface; spamming
	// the binary-mode byte eventually lands on the banner.
	_, err := internal.WithRetry(internal.RetryConfig{MaxRetries: enterRetries},
		func() (struct{}, bool, error) {
			if _, err := t.port.Write([]byte{bpEnterBinary}); err != nil {
				return struct{}{}, false, fmt.Errorf("bridge reset write: %w", err)
			}
			return struct{}{}, !t.expect(bbioBanner), nil
		})
	if errors.Is(err, internal.ErrRetriesExhausted) {
		return errNoBridge
	}
	if err != nil {
		return err
	}

	if _, err := t.port.Write([]byte{bpEnterSPI}); err != nil {
		return fmt.Errorf("bridge spi write: %w", err)
	}
	if !t.expect(spiBanner) {
		return errNoBridge
	}

	// 250 kHz clock inside the card's initial window, push-pull MOSI,
	// clock idle low with data on the active edge, card power on.
	setup := []byte{
		bpSpeed | speed250k,
		bpConfig | cfgPushPull | cfgEdgeActv,
		bpPeriph | periphPower,
	}
	for _, b := range setup {
		if err := t.commandAck(b); err != nil {
			return err
		}
	}
	return nil
}

// expect makes one read of up to len(want) bytes and reports whether what
// arrived matches the start or the end of want. Input left over from
// earlier exchanges is not drained.
func (t *Transport) expect(want []byte) bool {
	buf := make([]byte, len(want))
	n, err := t.port.Read(buf)
	if err != nil || n == 0 {
		return false
	}
	return bytes.Equal(buf[:n], want[len(want)-n:]) || bytes.Equal(buf[:n], want[:n])
}

// commandAck sends one protocol byte and consumes the 0x01 ack.
func (t *Transport) commandAck(b byte) error {
	if _, err := t.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("bridge write 0x%02X: %w", b, err)
	}
	var ack [1]byte
	n, err := t.port.Read(ack[:])
	if err != nil {
		return fmt.Errorf("bridge read ack: %w", err)
	}
	if n == 0 || ack[0] != bpAck {
		return fmt.Errorf("bridge rejected command 0x%02X", b)
	}
	return nil
}

// Exchange clocks one byte through the bridge: a single-byte bulk
// transfer whose ack is followed by the byte read from MISO.
func (t *Transport) Exchange(out byte) (byte, error) {
	if _, err := t.port.Write([]byte{bpBulkBase, out}); err != nil {
		return 0xFF, fmt.Errorf("bridge bulk write: %w", err)
	}
	var buf [2]byte
	got := 0
	for got < 2 {
		n, err := t.port.Read(buf[got:])
		if err != nil {
			return 0xFF, fmt.Errorf("bridge bulk read: %w", err)
		}
		if n == 0 {
			return 0xFF, fmt.Errorf("bridge bulk read: %w", sdcard.ErrTimeout)
		}
		got += n
	}
	if buf[0] != bpAck {
		return 0xFF, fmt.Errorf("bridge rejected bulk transfer (0x%02X)", buf[0])
	}
	return buf[1], nil
}

// AssertCS drives the bridge's chip-select low.
func (t *Transport) AssertCS() error {
	return t.commandAck(bpCSLow)
}

// ReleaseCS drives the bridge's chip-select high.
func (t *Transport) ReleaseCS() error {
	return t.commandAck(bpCSHigh)
}

// CardPresent reports true: the bridge has no card-detect line.
func (*Transport) CardPresent() bool {
	return true
}

// Close powers the card down and closes the port.
func (t *Transport) Close() error {
	// Best effort: drop back to the bridge terminal.
	_, _ = t.port.Write([]byte{bpCSHigh, 0x0F})
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Type returns the transport type.
func (*Transport) Type() sdcard.TransportType {
	return sdcard.TransportSerial
}

// String returns a description of the transport.
func (t *Transport) String() string {
	return fmt.Sprintf("serial(%s)", t.portName)
}
