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

// Package cardsim provides a behavioural SD/MMC card simulator speaking
// the SPI-mode wire protocol byte by byte. It implements the driver's
// Transport interface so the full command/response/data machinery can be
// exercised without hardware.
package cardsim

import (
	sdcard "github.com/ganinaleksei/stm32-sdcard"
)

// Variant selects which card generation the simulator impersonates.
type Variant int

const (
	// MMC rejects CMD8 and CMD55 and is activated with CMD1.
	MMC Variant = iota
	// SDSCv1 rejects CMD8 but accepts ACMD41.
	SDSCv1
	// SDSCv2 accepts CMD8; OCR reports standard capacity.
	SDSCv2
	// SDHC accepts CMD8; OCR reports high capacity, sector addressing.
	SDHC
)

// Frame is one 6-byte command frame as received off the wire.
type Frame struct {
	Arg uint32
	Idx byte
	CRC byte
}

const blockSize = 512

// R1 bits and tokens, mirrored here so the simulator stands alone.
const (
	r1Idle        = 0x01
	r1Illegal     = 0x04
	tokenData     = 0xFE
	tokenMultiWr  = 0xFC
	tokenStopTran = 0xFD
	idleByte      = 0xFF
)

type mode int

const (
	modeReady mode = iota
	modeReadMulti
	modeWriteSingle
	modeWriteMulti
)

// Card simulates one SD/MMC card. Zero value is not usable; use New.
type Card struct {
	variant Variant
	data    []byte
	sectors uint32

	// Tunable timing, in byte times.
	ncr       int // command-to-response delay
	busyPolls int // zero bytes after an accepted write or erase
	idlePolls int // activation polls before leaving the idle state

	erasedByte byte

	// Wire state.
	csAsserted bool
	ramp       int
	out        []byte
	cmdBuf     []byte
	mode       mode
	idle       bool
	appCmd     bool
	blockLen   uint32
	eraseFrom  uint32
	eraseTo    uint32
	haveErase  bool

	readSector  uint32
	writeSector uint32
	wbuf        []byte
	wexpect     int
	wcollecting bool

	frames []Frame

	closed bool
}

// Option configures the simulator.
type Option func(*Card)

// WithIdlePolls sets how many activation polls the card stays idle for.
func WithIdlePolls(n int) Option {
	return func(c *Card) { c.idlePolls = n }
}

// WithBusyPolls sets the length of the busy phase after writes/erases.
func WithBusyPolls(n int) Option {
	return func(c *Card) { c.busyPolls = n }
}

// WithNcr sets the command-to-response delay in byte times.
func WithNcr(n int) Option {
	return func(c *Card) { c.ncr = n }
}

// WithErasedByte sets the value erased sectors read as.
func WithErasedByte(b byte) Option {
	return func(c *Card) { c.erasedByte = b }
}

// New creates a simulated card of the given variant with the given number
// of 512-byte sectors.
func New(variant Variant, sectors uint32, opts ...Option) *Card {
	c := &Card{
		variant:    variant,
		data:       make([]byte, sectors*blockSize),
		sectors:    sectors,
		ncr:        1,
		busyPolls:  4,
		idlePolls:  3,
		erasedByte: 0xFF,
		blockLen:   blockSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sector returns a copy of the given sector's contents.
func (c *Card) Sector(i uint32) []byte {
	out := make([]byte, blockSize)
	copy(out, c.data[i*blockSize:(i+1)*blockSize])
	return out
}

// SetSector overwrites the given sector's contents.
func (c *Card) SetSector(i uint32, data []byte) {
	copy(c.data[i*blockSize:(i+1)*blockSize], data)
}

// Frames returns every command frame received so far.
func (c *Card) Frames() []Frame {
	return c.frames
}

// FramesFor returns the received frames with the given command index.
func (c *Card) FramesFor(idx byte) []Frame {
	var out []Frame
	for _, f := range c.frames {
		if f.Idx == idx {
			out = append(out, f)
		}
	}
	return out
}

// RampBytes returns how many bytes were clocked with chip-select released.
func (c *Card) RampBytes() int {
	return c.ramp
}

// CSAsserted reports the current chip-select state.
func (c *Card) CSAsserted() bool {
	return c.csAsserted
}

// Exchange implements the full-duplex byte exchange: the returned byte is
// what the card was already driving when the host byte arrived.
func (c *Card) Exchange(out byte) (byte, error) {
	ret := c.pop()
	c.feed(out)
	return ret, nil
}

// AssertCS drives chip-select active.
func (c *Card) AssertCS() error {
	c.csAsserted = true
	return nil
}

// ReleaseCS drives chip-select inactive and resets the wire-level state;
// pending output and half-collected frames do not survive deselection.
func (c *Card) ReleaseCS() error {
	c.csAsserted = false
	c.out = nil
	c.cmdBuf = nil
	c.mode = modeReady
	c.wcollecting = false
	return nil
}

// CardPresent reports true; tests for the missing-card path use a mock.
func (*Card) CardPresent() bool {
	return true
}

// Close marks the simulator closed.
func (c *Card) Close() error {
	c.closed = true
	return nil
}

// Type returns the transport type.
func (*Card) Type() sdcard.TransportType {
	return sdcard.TransportMock
}

// pop takes the next byte the card drives, refilling the stream lazily
// during a multi-block read.
func (c *Card) pop() byte {
	if len(c.out) == 0 && c.mode == modeReadMulti {
		c.queueBlock(c.readSector)
		c.readSector++
	}
	if len(c.out) == 0 {
		return idleByte
	}
	b := c.out[0]
	c.out = c.out[1:]
	return b
}

func (c *Card) queue(b ...byte) {
	c.out = append(c.out, b...)
}

// queueBlock queues start token, sector payload and two CRC bytes.
func (c *Card) queueBlock(sector uint32) {
	c.queue(tokenData)
	if sector < c.sectors {
		c.queue(c.data[sector*blockSize:(sector+1)*blockSize]...)
	} else {
		for i := 0; i < blockSize; i++ {
			c.queue(0)
		}
	}
	c.queue(0xAA, 0x55) // CRC, not verified by the host
}

// queueBusy queues the busy phase: zeros until the card is done, then the
// released line shows through the empty queue as 0xFF.
func (c *Card) queueBusy() {
	for i := 0; i < c.busyPolls; i++ {
		c.queue(0x00)
	}
}

// feed consumes one host byte.
func (c *Card) feed(b byte) {
	if !c.csAsserted {
		c.ramp++
		return
	}

	if c.wcollecting {
		c.feedWrite(b)
		return
	}

	// Command frame collection. The first byte of a frame has bit 6 set
	// and bit 7 clear; anything else between frames is host idle clocking.
	if len(c.cmdBuf) == 0 {
		if b&0xC0 != 0x40 {
			return
		}
		c.cmdBuf = append(c.cmdBuf, b)
		return
	}

	c.cmdBuf = append(c.cmdBuf, b)
	if len(c.cmdBuf) < 6 {
		return
	}

	f := Frame{
		Idx: c.cmdBuf[0] & 0x3F,
		Arg: uint32(c.cmdBuf[1])<<24 | uint32(c.cmdBuf[2])<<16 |
			uint32(c.cmdBuf[3])<<8 | uint32(c.cmdBuf[4]),
		CRC: c.cmdBuf[5],
	}
	c.cmdBuf = nil
	c.frames = append(c.frames, f)
	c.handle(f)
}

// feedWrite consumes host bytes during the data phase of a write.
func (c *Card) feedWrite(b byte) {
	if c.wexpect > 0 {
		c.wbuf = append(c.wbuf, b)
		c.wexpect--
		if c.wexpect == 0 {
			c.commitWrite()
		}
		return
	}

	switch b {
	case tokenData:
		if c.mode == modeWriteSingle {
			c.wbuf = nil
			c.wexpect = blockSize + 2
		}
	case tokenMultiWr:
		if c.mode == modeWriteMulti {
			c.wbuf = nil
			c.wexpect = blockSize + 2
		}
	case tokenStopTran:
		if c.mode == modeWriteMulti {
			// One stuff byte, then busy until the writes settle.
			c.queue(idleByte)
			c.queueBusy()
			c.mode = modeReady
			c.wcollecting = false
		}
	}
	// 0xFF between tokens is the host's setup delay or busy polling.
}

// commitWrite stores a completed data block and answers with the data
// response token followed by the busy phase.
func (c *Card) commitWrite() {
	sector := c.writeSector
	if sector < c.sectors {
		copy(c.data[sector*blockSize:(sector+1)*blockSize], c.wbuf[:blockSize])
	}
	c.writeSector++
	c.queue(0xE5) // xxx0_010_1: data accepted
	c.queueBusy()
	if c.mode == modeWriteSingle {
		c.mode = modeReady
		c.wcollecting = false
	}
	// Multi-block write keeps collecting until the stop token.
}

// sectorOf translates an on-wire address into a sector index per the
// card's addressing mode.
func (c *Card) sectorOf(arg uint32) uint32 {
	if c.variant == SDHC {
		return arg
	}
	return arg >> 9
}

func (c *Card) respond(r1 byte, extra ...byte) {
	for i := 0; i < c.ncr; i++ {
		c.queue(idleByte)
	}
	c.queue(r1)
	c.queue(extra...)
}

func (c *Card) r1() byte {
	if c.idle {
		return r1Idle
	}
	return 0
}

// handle runs one received command frame through the card state machine.
func (c *Card) handle(f Frame) {
	app := c.appCmd
	c.appCmd = false

	switch {
	case f.Idx == 0: // GO_IDLE_STATE
		c.idle = true
		c.mode = modeReady
		c.respond(r1Idle)

	case f.Idx == 8: // SEND_IF_COND
		if c.variant == SDSCv2 || c.variant == SDHC {
			c.respond(c.r1(),
				byte(f.Arg>>24), byte(f.Arg>>16), byte(f.Arg>>8), byte(f.Arg))
		} else {
			c.respond(c.r1() | r1Illegal)
		}

	case f.Idx == 55: // APP_CMD
		if c.variant == MMC {
			c.respond(c.r1() | r1Illegal)
		} else {
			c.appCmd = true
			c.respond(c.r1())
		}

	case f.Idx == 41 && app: // ACMD41
		c.countdownActivation()

	case f.Idx == 1: // SEND_OP_COND (MMC)
		if c.variant == MMC {
			c.countdownActivation()
		} else {
			c.respond(c.r1() | r1Illegal)
		}

	case f.Idx == 58: // READ_OCR
		ocr := uint32(0x80FF8000)
		if c.variant == SDHC {
			ocr |= 0x40000000
		}
		c.respond(c.r1(),
			byte(ocr>>24), byte(ocr>>16), byte(ocr>>8), byte(ocr))

	case f.Idx == 16: // SET_BLOCKLEN
		c.blockLen = f.Arg
		c.respond(c.r1())

	case f.Idx == 17: // READ_SINGLE_BLOCK
		c.respond(c.r1())
		c.queueBlock(c.sectorOf(f.Arg))

	case f.Idx == 18: // READ_MULTIPLE_BLOCK
		c.respond(c.r1())
		c.readSector = c.sectorOf(f.Arg)
		c.mode = modeReadMulti

	case f.Idx == 12: // STOP_TRANSMISSION
		c.mode = modeReady
		c.out = nil
		// Stuff byte precedes the response.
		c.queue(idleByte)
		c.respond(0)
		c.queueBusy()

	case f.Idx == 23: // SET_BLOCK_COUNT
		if c.variant == MMC {
			c.respond(c.r1() | r1Illegal)
		} else {
			c.respond(c.r1())
		}

	case f.Idx == 24: // WRITE_SINGLE_BLOCK
		c.respond(c.r1())
		c.writeSector = c.sectorOf(f.Arg)
		c.mode = modeWriteSingle
		c.wcollecting = true
		c.wexpect = 0

	case f.Idx == 25: // WRITE_MULTIPLE_BLOCK
		c.respond(c.r1())
		c.writeSector = c.sectorOf(f.Arg)
		c.mode = modeWriteMulti
		c.wcollecting = true
		c.wexpect = 0

	case f.Idx == 32: // ERASE_WR_BLK_START
		c.eraseFrom = c.sectorOf(f.Arg)
		c.haveErase = true
		c.respond(c.r1())

	case f.Idx == 33: // ERASE_WR_BLK_END
		c.eraseTo = c.sectorOf(f.Arg)
		c.respond(c.r1())

	case f.Idx == 38: // ERASE
		if c.haveErase {
			for s := c.eraseFrom; s <= c.eraseTo && s < c.sectors; s++ {
				for i := uint32(0); i < blockSize; i++ {
					c.data[s*blockSize+i] = c.erasedByte
				}
			}
			c.haveErase = false
		}
		c.respond(c.r1())
		c.queueBusy()

	case f.Idx == 9: // SEND_CSD
		c.respond(c.r1())
		c.queueRegister(c.csd())

	case f.Idx == 10: // SEND_CID
		c.respond(c.r1())
		c.queueRegister(c.cid())

	case f.Idx == 51 && app: // SEND_SCR
		c.respond(c.r1())
		c.queueRegister(c.scr())

	case f.Idx == 13 && app: // SD_STATUS
		c.respond(c.r1())
		c.queueRegister(c.status())

	default:
		c.respond(c.r1() | r1Illegal)
	}
}

// countdownActivation answers an activation poll, leaving the idle state
// once the configured number of polls has elapsed.
func (c *Card) countdownActivation() {
	if c.idlePolls > 0 {
		c.idlePolls--
		c.respond(r1Idle)
		return
	}
	c.idle = false
	c.respond(0)
}

// queueRegister queues a register blob with the data start token and CRC.
func (c *Card) queueRegister(raw []byte) {
	c.queue(tokenData)
	c.queue(raw...)
	c.queue(0xAA, 0x55)
}
