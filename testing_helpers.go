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

// MockTransport is a scripted byte-level transport for tests. Bytes the
// "card" drives are queued with Feed; everything the host clocks out is
// recorded in Sent, and chip-select transitions land in CSLog. Once the
// script runs dry the card reads as idle (0xFF).
type MockTransport struct {
	ExchangeErr error
	script      []byte
	Sent        []byte
	CSLog       []bool
	Present     bool
	csAsserted  bool
	closed      bool
}

// NewMockTransport creates a mock transport with a card present.
func NewMockTransport() *MockTransport {
	return &MockTransport{Present: true}
}

// Feed appends bytes to the script the card will drive.
func (m *MockTransport) Feed(b ...byte) {
	m.script = append(m.script, b...)
}

// Exchange records the outgoing byte and returns the next scripted byte.
func (m *MockTransport) Exchange(out byte) (byte, error) {
	if m.ExchangeErr != nil {
		return 0xFF, m.ExchangeErr
	}
	m.Sent = append(m.Sent, out)
	if len(m.script) == 0 {
		return 0xFF, nil
	}
	b := m.script[0]
	m.script = m.script[1:]
	return b, nil
}

// AssertCS records a chip-select assertion.
func (m *MockTransport) AssertCS() error {
	m.csAsserted = true
	m.CSLog = append(m.CSLog, true)
	return nil
}

// ReleaseCS records a chip-select release.
func (m *MockTransport) ReleaseCS() error {
	m.csAsserted = false
	m.CSLog = append(m.CSLog, false)
	return nil
}

// CSAsserted reports the current chip-select state.
func (m *MockTransport) CSAsserted() bool {
	return m.csAsserted
}

// CardPresent reports the scripted card-detect state.
func (m *MockTransport) CardPresent() bool {
	return m.Present
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.closed = true
	return nil
}

// Type returns the transport type.
func (*MockTransport) Type() TransportType {
	return TransportMock
}
