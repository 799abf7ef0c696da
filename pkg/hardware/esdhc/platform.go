// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

// Platform is the SoC family specific part of a controller.
type Platform interface {
	// Setup prepares the clocks feeding the controller. It is called once
	// when the Host is created.
	Setup() error
	// BaseClock returns the frequency in Hz entering the SD clock divider.
	BaseClock() (uint32, error)
	// SetupInterface programs pin drive strength and feedback clock delays
	// for a card clock of freq Hz.
	SetupInterface(r *Regs, freq uint32)
}

// StandardPlatform is a controller without implementation defined registers
// fed by a fixed base clock.
type StandardPlatform struct {
	BaseClockHz uint32
}

func (p *StandardPlatform) Setup() error {
	return nil
}

func (p *StandardPlatform) BaseClock() (uint32, error) {
	if p.BaseClockHz == 0 {
		return 0, ErrUnsupportedClock
	}
	return p.BaseClockHz, nil
}

func (p *StandardPlatform) SetupInterface(r *Regs, freq uint32) {
}
