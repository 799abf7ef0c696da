// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"errors"
	"fmt"
)

// Reset puts the whole controller into its power-on state and switches the
// card supply to 3.3 V.
func (h *Host) Reset() error {
	h.regs.Write8(SWRST, SWRST_RSTALL|SWRST_RSTCMD|SWRST_RSTDAT)
	err := h.poll("controller reset", func() bool {
		return h.regs.Read32(CONTROL2)&CONTROL2_HWINITFIN != 0
	})
	h.metrics.observe(h.name, "reset", err)
	if err != nil {
		h.log.Errorf("%s: cannot reset the controller: %v", h.name, err)
		return err
	}
	h.state = StateIdle
	h.regs.Write8(PWRCON, PWRCON_SDBUSVOLTAGE_33V)
	h.regs.Write8(PWRCON, PWRCON_SDBUSVOLTAGE_33V|PWRCON_SDBUSPOWER)
	return nil
}

// Request sends c to the card. When d is not nil the command carries a data
// phase that moves d.Buf. Nothing is retried.
func (h *Host) Request(c *Command, d *Data) error {
	err := h.request(c, d)
	h.metrics.observe(h.name, "request", err)
	return err
}

func (h *Host) request(c *Command, d *Data) error {
	if c == nil {
		return fmt.Errorf("%w: no command", ErrInvalidData)
	}
	if d != nil {
		if c.Response == RespNone {
			return fmt.Errorf("%w: %v has data but expects no response", ErrInvalidData, c)
		}
		if err := d.validate(); err != nil {
			return err
		}
	}

	p, err := h.CardPresent()
	if err != nil {
		return fmt.Errorf("card detect: %w", err)
	}
	switch p {
	case No:
		return ErrCardAbsent
	case Unknown:
		h.log.Debugf("%s: card presence unknown, sending %v anyway", h.name, c)
	}

	if d == nil {
		return h.sendCommand(c, false)
	}
	h.log.Debugf("%s: %v with %s of %d x %d bytes", h.name, c, d.Dir, d.Blocks, d.BlockSize)
	return h.transfer(c, d)
}

// SetIOS selects the data bus width and the card clock. A clock of 0 only
// records that the clock may be gated.
func (h *Host) SetIOS(width BusWidth, hz uint32) {
	v := h.regs.Read8(HOSTCTL) &^ (HOSTCTL_WIDE4 | HOSTCTL_WIDE8)
	switch width {
	case BusWidth4:
		v |= HOSTCTL_WIDE4
	case BusWidth8:
		v |= HOSTCTL_WIDE8
	}
	h.regs.Write8(HOSTCTL, v)
	h.busWidth = width

	if hz == 0 {
		h.clockGate = true
		h.log.Infof("%s: card clock should be switched off", h.name)
		return
	}
	h.clockGate = false
	h.clock = h.setupClock(hz)
}

// result classifies err for metrics.
func result(err error) string {
	var ce *CommandError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &ce):
		return "command_error"
	case errors.Is(err, ErrCardAbsent):
		return "card_absent"
	case errors.Is(err, ErrWriteProtected):
		return "write_protected"
	case errors.Is(err, ErrInvalidData):
		return "invalid"
	}
	return "error"
}
