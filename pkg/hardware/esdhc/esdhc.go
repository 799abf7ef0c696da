// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Library for driving the SD/MMC host controllers (eSDHC) found in the
// Samsung S3C64xx and S5PCxx SoCs.
//
// The package executes single MMC commands with an optional polled (PIO)
// data phase, programs the card clock and bus width, and resets the
// controller. Which commands to send, and in which order, is the business
// of the MMC layer sitting on top of a Host.
//
// Every wait is a busy poll bounded by Config.Timeout. Nothing is retried,
// a failed request is reported to the caller who decides what to do next.
//
// A Host owns its register block. It must not be used from more than one
// goroutine at a time, each request runs to completion before returning.

package esdhc

import (
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

const (
	// Card clock used when the board does not set a lower limit. It is the
	// 24 MHz reference clock divided by the largest divider.
	DefaultFMin uint32 = 24000000 / 256
	DefaultFMax uint32 = 52000000

	highSpeedThreshold uint32 = 25000000
)

// BusWidth is the number of data lines used towards the card.
type BusWidth int

const (
	BusWidth1 BusWidth = iota
	BusWidth4
	BusWidth8
)

func (w BusWidth) String() string {
	switch w {
	case BusWidth4:
		return "4 bit"
	case BusWidth8:
		return "8 bit"
	}
	return "1 bit"
}

// HostCaps are the interface modes the board wiring allows.
type HostCaps uint32

const (
	Mode4Bit HostCaps = 1 << iota
	Mode8Bit
	ModeHS
	ModeHS52MHz
)

// Voltage window bits, in the OCR layout.
const (
	VDD165_195 uint32 = 1 << 7
	VDD29_30   uint32 = 1 << 17
	VDD30_31   uint32 = 1 << 18
	VDD32_33   uint32 = 1 << 20
	VDD33_34   uint32 = 1 << 21
)

// Capabilities are fixed for the lifetime of a Host.
type Capabilities struct {
	Voltages uint32
	HostCaps HostCaps
	FMin     uint32
	FMax     uint32
}

// Config is the static description of one controller instance.
type Config struct {
	Name         string
	Base         uintptr
	Platform     Platform
	Caps         Capabilities
	CardDetect   CardDetect
	WriteProtect WriteProtect

	// Optional
	Clock   clock.Clock
	Timeout time.Duration
	Log     *zap.SugaredLogger
	Metrics *Metrics
}

type Host struct {
	name     string
	mem      MemProvider
	regs     *Regs
	platform Platform
	caps     Capabilities
	cd       CardDetect
	wp       WriteProtect
	clk      clock.Clock
	timeout  time.Duration
	log      *zap.SugaredLogger
	metrics  *Metrics

	busWidth  BusWidth
	clock     uint32
	clockGate bool
	state     CommandState
}

// New creates a Host for the controller described by c, accessed through
// mem. The platform clocks are prepared but no controller register is
// touched.
func New(mem MemProvider, c Config) (*Host, error) {
	if c.Platform == nil {
		return nil, fmt.Errorf("controller %q: no platform", c.Name)
	}
	h := &Host{
		name:     c.Name,
		mem:      mem,
		regs:     NewRegs(mem, c.Base),
		platform: c.Platform,
		caps:     c.Caps,
		cd:       c.CardDetect,
		wp:       c.WriteProtect,
		clk:      c.Clock,
		timeout:  c.Timeout,
		log:      c.Log,
		metrics:  c.Metrics,
	}
	if h.cd == nil {
		h.cd = NoCardDetect{}
	}
	if h.wp == nil {
		h.wp = NoWriteProtect{}
	}
	if h.clk == nil {
		h.clk = clock.New()
	}
	if h.timeout == 0 {
		h.timeout = DefaultTimeout
	}
	if h.log == nil {
		h.log = zap.NewNop().Sugar()
	}
	if h.caps.FMin == 0 {
		h.caps.FMin = DefaultFMin
	}
	if h.caps.FMax == 0 {
		h.caps.FMax = DefaultFMax
	}
	if h.caps.FMin > h.caps.FMax {
		return nil, fmt.Errorf("controller %q: f_min %d Hz above f_max %d Hz", c.Name, h.caps.FMin, h.caps.FMax)
	}
	if err := h.platform.Setup(); err != nil {
		return nil, fmt.Errorf("controller %q: platform setup: %w", c.Name, err)
	}
	h.log.Debugf("%s: using f_min = %d Hz, f_max = %d Hz", h.name, h.caps.FMin, h.caps.FMax)
	return h, nil
}

// Start feeds the card with the lowest clock so that the engine and the
// card can finish their own startup. Call it once after New.
func (h *Host) Start() uint32 {
	h.clock = h.setupClock(h.caps.FMin)
	return h.clock
}

func (h *Host) Name() string {
	return h.name
}

func (h *Host) Regs() *Regs {
	return h.regs
}

func (h *Host) Caps() Capabilities {
	return h.caps
}

// Clock is the card clock last programmed, in Hz.
func (h *Host) Clock() uint32 {
	return h.clock
}

func (h *Host) BusWidth() BusWidth {
	return h.busWidth
}

// ClockGated reports whether the last SetIOS asked for the card clock to
// be switched off.
func (h *Host) ClockGated() bool {
	return h.clockGate
}

func (h *Host) Close() {
	h.mem.Close()
}
