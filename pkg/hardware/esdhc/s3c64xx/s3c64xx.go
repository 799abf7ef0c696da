// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package s3c64xx adapts the eSDHC engine to the Samsung S3C64xx and S5PCxx
// SoCs. These feed the SD clock divider from one of several clock tree
// outputs and have implementation defined registers for pad drive strength
// and feedback clock delays.
//
//	        MMCx_SEL
//	EPLLout ---0-\
//	MPLLout ---1--\-----SCLK_MMCx----DIV_MMCx--+---->HSMMCx
//	EPLLin  ---2--/       on/off      1..16    |
//	27 MHz  ---3-/                             |  SELBASECLK
//	                                           |      v
//	HCLK --HCLK_GATE---o-----------------------|--o---0--\
//	                   |                       |  +---1---\---ESDHCDIV--> SD card clock
//	                   |                       +------2---/
//	                   |      EXTCLK -----------------3--/
//	                   +--------------------------------->| MMC unit clock
package s3c64xx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
)

// Above this card clock the High timing profile is used.
const highBand uint32 = 25000000

// ClockSource is the SELBASECLK input of the SD clock divider.
type ClockSource int

const (
	SourceHCLK ClockSource = iota
	SourceHCLK1
	SourceHSMMC
	SourceExternal
)

func (s ClockSource) String() string {
	switch s {
	case SourceHCLK, SourceHCLK1:
		return "HCLK"
	case SourceHSMMC:
		return "HSMMC"
	case SourceExternal:
		return "external"
	}
	return fmt.Sprintf("ClockSource(%d)", int(s))
}

// DriveStrength of the SD pads.
type DriveStrength uint8

const (
	Drive2mA DriveStrength = iota
	Drive4mA
	Drive7mA
	Drive9mA
)

// FeedbackDelay selects the feedback clock path for one direction.
//
//	00 inverter delay (10ns @ 50 MHz)
//	01 basic delay
//	10 inverter delay + 2ns
//	11 basic delay + 2ns
type FeedbackDelay struct {
	Enable bool
	Code   uint8
}

// Timing is the electrical setup used for one card clock band.
type Timing struct {
	PinStrength DriveStrength
	Rx          FeedbackDelay
	Tx          FeedbackDelay
}

// ClockTree is the part of the SoC clock controller the driver needs.
type ClockTree interface {
	HCLK() uint32
	// HSMMCClock returns the HSMMC output for controller id, 0 if gated.
	HSMMCClock(id int) uint32
	// SetHSMMCClock selects src as the HSMMC input, sets its divider and
	// ungates it.
	SetHSMMCClock(id, src int, div uint32)
}

type Config struct {
	// Controller instance, selects the HSMMC clock.
	ID     int
	Source ClockSource
	// Timing at and below 25 MHz.
	Low Timing
	// Timing above 25 MHz.
	High Timing
	Log  *zap.SugaredLogger
}

type Platform struct {
	tree ClockTree
	c    Config
	log  *zap.SugaredLogger
}

func New(tree ClockTree, c Config) *Platform {
	p := &Platform{tree: tree, c: c, log: c.Log}
	if p.log == nil {
		p.log = zap.NewNop().Sugar()
	}
	return p
}

// Setup routes EPLL undivided to the HSMMC clock when that is the source.
func (p *Platform) Setup() error {
	if p.c.Source == SourceHSMMC {
		p.tree.SetHSMMCClock(p.c.ID, 0, 1)
	}
	return nil
}

func (p *Platform) BaseClock() (uint32, error) {
	switch p.c.Source {
	case SourceHCLK, SourceHCLK1:
		p.log.Debugf("mmc%d: using HCLK as the input clock", p.c.ID)
		return p.tree.HCLK(), nil
	case SourceHSMMC:
		p.log.Debugf("mmc%d: using HSMMC%d as the input clock", p.c.ID, p.c.ID)
		if hz := p.tree.HSMMCClock(p.c.ID); hz != 0 {
			return hz, nil
		}
		return 0, fmt.Errorf("HSMMC%d clock is gated", p.c.ID)
	}
	return 0, fmt.Errorf("%w: %v", esdhc.ErrUnsupportedClock, p.c.Source)
}

func rxDelay(code uint8) uint32 {
	var v uint32
	if code&0x01 != 0 {
		v |= esdhc.CONTROL3_FCSEL0
	}
	if code&0x02 != 0 {
		v |= esdhc.CONTROL3_FCSEL1
	}
	return v
}

func txDelay(code uint8) uint32 {
	var v uint32
	if code&0x01 != 0 {
		v |= esdhc.CONTROL3_FCSEL2
	}
	if code&0x02 != 0 {
		v |= esdhc.CONTROL3_FCSEL3
	}
	return v
}

// SetupInterface programs CONTROL2-4 for a card clock of freq Hz.
func (p *Platform) SetupInterface(r *esdhc.Regs, freq uint32) {
	t := p.c.Low
	if freq > highBand {
		t = p.c.High
		p.log.Debugf("mmc%d: setting up the delays for frequencies above 25 MHz", p.c.ID)
	} else {
		p.log.Debugf("mmc%d: setting up the delays for frequencies below 25 MHz", p.c.ID)
	}

	ctl3 := r.Read32(esdhc.CONTROL3) &^ esdhc.CONTROL3_FCSEL_MASK
	ctl2 := esdhc.CONTROL2_ENCLKOUTHOLD |
		2<<esdhc.CONTROL2_DEFCNT_SH |
		esdhc.CONTROL2_ENSTAASYNCCLR |
		esdhc.CONTROL2_ENCMDCNFMSK |
		uint32(p.c.Source&3)<<esdhc.CONTROL2_SELBASECLK_SH
	if t.Rx.Enable {
		ctl2 |= esdhc.CONTROL2_ENFBCLKRX
		ctl3 |= rxDelay(t.Rx.Code)
	}
	if t.Tx.Enable {
		ctl2 |= esdhc.CONTROL2_ENFBCLKTX
		ctl3 |= txDelay(t.Tx.Code)
	}
	r.Write32(esdhc.CONTROL2, ctl2)
	r.Write32(esdhc.CONTROL3, ctl3)
	// The third S3C6410 channel ignores this.
	r.Write32(esdhc.CONTROL4, uint32(t.PinStrength&3)<<esdhc.CONTROL4_SELCLKPADDS_SH)
}
