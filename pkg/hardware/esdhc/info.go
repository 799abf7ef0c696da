// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"fmt"
	"io"
)

// Info is a snapshot of what the controller reports about itself together
// with the settings the Host last programmed.
type Info struct {
	Name          string
	Base          uintptr
	VendorVersion uint8
	SpecVersion   uint8
	V18           bool
	V30           bool
	V33           bool
	DMA           bool
	HighSpeed     bool
	MaxBlockLen   int // 0 if the field holds a reserved value
	BusWidth      BusWidth
	Clock         uint32
	FMin          uint32
	FMax          uint32
	CardDetect    string
	WriteProtect  string
	CDSupported   bool
	WPSupported   bool
}

func (h *Host) Info() Info {
	ver := h.regs.Read16(HCVER)
	caps := h.regs.Read32(CAPAREG)

	i := Info{
		Name:          h.name,
		Base:          h.regs.Base(),
		VendorVersion: uint8(ver >> 8),
		SpecVersion:   uint8(ver),
		V18:           caps&CAPAREG_CAPV18 != 0,
		V30:           caps&CAPAREG_CAPV30 != 0,
		V33:           caps&CAPAREG_CAPV33 != 0,
		DMA:           caps&CAPAREG_CAPDMA != 0,
		HighSpeed:     caps&CAPAREG_CAPAHSPD != 0,
		BusWidth:      h.busWidth,
		Clock:         h.clock,
		FMin:          h.caps.FMin,
		FMax:          h.caps.FMax,
		CardDetect:    h.cd.String(),
		WriteProtect:  h.wp.String(),
		CDSupported:   h.cd.Supported(),
		WPSupported:   h.wp.Supported(),
	}
	switch (caps >> CAPAREG_CAPMAXBLKLEN_SH) & CAPAREG_CAPMAXBLKLEN_MASK {
	case 0:
		i.MaxBlockLen = 512
	case 1:
		i.MaxBlockLen = 1024
	case 2:
		i.MaxBlockLen = 2048
	}
	return i
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (i Info) WriteTo(w io.Writer) (int64, error) {
	var (
		n   int64
		err error
	)
	p := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		var c int
		c, err = fmt.Fprintf(w, format, a...)
		n += int64(c)
	}
	p("%s at %#08x\n", i.Name, i.Base)
	p("  ESDHC %d.0 HC, spec %d.0\n", i.VendorVersion, i.SpecVersion)
	p("  Bus voltages:")
	if i.V18 {
		p(" 1.8V")
	}
	if i.V30 {
		p(" 3.0V")
	}
	if i.V33 {
		p(" 3.3V")
	}
	p("\n")
	p("  DMA capability: %s\n", yesNo(i.DMA))
	p("  High speed capability: %s\n", yesNo(i.HighSpeed))
	if i.MaxBlockLen == 0 {
		p("  Max block length: (unknown)\n")
	} else {
		p("  Max block length: %d bytes\n", i.MaxBlockLen)
	}
	p("  Bus data width: %s\n", i.BusWidth)
	p("  Bus frequency: %d Hz\n", i.Clock)
	p("  Frequency limits: %d Hz - %d Hz\n", i.FMin, i.FMax)
	p("  Card detection: %s (supported: %s)\n", i.CardDetect, yesNo(i.CDSupported))
	p("  Card write protection: %s (supported: %s)\n", i.WriteProtect, yesNo(i.WPSupported))
	return n, err
}

// Dump prints the raw register file, except the data port whose reads
// would consume FIFO contents.
func (h *Host) Dump(w io.Writer) {
	for _, r := range regNames {
		var v uint32
		switch r.width {
		case 8:
			v = uint32(h.regs.Read8(r.off))
		case 16:
			v = uint32(h.regs.Read16(r.off))
		default:
			v = h.regs.Read32(r.off)
		}
		fmt.Fprintf(w, " %02X: %-30s %0*x\n", r.off, r.name, r.width/4, v)
	}
}
