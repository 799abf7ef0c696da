// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap/zaptest"
)

const simBase uintptr = 0x7c200000

type access struct {
	write bool
	off   uintptr
	size  int
	val   uint32
}

// simHost is a behavioural model of the controller. Every register read
// advances the fake clock by tick so that polls time out in finite time.
type simHost struct {
	t    *testing.T
	clk  clock.FakeClock
	tick time.Duration
	regs [BLOCK_SIZE]byte
	log  []access

	initStuck   bool   // CONTROL2.HWINITFIN never sets
	clockStuck  bool   // CLKCON.STBLINTCLK never sets
	cmdHang     bool   // commands never complete
	cmdErr      uint16 // ERRINTSTS raised instead of completion
	bufferStuck bool   // buffer ready never sets
	linger      bool   // data lines stay active after the transfer
	cmdInhibit  bool   // PRNSTS.CMDINHCMD stuck
	datInhibit  bool   // PRNSTS.CMDINHDAT stuck
	bouncing    bool   // card detect never stable
	cardIn      bool
	writable    bool

	cardData []byte // served on BDATA reads
	rdPos    int
	written  []byte
	read     int // bytes read through BDATA

	remaining int  // bytes left in the current data phase
	readDir   bool // current data phase direction
	windows   int  // buffer ready indications handed out
	commands  []uint16
	resets    []uint8
}

func newSim(t *testing.T) *simHost {
	return &simHost{
		t:        t,
		clk:      clock.NewFake(),
		tick:     time.Millisecond,
		cardIn:   true,
		writable: true,
	}
}

// host wires a Host to the model. Fields of c that matter to the model are
// filled in.
func (s *simHost) host(c Config) *Host {
	s.t.Helper()
	c.Base = simBase
	c.Clock = s.clk
	if c.Log == nil {
		c.Log = zaptest.NewLogger(s.t).Sugar()
	}
	if c.Name == "" {
		c.Name = "mmc0"
	}
	if c.Platform == nil {
		c.Platform = &StandardPlatform{BaseClockHz: 48000000}
	}
	h, err := New(s, c)
	if err != nil {
		s.t.Fatalf("New: %v", err)
	}
	return h
}

func (s *simHost) get(off uintptr, size int) uint32 {
	switch size {
	case 8:
		return uint32(s.regs[off])
	case 16:
		return uint32(binary.LittleEndian.Uint16(s.regs[off:]))
	}
	return binary.LittleEndian.Uint32(s.regs[off:])
}

func (s *simHost) set(off uintptr, size int, v uint32) {
	switch size {
	case 8:
		s.regs[off] = uint8(v)
	case 16:
		binary.LittleEndian.PutUint16(s.regs[off:], uint16(v))
	default:
		binary.LittleEndian.PutUint32(s.regs[off:], v)
	}
}

func (s *simHost) setResponse(r [4]uint32) {
	s.set(RSPREG0, 32, r[0])
	s.set(RSPREG1, 32, r[1])
	s.set(RSPREG2, 32, r[2])
	s.set(RSPREG3, 32, r[3])
}

// writes returns the logged writes to off.
func (s *simHost) writes(off uintptr) []uint32 {
	var v []uint32
	for _, a := range s.log {
		if a.write && a.off == off {
			v = append(v, a.val)
		}
	}
	return v
}

// reads counts the logged reads of off.
func (s *simHost) reads(off uintptr) int {
	n := 0
	for _, a := range s.log {
		if !a.write && a.off == off {
			n++
		}
	}
	return n
}

func (s *simHost) offset(a uintptr) uintptr {
	s.t.Helper()
	if a < simBase || a >= simBase+BLOCK_SIZE {
		s.t.Fatalf("Access outside of the register block: %08x", a)
	}
	return a - simBase
}

func (s *simHost) prnsts() uint32 {
	var v uint32
	if s.cardIn {
		v |= PRNSTS_INSCARD
	}
	if !s.bouncing {
		v |= PRNSTS_STBLCARD
	}
	if s.cmdInhibit {
		v |= PRNSTS_CMDINHCMD
	}
	if s.datInhibit {
		v |= PRNSTS_CMDINHDAT
	}
	if s.writable {
		v |= PRNSTS_WPSPL
	}
	if s.remaining > 0 || s.linger {
		v |= PRNSTS_DATLINACT
	}
	if s.remaining > 0 && !s.bufferStuck {
		s.windows++
		if s.readDir {
			v |= PRNSTS_BUFRDRDY
		} else {
			v |= PRNSTS_BUFWTRDY
		}
	}
	return v
}

func (s *simHost) dataWord() {
	if s.remaining <= 0 {
		s.t.Errorf("Data port accessed outside of a data phase")
		return
	}
	s.remaining -= 4
	if s.remaining == 0 {
		s.set(NORINTSTS, 16, s.get(NORINTSTS, 16)|uint32(NORINTSTS_STATRANCMPLT))
	}
}

func (s *simHost) load(a uintptr, size int) uint32 {
	s.t.Helper()
	s.clk.Add(s.tick)
	off := s.offset(a)
	var v uint32
	switch off {
	case PRNSTS:
		v = s.prnsts()
	case BDATA:
		if s.rdPos+4 <= len(s.cardData) {
			v = binary.LittleEndian.Uint32(s.cardData[s.rdPos:])
		}
		s.rdPos += 4
		s.read += 4
		s.dataWord()
	case CONTROL2:
		v = s.get(off, size)
		if !s.initStuck {
			v |= CONTROL2_HWINITFIN
		}
	case CLKCON:
		v = s.get(off, size)
		if v&uint32(CLKCON_ENINTCLK) != 0 && !s.clockStuck {
			v |= uint32(CLKCON_STBLINTCLK)
		}
	default:
		v = s.get(off, size)
	}
	s.log = append(s.log, access{false, off, size, v})
	return v
}

func (s *simHost) store(a uintptr, size int, v uint32) {
	s.t.Helper()
	off := s.offset(a)
	s.log = append(s.log, access{true, off, size, v})
	switch off {
	case NORINTSTS, ERRINTSTS:
		s.set(off, size, s.get(off, size)&^v)
	case SWRST:
		s.resets = append(s.resets, uint8(v))
		s.remaining = 0
	case BDATA:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		s.written = append(s.written, b...)
		s.dataWord()
	case CMDREG:
		s.set(off, size, v)
		s.command(uint16(v))
	default:
		s.set(off, size, v)
	}
}

func (s *simHost) command(reg uint16) {
	s.commands = append(s.commands, reg)
	if reg&CMDREG_DATAPRNT != 0 {
		s.remaining = int(s.get(BLKSIZE, 16) * s.get(BLKCNT, 16))
		s.readDir = s.get(TRNMOD, 16)&uint32(TRNMOD_RD1WT0) != 0
	}
	switch {
	case s.cmdHang:
	case s.cmdErr != 0:
		s.set(ERRINTSTS, 16, uint32(s.cmdErr))
		s.set(NORINTSTS, 16, s.get(NORINTSTS, 16)|uint32(NORINTSTS_STAERR))
		s.remaining = 0
	default:
		s.set(NORINTSTS, 16, s.get(NORINTSTS, 16)|uint32(NORINTSTS_STACMDCMPLT))
	}
}

func (s *simHost) MustRead32(a uintptr) uint32 { return s.load(a, 32) }
func (s *simHost) MustRead16(a uintptr) uint16 { return uint16(s.load(a, 16)) }
func (s *simHost) MustRead8(a uintptr) uint8   { return uint8(s.load(a, 8)) }

func (s *simHost) MustWrite32(a uintptr, d uint32) { s.store(a, 32, d) }
func (s *simHost) MustWrite16(a uintptr, d uint16) { s.store(a, 16, uint32(d)) }
func (s *simHost) MustWrite8(a uintptr, d uint8)   { s.store(a, 8, uint32(d)) }

func (s *simHost) Close() {}
