// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i>>8)
	}
	return b
}

func readBlocks(blocks uint32) (*Command, *Data) {
	c := &Command{Index: 17, Arg: 0x800, Response: Resp48, CheckCRC: true, CheckIndex: true}
	if blocks > 1 {
		c.Index = 18
	}
	return c, &Data{Dir: Read, BlockSize: 512, Blocks: blocks, Buf: make([]byte, 512*blocks)}
}

func TestCMD17(t *testing.T) {
	const base = 0x7c200000
	f := fakeMemory(t)
	h, err := New(f, Config{
		Name:     "mmc0",
		Base:     base,
		Platform: &StandardPlatform{BaseClockHz: 48000000},
		Clock:    clock.NewFake(),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := pattern(512)

	f.ExpectWrite8(base+TIMEOUTCON, 0x0e)
	f.ExpectWrite16(base+BLKSIZE, 512)
	f.ExpectWrite16(base+BLKCNT, 1)
	f.ExpectWrite16(base+TRNMOD, TRNMOD_ENBLKCNT|TRNMOD_RD1WT0)
	f.FakeRead32(base+PRNSTS, 0)
	f.ExpectWrite32(base+ARGMNT, 0x800)
	f.ExpectWrite16(base+CMDREG, 0x113a)
	f.FakeRead16(base+NORINTSTS, NORINTSTS_STACMDCMPLT)
	f.ExpectWrite16(base+NORINTSTS, NORINTSTS_STACMDCMPLT)
	f.FakeRead32(base+RSPREG0, 0x900)
	f.FakeRead32(base+PRNSTS, PRNSTS_BUFRDRDY)
	for i := 0; i < 512; i += 4 {
		f.FakeRead32(base+BDATA, binary.LittleEndian.Uint32(want[i:]))
	}
	f.FakeRead16(base+NORINTSTS, NORINTSTS_STATRANCMPLT)
	f.ExpectWrite16(base+NORINTSTS, NORINTSTS_STATRANCMPLT)
	f.FakeRead32(base+PRNSTS, 0)

	c, d := readBlocks(1)
	if err := h.Request(c, d); err != nil {
		t.Fatalf("Request(CMD17) = %v", err)
	}
	f.Done()

	if diff := cmp.Diff(want, d.Buf); diff != "" {
		t.Errorf("Block mismatch (-want +got):\n%s", diff)
	}
	if c.Resp[0] != 0x900 {
		t.Errorf("Response = %08x, want 00000900", c.Resp[0])
	}
}

func TestMultiBlockRead(t *testing.T) {
	s := newSim(t)
	s.cardData = pattern(2048)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := s.host(Config{Metrics: m})

	c, d := readBlocks(4)
	if err := h.Request(c, d); err != nil {
		t.Fatalf("Request(CMD18) = %v", err)
	}
	if s.read != 2048 {
		t.Errorf("Moved %d bytes, want 2048", s.read)
	}
	if s.windows != 4 {
		t.Errorf("Waited for %d buffer windows, want 4", s.windows)
	}
	if diff := cmp.Diff(s.cardData, d.Buf); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{uint32(TRNMOD_ENBLKCNT | TRNMOD_MUL1SIN0 | TRNMOD_RD1WT0)}, s.writes(TRNMOD)); diff != "" {
		t.Errorf("TRNMOD mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(m.bytes.WithLabelValues("mmc0", "read")); got != 2048 {
		t.Errorf("pio_bytes_total = %v, want 2048", got)
	}
	if got := testutil.ToFloat64(m.ops.WithLabelValues("mmc0", "request", "ok")); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
}

func TestSmallBlocks(t *testing.T) {
	s := newSim(t)
	s.cardData = pattern(64)
	h := s.host(Config{})

	// SCR style reads use 8 byte blocks, one buffer window each.
	d := &Data{Dir: Read, BlockSize: 8, Blocks: 8, Buf: make([]byte, 64)}
	if err := h.Request(&Command{Index: 51, Response: Resp48}, d); err != nil {
		t.Fatal(err)
	}
	if s.windows != 8 {
		t.Errorf("Waited for %d buffer windows, want 8", s.windows)
	}
	if diff := cmp.Diff([]uint32{8}, s.writes(BLKSIZE)); diff != "" {
		t.Errorf("BLKSIZE mismatch (-want +got):\n%s", diff)
	}
}

func TestUnalignedBlocks(t *testing.T) {
	var tests = []struct {
		blockSize, blocks uint32
		windows           int
	}{
		{2, 2, 1},
		{6, 2, 2},
		{10, 6, 5},
		{514, 2, 3},
	}
	for _, tt := range tests {
		for _, dir := range []Direction{Read, Write} {
			t.Run(fmt.Sprintf("%s %dx%d", dir, tt.blocks, tt.blockSize), func(t *testing.T) {
				s := newSim(t)
				n := int(tt.blockSize * tt.blocks)
				buf := pattern(n)
				idx := uint8(18)
				if dir == Read {
					s.cardData = buf
					buf = make([]byte, n)
				} else {
					idx = 25
				}
				h := s.host(Config{})

				d := &Data{Dir: dir, BlockSize: tt.blockSize, Blocks: tt.blocks, Buf: buf}
				if err := h.Request(&Command{Index: idx, Response: Resp48}, d); err != nil {
					t.Fatalf("Request() = %v", err)
				}
				if s.windows != tt.windows {
					t.Errorf("Waited for %d buffer windows, want %d", s.windows, tt.windows)
				}
				if dir == Read {
					if got := s.reads(BDATA); got != n/4 {
						t.Errorf("Read %d data words, want %d", got, n/4)
					}
					if diff := cmp.Diff(s.cardData, d.Buf); diff != "" {
						t.Errorf("Data mismatch (-want +got):\n%s", diff)
					}
					return
				}
				if got := len(s.writes(BDATA)); got != n/4 {
					t.Errorf("Wrote %d data words, want %d", got, n/4)
				}
				if diff := cmp.Diff(buf, s.written); diff != "" {
					t.Errorf("Written data mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestMultiBlockWrite(t *testing.T) {
	s := newSim(t)
	h := s.host(Config{WriteProtect: ControllerWriteProtect{}})

	buf := pattern(1024)
	d := &Data{Dir: Write, BlockSize: 512, Blocks: 2, Buf: buf}
	if err := h.Request(&Command{Index: 25, Arg: 0x10, Response: Resp48, CheckCRC: true, CheckIndex: true}, d); err != nil {
		t.Fatalf("Request(CMD25) = %v", err)
	}
	if diff := cmp.Diff(buf, s.written); diff != "" {
		t.Errorf("Written data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{uint32(TRNMOD_ENBLKCNT | TRNMOD_MUL1SIN0)}, s.writes(TRNMOD)); diff != "" {
		t.Errorf("TRNMOD mismatch (-want +got):\n%s", diff)
	}
}

func TestBufferReadyTimeout(t *testing.T) {
	s := newSim(t)
	s.bufferStuck = true
	h := s.host(Config{})

	start := s.clk.Now()
	c, d := readBlocks(1)
	err := h.Request(c, d)
	var te *TimeoutError
	if !errors.As(err, &te) || te.Op != "buffer read ready" {
		t.Fatalf("Request() = %v, want buffer read ready timeout", err)
	}
	if el := s.clk.Now().Sub(start); el < DefaultTimeout || el > 2*DefaultTimeout {
		t.Errorf("Timed out after %v, want about %v", el, DefaultTimeout)
	}
	if diff := cmp.Diff([]uint8{SWRST_RSTCMD | SWRST_RSTDAT}, s.resets); diff != "" {
		t.Errorf("Abort reset mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteProtected(t *testing.T) {
	var tests = []struct {
		name string
		wp   WriteProtect
		sim  func(*simHost)
	}{
		{"controller", ControllerWriteProtect{}, func(s *simHost) { s.writable = false }},
		{"gpio", GPIOWriteProtect{Pin: &gpiotest.Pin{N: "GPG5", L: gpio.Low}}, nil},
		{"gpio inverted", GPIOWriteProtect{Pin: &gpiotest.Pin{N: "GPG5", L: gpio.High}, Inverted: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim(t)
			if tt.sim != nil {
				tt.sim(s)
			}
			h := s.host(Config{WriteProtect: tt.wp})

			d := &Data{Dir: Write, BlockSize: 512, Blocks: 1, Buf: make([]byte, 512)}
			err := h.Request(&Command{Index: 24, Response: Resp48}, d)
			if !errors.Is(err, ErrWriteProtected) {
				t.Fatalf("Request(CMD24) = %v, want %v", err, ErrWriteProtected)
			}
			for _, a := range s.log {
				if a.write {
					t.Errorf("Register %02x written on a protected card", a.off)
				}
			}
		})
	}
}

func TestWriteProtectOnlyAffectsWrites(t *testing.T) {
	s := newSim(t)
	s.writable = false
	s.cardData = pattern(512)
	h := s.host(Config{WriteProtect: ControllerWriteProtect{}})

	c, d := readBlocks(1)
	if err := h.Request(c, d); err != nil {
		t.Fatalf("Read from a protected card = %v", err)
	}
}

func TestInvalidData(t *testing.T) {
	var tests = []struct {
		name string
		cmd  Command
		data Data
	}{
		{"short buffer", Command{Index: 17, Response: Resp48}, Data{BlockSize: 512, Blocks: 1, Buf: make([]byte, 511)}},
		{"odd size", Command{Index: 17, Response: Resp48}, Data{BlockSize: 3, Blocks: 1, Buf: make([]byte, 3)}},
		{"no blocks", Command{Index: 17, Response: Resp48}, Data{BlockSize: 512}},
		{"huge block", Command{Index: 17, Response: Resp48}, Data{BlockSize: 4096, Blocks: 1, Buf: make([]byte, 4096)}},
		{"bad direction", Command{Index: 17, Response: Resp48}, Data{Dir: 7, BlockSize: 4, Blocks: 1, Buf: make([]byte, 4)}},
		{"no response", Command{Index: 17}, Data{BlockSize: 512, Blocks: 1, Buf: make([]byte, 512)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim(t)
			h := s.host(Config{})
			if err := h.Request(&tt.cmd, &tt.data); !errors.Is(err, ErrInvalidData) {
				t.Errorf("Request() = %v, want %v", err, ErrInvalidData)
			}
			if len(s.log) != 0 {
				t.Errorf("Registers accessed for an invalid request: %d accesses", len(s.log))
			}
		})
	}
}

func TestResidualBusyIsWarning(t *testing.T) {
	s := newSim(t)
	s.linger = true
	core, logs := observer.New(zapcore.WarnLevel)
	h := s.host(Config{Log: zap.New(core).Sugar()})

	c, d := readBlocks(1)
	if err := h.Request(c, d); err != nil {
		t.Fatalf("Request() = %v, residual busy must not fail", err)
	}
	if n := logs.FilterMessageSnippet("still active").Len(); n != 1 {
		t.Errorf("Got %d residual busy warnings, want 1", n)
	}
}

func TestTransferError(t *testing.T) {
	s := newSim(t)
	s.cmdErr = 0x0010 // data timeout
	h := s.host(Config{})

	c, d := readBlocks(1)
	var ce *CommandError
	if err := h.Request(c, d); !errors.As(err, &ce) {
		t.Fatalf("Request() = %v, want a CommandError", err)
	}
	if s.read != 0 {
		t.Errorf("Data port read %d bytes after a failed command", s.read)
	}
}
