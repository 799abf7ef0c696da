// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

// MemProvider gives width-correct access to physical addresses.
//
// Accesses never fail once the provider has been opened; the Must prefix
// matches the other hardware packages of this tree.
type MemProvider interface {
	MustRead32(uintptr) uint32
	MustRead16(uintptr) uint16
	MustRead8(uintptr) uint8
	MustWrite32(uintptr, uint32)
	MustWrite16(uintptr, uint16)
	MustWrite8(uintptr, uint8)
	Close()
}

// Regs is a controller-relative view of one register block.
type Regs struct {
	mem  MemProvider
	base uintptr
}

// NewRegs returns a register view of the block at base.
func NewRegs(mem MemProvider, base uintptr) *Regs {
	return &Regs{mem: mem, base: base}
}

func (r *Regs) Base() uintptr {
	return r.base
}

func (r *Regs) Read32(off uintptr) uint32 {
	return r.mem.MustRead32(r.base + off)
}

func (r *Regs) Read16(off uintptr) uint16 {
	return r.mem.MustRead16(r.base + off)
}

func (r *Regs) Read8(off uintptr) uint8 {
	return r.mem.MustRead8(r.base + off)
}

func (r *Regs) Write32(off uintptr, v uint32) {
	r.mem.MustWrite32(r.base+off, v)
}

func (r *Regs) Write16(off uintptr, v uint16) {
	r.mem.MustWrite16(r.base+off, v)
}

func (r *Regs) Write8(off uintptr, v uint8) {
	r.mem.MustWrite8(r.base+off, v)
}
