// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"fmt"
	"testing"
)

type op struct {
	write   bool
	address uintptr
	data    uint32
	size    int
}

// fakeMem replays a strict sequence of expected register accesses.
type fakeMem struct {
	t   *testing.T
	ops []op
}

func opstr(o *op) string {
	t := "read"
	if o.write {
		t = "write"
	}
	return fmt.Sprintf("{%s @ %08x, %v bit = %08x}", t, o.address, o.size, o.data)
}

func (m *fakeMem) next(write bool, a uintptr, size int) op {
	m.t.Helper()
	if len(m.ops) == 0 {
		m.t.Fatalf("Unexpected %d bit access on %08x (write: %v)", size, a, write)
	}
	o := m.ops[0]
	m.ops = m.ops[1:]
	return o
}

func (m *fakeMem) read(a uintptr, size int) uint32 {
	m.t.Helper()
	o := m.next(false, a, size)
	if o.write || o.address != a || o.size != size {
		m.t.Errorf("Expected %s, got %d bit read on %08x", opstr(&o), size, a)
	}
	return o.data
}

func (m *fakeMem) write(a uintptr, d uint32, size int) {
	m.t.Helper()
	o := m.next(true, a, size)
	if !o.write || o.address != a || o.size != size || o.data != d {
		m.t.Errorf("Expected %s, got %d bit write of %08x on %08x", opstr(&o), size, d, a)
	}
}

func (m *fakeMem) MustRead32(a uintptr) uint32 {
	return m.read(a, 32)
}

func (m *fakeMem) MustRead16(a uintptr) uint16 {
	return uint16(m.read(a, 16))
}

func (m *fakeMem) MustRead8(a uintptr) uint8 {
	return uint8(m.read(a, 8))
}

func (m *fakeMem) MustWrite32(a uintptr, d uint32) {
	m.write(a, d, 32)
}

func (m *fakeMem) MustWrite16(a uintptr, d uint16) {
	m.write(a, uint32(d), 16)
}

func (m *fakeMem) MustWrite8(a uintptr, d uint8) {
	m.write(a, uint32(d), 8)
}

func (m *fakeMem) ExpectWrite32(a uintptr, d uint32) {
	m.ops = append(m.ops, op{true, a, d, 32})
}

func (m *fakeMem) ExpectWrite16(a uintptr, d uint16) {
	m.ops = append(m.ops, op{true, a, uint32(d), 16})
}

func (m *fakeMem) ExpectWrite8(a uintptr, d uint8) {
	m.ops = append(m.ops, op{true, a, uint32(d), 8})
}

func (m *fakeMem) FakeRead32(a uintptr, d uint32) {
	m.ops = append(m.ops, op{false, a, d, 32})
}

func (m *fakeMem) FakeRead16(a uintptr, d uint16) {
	m.ops = append(m.ops, op{false, a, uint32(d), 16})
}

func (m *fakeMem) FakeRead8(a uintptr, d uint8) {
	m.ops = append(m.ops, op{false, a, uint32(d), 8})
}

// Done fails the test if expected accesses were never made.
func (m *fakeMem) Done() {
	m.t.Helper()
	for i := range m.ops {
		m.t.Errorf("Missing access %s", opstr(&m.ops[i]))
	}
}

func (m *fakeMem) Close() {
}

func fakeMemory(t *testing.T) *fakeMem {
	return &fakeMem{t, make([]op, 0)}
}
