// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

package esdhc

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// devMem maps one register block of /dev/mem for the lifetime of a Host.
type devMem struct {
	f    *os.File
	base uintptr
	mem  []byte
}

// OpenDevMem maps size bytes of physical memory starting at base.
// base must be page aligned, which every SDHC block on the supported SoCs is.
func OpenDevMem(base, size uintptr) (MemProvider, error) {
	ps := uintptr(unix.Getpagesize())
	if base&(ps-1) != 0 {
		return nil, fmt.Errorf("register base %#08x is not page aligned", base)
	}
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0600)
	if err != nil {
		return nil, err
	}
	l := (size + ps - 1) &^ (ps - 1)
	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(l), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %#08x: %v", base, err)
	}
	return &devMem{f: f, base: base, mem: mem}, nil
}

func (m *devMem) ptr(address uintptr) unsafe.Pointer {
	off := address - m.base
	if address < m.base || off >= uintptr(len(m.mem)) {
		panic(fmt.Sprintf("address %#08x outside of mapped window at %#08x", address, m.base))
	}
	return unsafe.Pointer(&m.mem[off])
}

func (m *devMem) MustRead32(address uintptr) uint32 {
	return *(*uint32)(m.ptr(address))
}

func (m *devMem) MustRead16(address uintptr) uint16 {
	return *(*uint16)(m.ptr(address))
}

func (m *devMem) MustRead8(address uintptr) uint8 {
	return *(*uint8)(m.ptr(address))
}

func (m *devMem) MustWrite32(address uintptr, data uint32) {
	*(*uint32)(m.ptr(address)) = data
}

func (m *devMem) MustWrite16(address uintptr, data uint16) {
	*(*uint16)(m.ptr(address)) = data
}

func (m *devMem) MustWrite8(address uintptr, data uint8) {
	*(*uint8)(m.ptr(address)) = data
}

func (m *devMem) Close() {
	unix.Munmap(m.mem)
	m.f.Close()
}
