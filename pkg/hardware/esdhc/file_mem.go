// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// fileMem backs a register block with a file, one byte of file per byte of
// register space. Used to replay register dumps and to drive the engine
// against an emulator that exposes its register file as a regular file.
type fileMem struct {
	f    afero.File
	base uintptr

	stat struct {
		wrTime  time.Duration
		rdTime  time.Duration
		wrCount int
		rdCount int
	}
}

// OpenFileMem opens path on fs as the register block located at base.
// The file is created and zero filled up to BLOCK_SIZE when missing.
func OpenFileMem(fs afero.Fs, path string, base uintptr) (MemProvider, error) {
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() < int64(BLOCK_SIZE) {
		if err := f.Truncate(int64(BLOCK_SIZE)); err != nil {
			f.Close()
			return nil, fmt.Errorf("grow %s: %v", path, err)
		}
	}
	return &fileMem{f: f, base: base}, nil
}

func (m *fileMem) read(a uintptr, b []byte) {
	m.stat.rdCount++
	t := time.Now()
	if _, err := m.f.ReadAt(b, int64(a-m.base)); err != nil {
		panic(err)
	}
	m.stat.rdTime += time.Since(t)
}

func (m *fileMem) write(a uintptr, b []byte) {
	m.stat.wrCount++
	t := time.Now()
	if _, err := m.f.WriteAt(b, int64(a-m.base)); err != nil {
		panic(err)
	}
	m.stat.wrTime += time.Since(t)
}

func (m *fileMem) MustRead32(a uintptr) uint32 {
	b := make([]byte, 4)
	m.read(a, b)
	return binary.LittleEndian.Uint32(b)
}

func (m *fileMem) MustRead16(a uintptr) uint16 {
	b := make([]byte, 2)
	m.read(a, b)
	return binary.LittleEndian.Uint16(b)
}

func (m *fileMem) MustRead8(a uintptr) uint8 {
	b := make([]byte, 1)
	m.read(a, b)
	return b[0]
}

func (m *fileMem) MustWrite32(a uintptr, d uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, d)
	m.write(a, b)
}

func (m *fileMem) MustWrite16(a uintptr, d uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, d)
	m.write(a, b)
}

func (m *fileMem) MustWrite8(a uintptr, d uint8) {
	m.write(a, []byte{d})
}

// String reports access statistics.
func (m *fileMem) String() string {
	return fmt.Sprintf("%v RDs (time %v), %v WRs (time %v)",
		m.stat.rdCount, m.stat.rdTime, m.stat.wrCount, m.stat.wrTime)
}

func (m *fileMem) Close() {
	m.f.Close()
}
