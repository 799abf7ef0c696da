// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"encoding/binary"
	"fmt"
)

// Most bytes moved through BDATA per buffer ready indication.
const pioWindow = 512

// Data timeout counter value, TMCLK * 2^27.
const dataTimeout uint8 = 0x0e

// Direction of a data phase as seen from the host.
type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

// Data describes the data phase of a command. Buf is owned by the caller
// and must be exactly BlockSize * Blocks long.
type Data struct {
	Dir       Direction
	BlockSize uint32
	Blocks    uint32
	Buf       []byte
}

// Len is the number of bytes the data phase moves.
func (d *Data) Len() int {
	return int(d.BlockSize * d.Blocks)
}

func (d *Data) validate() error {
	switch {
	case d.Dir != Read && d.Dir != Write:
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidData, d.Dir)
	case d.BlockSize == 0 || d.BlockSize > 0xfff:
		return fmt.Errorf("%w: block size %d", ErrInvalidData, d.BlockSize)
	case d.Blocks == 0 || d.Blocks > 0xffff:
		return fmt.Errorf("%w: block count %d", ErrInvalidData, d.Blocks)
	case (d.BlockSize*d.Blocks)%4 != 0:
		return fmt.Errorf("%w: %d bytes is not a multiple of 4", ErrInvalidData, d.BlockSize*d.Blocks)
	case len(d.Buf) != d.Len():
		return fmt.Errorf("%w: buffer holds %d bytes, transfer needs %d", ErrInvalidData, len(d.Buf), d.Len())
	}
	return nil
}

func (h *Host) prepareData(d *Data) {
	mode := TRNMOD_ENBLKCNT
	if d.Blocks > 1 {
		mode |= TRNMOD_MUL1SIN0
	}
	if d.Dir == Read {
		mode |= TRNMOD_RD1WT0
	}
	h.regs.Write8(TIMEOUTCON, dataTimeout)
	h.regs.Write16(BLKSIZE, uint16(d.BlockSize))
	h.regs.Write16(BLKCNT, uint16(d.Blocks))
	h.regs.Write16(TRNMOD, mode)
}

// window is the number of bytes moved per buffer ready indication. BDATA
// is only accessed in whole words, so blocks that are not word sized get a
// window rounded up to the next word. The total length is a multiple of 4,
// which keeps every window whole.
func (h *Host) window(d *Data) int {
	if d.BlockSize >= pioWindow {
		return pioWindow
	}
	return int(d.BlockSize+3) &^ 3
}

func (h *Host) readPIO(d *Data) error {
	buf := d.Buf
	win := h.window(d)
	for len(buf) > 0 {
		err := h.poll("buffer read ready", func() bool {
			return h.regs.Read32(PRNSTS)&PRNSTS_BUFRDRDY != 0
		})
		if err != nil {
			return err
		}
		n := win
		if n > len(buf) {
			n = len(buf)
		}
		for i := 0; i < n; i += 4 {
			binary.LittleEndian.PutUint32(buf[i:], h.regs.Read32(BDATA))
		}
		buf = buf[n:]
	}
	return nil
}

func (h *Host) writePIO(d *Data) error {
	buf := d.Buf
	win := h.window(d)
	for len(buf) > 0 {
		err := h.poll("buffer write ready", func() bool {
			return h.regs.Read32(PRNSTS)&PRNSTS_BUFWTRDY != 0
		})
		if err != nil {
			return err
		}
		n := win
		if n > len(buf) {
			n = len(buf)
		}
		for i := 0; i < n; i += 4 {
			h.regs.Write32(BDATA, binary.LittleEndian.Uint32(buf[i:]))
		}
		buf = buf[n:]
	}
	return nil
}

func (h *Host) waitTransferDone(c *Command) error {
	var status uint16
	err := h.poll("transfer complete", func() bool {
		status = h.regs.Read16(NORINTSTS)
		return status&(NORINTSTS_STAERR|NORINTSTS_STATRANCMPLT) != 0
	})
	if err != nil {
		return err
	}
	if status&NORINTSTS_STAERR != 0 {
		errStatus := h.regs.Read16(ERRINTSTS)
		h.regs.Write16(ERRINTSTS, errStatus)
		h.regs.Write16(NORINTSTS, status)
		return &CommandError{Index: c.Index, Status: status, ErrStatus: errStatus}
	}
	h.regs.Write16(NORINTSTS, NORINTSTS_STATRANCMPLT)

	// Some cards keep the data lines busy a little longer. Not fatal.
	if st := h.regs.Read32(PRNSTS); st&(PRNSTS_DATLINACT|PRNSTS_CMDINHDAT) != 0 {
		h.log.Warnf("%s: data lines still active after transfer complete, PRNSTS %#08x", h.name, st)
	}
	return nil
}

// abortTransfer resets the command and data lines after a failed data phase.
func (h *Host) abortTransfer() {
	h.regs.Write8(SWRST, SWRST_RSTCMD|SWRST_RSTDAT)
	err := h.poll("data line reset", func() bool {
		return h.regs.Read8(SWRST)&(SWRST_RSTCMD|SWRST_RSTDAT) == 0
	})
	if err != nil {
		h.log.Warnf("%s: abort: %v", h.name, err)
	}
}

func (h *Host) transfer(c *Command, d *Data) error {
	if d.Dir == Write {
		p, err := h.WriteProtected()
		if err != nil {
			return fmt.Errorf("write protect check: %w", err)
		}
		switch p {
		case Yes:
			return ErrWriteProtected
		case Unknown:
			h.log.Debugf("%s: write protection unknown, writing anyway", h.name)
		}
	}

	h.prepareData(d)
	if err := h.sendCommand(c, true); err != nil {
		return err
	}

	var err error
	if d.Dir == Read {
		err = h.readPIO(d)
	} else {
		err = h.writePIO(d)
	}
	if err != nil {
		h.abortTransfer()
		return err
	}
	if err := h.waitTransferDone(c); err != nil {
		return err
	}
	h.metrics.addBytes(h.name, d.Dir, d.Len())
	return nil
}
