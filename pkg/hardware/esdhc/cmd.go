// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import "fmt"

// MMC_CMD_STOP_TRANSMISSION is issued as an abort command and may be sent
// while the data lines are still busy.
const MMC_CMD_STOP_TRANSMISSION = 12

// ResponseKind is the length and shape of the response a command expects.
type ResponseKind int

const (
	RespNone ResponseKind = iota
	Resp48
	Resp48Busy
	Resp136
)

func (k ResponseKind) String() string {
	switch k {
	case Resp48:
		return "48 bit"
	case Resp48Busy:
		return "48 bit with busy"
	case Resp136:
		return "136 bit"
	}
	return "none"
}

// Command is one MMC command. Resp is filled in when the command completes.
// For 136 bit responses the four words hold the 128 bit response without
// its CRC, most significant word first.
type Command struct {
	Index      uint8
	Arg        uint32
	Response   ResponseKind
	CheckCRC   bool
	CheckIndex bool
	Resp       [4]uint32
}

func (c *Command) String() string {
	return fmt.Sprintf("CMD%d(%#08x)", c.Index, c.Arg)
}

// CommandState tracks the progress of the last command sent.
type CommandState int

const (
	StateIdle CommandState = iota
	StateWaitReady
	StateIssued
	StateComplete
	StateErrored
	StateTimedOut
)

func (s CommandState) String() string {
	switch s {
	case StateWaitReady:
		return "wait ready"
	case StateIssued:
		return "issued"
	case StateComplete:
		return "complete"
	case StateErrored:
		return "errored"
	case StateTimedOut:
		return "timed out"
	}
	return "idle"
}

// State returns where the last command ended.
func (h *Host) State() CommandState {
	return h.state
}

// commandReg encodes the CMDREG value for c.
func commandReg(c *Command, withData bool) uint16 {
	var v uint16
	switch c.Response {
	case Resp48:
		v = CMDREG_RSPTYP_48B
	case Resp48Busy:
		v = CMDREG_RSPTYP_48B_BUSY
	case Resp136:
		v = CMDREG_RSPTYP_136B
	default:
		v = CMDREG_RSPTYP_NONE
	}
	if c.CheckCRC {
		v |= CMDREG_ENCMDCRC
	}
	if c.CheckIndex {
		v |= CMDREG_ENCMDIDC
	}
	if withData {
		v |= CMDREG_DATAPRNT
	}
	if c.Index == MMC_CMD_STOP_TRANSMISSION {
		v |= CMDREG_CMDTYP_ABORT
	}
	return v | uint16(c.Index&0x3f)<<CMDREG_CMDIDX_SH
}

// decode136 rebuilds the card's 128 bit response from the four response
// registers, which hold it shifted right by one byte.
func decode136(r0, r1, r2, r3 uint32) [4]uint32 {
	return [4]uint32{
		r3<<8 | r2>>24,
		r2<<8 | r1>>24,
		r1<<8 | r0>>24,
		r0 << 8,
	}
}

func (h *Host) sendCommand(c *Command, withData bool) error {
	h.state = StateWaitReady
	mask := PRNSTS_CMDINHCMD
	if c.Index != MMC_CMD_STOP_TRANSMISSION {
		mask |= PRNSTS_CMDINHDAT
	}
	err := h.poll("command ready", func() bool {
		return h.regs.Read32(PRNSTS)&mask == 0
	})
	if err != nil {
		h.state = StateTimedOut
		return err
	}

	reg := commandReg(c, withData)
	h.log.Debugf("%s: %v response %v, CMDREG %#04x", h.name, c, c.Response, reg)
	h.regs.Write32(ARGMNT, c.Arg)
	h.regs.Write16(CMDREG, reg)
	h.state = StateIssued

	var status uint16
	err = h.poll("command complete", func() bool {
		status = h.regs.Read16(NORINTSTS)
		return status&(NORINTSTS_STAERR|NORINTSTS_STACMDCMPLT) != 0
	})
	if err != nil {
		h.state = StateTimedOut
		return err
	}
	if status&NORINTSTS_STAERR != 0 {
		errStatus := h.regs.Read16(ERRINTSTS)
		h.regs.Write16(ERRINTSTS, errStatus)
		h.regs.Write16(NORINTSTS, status)
		h.state = StateErrored
		return &CommandError{Index: c.Index, Status: status, ErrStatus: errStatus}
	}
	h.regs.Write16(NORINTSTS, NORINTSTS_STACMDCMPLT)
	h.state = StateComplete

	switch c.Response {
	case RespNone:
	case Resp136:
		r0 := h.regs.Read32(RSPREG0)
		r1 := h.regs.Read32(RSPREG1)
		r2 := h.regs.Read32(RSPREG2)
		r3 := h.regs.Read32(RSPREG3)
		c.Resp = decode136(r0, r1, r2, r3)
	default:
		c.Resp[0] = h.regs.Read32(RSPREG0)
	}
	return nil
}
