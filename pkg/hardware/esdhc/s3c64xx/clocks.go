// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3c64xx

// HSMMC input selects
const (
	HSMMCFromEPLL = iota
	HSMMCFromMPLL
	HSMMCFromEPLLIn
	HSMMCFrom27MHz
)

// FixedClocks is a ClockTree for boards whose PLLs are set up by an earlier
// boot stage and do not change afterwards. HSMMC outputs read as gated until
// SetHSMMCClock enables them.
type FixedClocks struct {
	HCLKHz   uint32
	EPLLHz   uint32
	MPLLHz   uint32
	EPLLInHz uint32

	hsmmc [4]uint32
}

func (f *FixedClocks) HCLK() uint32 {
	return f.HCLKHz
}

func (f *FixedClocks) HSMMCClock(id int) uint32 {
	if id < 0 || id >= len(f.hsmmc) {
		return 0
	}
	return f.hsmmc[id]
}

func (f *FixedClocks) SetHSMMCClock(id, src int, div uint32) {
	if id < 0 || id >= len(f.hsmmc) {
		return
	}
	if div == 0 {
		div = 1
	}
	var in uint32
	switch src {
	case HSMMCFromEPLL:
		in = f.EPLLHz
	case HSMMCFromMPLL:
		in = f.MPLLHz
	case HSMMCFromEPLLIn:
		in = f.EPLLInHz
	case HSMMCFrom27MHz:
		in = 27000000
	}
	f.hsmmc[id] = in / div
}
