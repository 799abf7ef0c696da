// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

// Largest SELFREQ divider code. The card clock is bclk / (2 * code).
const maxDivider = 0x80

// SelectDivider returns the SELFREQ code and the resulting card clock for a
// requested frequency f, given the base clock bclk. The result never exceeds
// f unless f is below the lowest reachable rate, in which case that rate is
// returned. Code 0 means the base clock is used undivided.
func SelectDivider(bclk, f uint32) (div uint32, actual uint32) {
	if f >= bclk {
		return 0, bclk
	}
	for div = 1; div <= maxDivider; div <<= 1 {
		actual = bclk / (div << 1)
		if actual <= f {
			return div, actual
		}
	}
	return maxDivider, bclk / (maxDivider << 1)
}

func (h *Host) enableSDClock() {
	h.regs.Write16(CLKCON, h.regs.Read16(CLKCON)|CLKCON_ENSDCLK)
	h.log.Debugf("%s: SD clock enabled", h.name)
}

func (h *Host) disableSDClock() {
	h.regs.Write16(CLKCON, h.regs.Read16(CLKCON)&^CLKCON_ENSDCLK)
	h.log.Debugf("%s: SD clock disabled", h.name)
}

func (h *Host) setSpeedMode(freq uint32) {
	v := h.regs.Read8(HOSTCTL) &^ HOSTCTL_ENHIGHSPD
	if freq > highSpeedThreshold {
		v |= HOSTCTL_ENHIGHSPD
	}
	h.regs.Write8(HOSTCTL, v)
}

// programDivider switches the engine to a new divider. The card clock stays
// off if the internal clock does not become stable.
func (h *Host) programDivider(div uint32) {
	h.disableSDClock()
	h.regs.Write16(CLKCON, uint16(div)<<CLKCON_SELFREQ_SH|CLKCON_ENINTCLK)

	err := h.poll("internal clock stabilization", func() bool {
		return h.regs.Read16(CLKCON)&CLKCON_STBLINTCLK != 0
	})
	if err != nil {
		h.log.Warnf("%s: internal clock stabilization failed: %v", h.name, err)
		h.metrics.clockUnstable(h.name)
		return
	}
	h.enableSDClock()
}

// setupClock programs the card clock closest to, but not above, freq and
// returns the frequency in use. 0 is returned if the base clock is unknown.
func (h *Host) setupClock(freq uint32) uint32 {
	if freq == 0 {
		return 0
	}
	if freq > h.caps.FMax {
		freq = h.caps.FMax
	}
	bclk, err := h.platform.BaseClock()
	if err != nil {
		h.log.Errorf("%s: cannot determine base clock: %v", h.name, err)
		return 0
	}

	div, actual := SelectDivider(bclk, freq)
	if actual > freq {
		h.log.Errorf("%s: lowest card clock %d Hz is above %d Hz, trying to continue", h.name, actual, freq)
	}
	h.setSpeedMode(actual)
	h.platform.SetupInterface(h.regs, actual)
	h.programDivider(div)
	h.log.Debugf("%s: base clock %d Hz, divider %#x, using %d Hz instead of %d Hz", h.name, bclk, div, actual, freq)

	h.metrics.setClock(h.name, actual)
	return actual
}
