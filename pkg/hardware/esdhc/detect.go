// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Presence is the outcome of a card detect or write protect lookup.
type Presence int

const (
	// Unknown means the board has no way to tell. Callers proceed as if
	// the answer was the favourable one.
	Unknown Presence = iota
	Yes
	No
)

func (p Presence) String() string {
	switch p {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unknown"
}

// CardDetect selects how card insertion is sensed. The implementations in
// this package are the only valid ones.
type CardDetect interface {
	present(h *Host) (Presence, error)
	// Supported reports whether the policy can actually sense a card.
	Supported() bool
	fmt.Stringer
}

// NoCardDetect is used when nothing on the board reports insertion.
type NoCardDetect struct{}

// PermanentCard is used for soldered parts and sockets without a switch.
type PermanentCard struct{}

// ControllerCardDetect uses the controller's own card detect input.
type ControllerCardDetect struct{}

// GPIOCardDetect reads the socket switch through a GPIO. The pin is low
// while a card is inserted, or high when Inverted is set.
type GPIOCardDetect struct {
	Pin      gpio.PinIn
	Inverted bool
}

func (NoCardDetect) present(h *Host) (Presence, error) {
	return Unknown, nil
}

func (NoCardDetect) Supported() bool { return false }

func (NoCardDetect) String() string { return "none" }

func (PermanentCard) present(h *Host) (Presence, error) {
	return Yes, nil
}

func (PermanentCard) Supported() bool { return false }

func (PermanentCard) String() string { return "permanent" }

func (ControllerCardDetect) present(h *Host) (Presence, error) {
	err := h.poll("card detect debounce", func() bool {
		return h.regs.Read32(PRNSTS)&PRNSTS_STBLCARD != 0
	})
	if err != nil {
		return Unknown, err
	}
	if h.regs.Read32(PRNSTS)&PRNSTS_INSCARD == 0 {
		return No, nil
	}
	return Yes, nil
}

func (ControllerCardDetect) Supported() bool { return true }

func (ControllerCardDetect) String() string { return "controller" }

func (d GPIOCardDetect) present(h *Host) (Presence, error) {
	high, err := readPin(d.Pin)
	if err != nil {
		return Unknown, err
	}
	if high != d.Inverted {
		return No, nil
	}
	return Yes, nil
}

func (GPIOCardDetect) Supported() bool { return true }

func (d GPIOCardDetect) String() string {
	if d.Inverted {
		return fmt.Sprintf("gpio %s (active high)", d.Pin)
	}
	return fmt.Sprintf("gpio %s (active low)", d.Pin)
}

// WriteProtect selects how the write protect tab of a card is sensed.
type WriteProtect interface {
	protected(h *Host) (Presence, error)
	Supported() bool
	fmt.Stringer
}

// NoWriteProtect is used when the write protect tab is not wired.
type NoWriteProtect struct{}

// AlwaysWritable is used for media without a write protect tab.
type AlwaysWritable struct{}

// ControllerWriteProtect uses the controller's write protect input, which
// reads high while writing is allowed.
type ControllerWriteProtect struct{}

// GPIOWriteProtect reads the write protect switch through a GPIO. The pin
// is low while the card is protected, or high when Inverted is set.
type GPIOWriteProtect struct {
	Pin      gpio.PinIn
	Inverted bool
}

func (NoWriteProtect) protected(h *Host) (Presence, error) {
	return Unknown, nil
}

func (NoWriteProtect) Supported() bool { return false }

func (NoWriteProtect) String() string { return "none" }

func (AlwaysWritable) protected(h *Host) (Presence, error) {
	return No, nil
}

func (AlwaysWritable) Supported() bool { return false }

func (AlwaysWritable) String() string { return "permanent" }

func (ControllerWriteProtect) protected(h *Host) (Presence, error) {
	if h.regs.Read32(PRNSTS)&PRNSTS_WPSPL == 0 {
		return Yes, nil
	}
	return No, nil
}

func (ControllerWriteProtect) Supported() bool { return true }

func (ControllerWriteProtect) String() string { return "controller" }

func (w GPIOWriteProtect) protected(h *Host) (Presence, error) {
	high, err := readPin(w.Pin)
	if err != nil {
		return Unknown, err
	}
	if high == w.Inverted {
		return Yes, nil
	}
	return No, nil
}

func (GPIOWriteProtect) Supported() bool { return true }

func (w GPIOWriteProtect) String() string {
	if w.Inverted {
		return fmt.Sprintf("gpio %s (active high)", w.Pin)
	}
	return fmt.Sprintf("gpio %s (active low)", w.Pin)
}

func readPin(p gpio.PinIn) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("no GPIO configured")
	}
	if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return false, fmt.Errorf("configure %s as input: %w", p, err)
	}
	return p.Read() == gpio.High, nil
}

// CardPresent runs the card detect policy without touching the command path.
func (h *Host) CardPresent() (Presence, error) {
	p, err := h.cd.present(h)
	if err == nil {
		h.metrics.setPresence(h.name, p)
	}
	return p, err
}

// WriteProtected runs the write protect policy.
func (h *Host) WriteProtected() (Presence, error) {
	return h.wp.protected(h)
}
