// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"time"

	"github.com/jmhodges/clock"
)

// DefaultTimeout bounds every polled wait of the controller.
const DefaultTimeout = 1 * time.Second

// pollUntil spins until cond returns true or timeout has elapsed on clk.
// cond is evaluated at least once.
func pollUntil(clk clock.Clock, timeout time.Duration, op string, cond func() bool) error {
	start := clk.Now()
	for {
		if cond() {
			return nil
		}
		if clk.Now().Sub(start) >= timeout {
			return &TimeoutError{Op: op, After: timeout}
		}
	}
}

func (h *Host) poll(op string, cond func() bool) error {
	return pollUntil(h.clk, h.timeout, op, cond)
}
