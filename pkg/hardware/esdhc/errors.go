// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("timeout")
	// ErrCardAbsent means the card detect policy saw an empty socket.
	ErrCardAbsent = errors.New("no card present")
	// ErrWriteProtected means a write was requested on a protected card.
	ErrWriteProtected = errors.New("card is write protected")
	// ErrInvalidData flags a malformed data descriptor.
	ErrInvalidData = errors.New("invalid data descriptor")
	// ErrUnsupportedClock is returned for clock sources the driver cannot use.
	ErrUnsupportedClock = errors.New("unsupported clock source")
)

// TimeoutError reports which polled wait ran out of time.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout after %v", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// CommandError carries the raw interrupt status of a failed command.
type CommandError struct {
	Index     uint8
	Status    uint16 // NORINTSTS
	ErrStatus uint16 // ERRINTSTS
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("CMD%d failed: status %#04x, error status %#04x", e.Index, e.Status, e.ErrStatus)
}
