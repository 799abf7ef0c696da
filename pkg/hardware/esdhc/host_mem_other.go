// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux
// +build !linux

package esdhc

import (
	"errors"
)

func OpenDevMem(base, size uintptr) (MemProvider, error) {
	return nil, errors.New("/dev/mem access is only supported on linux")
}
