// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"time"
)

type Version struct {
	Version string
	GitHash string
}

// Retry bounds the attempts made on a whole controller reset.
type Retry struct {
	Attempts int
	Min      time.Duration
	Max      time.Duration
	Factor   float64
}

type Metrics struct {
	// Address the watcher serves /metrics on. Empty disables it.
	Address string
}

type Config struct {
	Board   string
	LogFile string
	Debug   bool
	// How long a controller status bit may take to change.
	PollTimeout time.Duration
	ResetRetry  Retry
	Metrics     Metrics
	// Card detect poll period of the watcher.
	WatchInterval time.Duration
	Version       Version
}

var DefaultConfig = &Config{
	Board: "friendlyarm-tiny210",

	PollTimeout: time.Second,

	ResetRetry: Retry{
		Attempts: 3,
		Min:      10 * time.Millisecond,
		Max:      500 * time.Millisecond,
		Factor:   2,
	},

	Metrics: Metrics{
		Address: ":9100",
	},

	WatchInterval: 500 * time.Millisecond,

	Version: Version{
		Version: gitVersion,
		GitHash: gitHash,
	},
}

// Overridden with -ldflags "-X github.com/u-root/u-esdhc/config.gitVersion=..."
var (
	gitVersion = "dev"
	gitHash    = "unknown"
)
