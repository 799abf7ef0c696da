// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/u-root/u-esdhc/config"
	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
)

const (
	MMC_CMD_READ_SINGLE_BLOCK   = 17
	MMC_CMD_READ_MULTIPLE_BLOCK = 18
	blockLen                    = 512
)

func parseBusWidth(s string) (esdhc.BusWidth, error) {
	switch s {
	case "1":
		return esdhc.BusWidth1, nil
	case "4":
		return esdhc.BusWidth4, nil
	case "8":
		return esdhc.BusWidth8, nil
	}
	return 0, fmt.Errorf("bus width %q is not one of 1, 4 or 8", s)
}

// responses maps MMC response names to the checks the controller does.
var responses = map[string]esdhc.Command{
	"none": {Response: esdhc.RespNone},
	"r1":   {Response: esdhc.Resp48, CheckCRC: true, CheckIndex: true},
	"r1b":  {Response: esdhc.Resp48Busy, CheckCRC: true, CheckIndex: true},
	"r2":   {Response: esdhc.Resp136, CheckCRC: true},
	"r3":   {Response: esdhc.Resp48},
}

// parseCommand turns "<index> <arg> [response]" into a command, r1 being
// the default response.
func parseCommand(args []string) (*esdhc.Command, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("want <index> <arg> [none|r1|r1b|r2|r3]")
	}
	idx, err := strconv.ParseUint(args[0], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("index %q: %v", args[0], err)
	}
	arg, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %v", args[1], err)
	}
	rsp := "r1"
	if len(args) == 3 {
		rsp = args[2]
	}
	c, ok := responses[rsp]
	if !ok {
		return nil, fmt.Errorf("unknown response type %q", rsp)
	}
	c.Index = uint8(idx)
	c.Arg = uint32(arg)
	return &c, nil
}

// resetWithRetry resets h until it succeeds or r.Attempts resets failed.
func resetWithRetry(ctx context.Context, log *zap.SugaredLogger, h *esdhc.Host, r config.Retry) error {
	b := &backoff.Backoff{
		Min:    r.Min,
		Max:    r.Max,
		Factor: r.Factor,
		Jitter: true,
	}
	for {
		err := h.Reset()
		if err == nil {
			return nil
		}
		if int(b.Attempt())+1 >= r.Attempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", h.Name(), r.Attempts, err)
		}
		d := b.Duration()
		log.Warnf("%s: reset failed, retrying in %v: %v", h.Name(), d, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

// resetAll resets the controllers concurrently, their register blocks are
// independent.
func resetAll(ctx context.Context, log *zap.SugaredLogger, hosts []*esdhc.Host, r config.Retry) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, h := range hosts {
		h := h
		g.Go(func() error {
			if err := resetWithRetry(ctx, log, h, r); err != nil {
				return err
			}
			log.Infof("%s: controller reset", h.Name())
			return nil
		})
	}
	return g.Wait()
}
