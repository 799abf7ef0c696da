// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sdhcctl drives the SD/MMC host controllers of a board from user space.
//
//	sdhcctl [flags] info
//	sdhcctl [flags] reset
//	sdhcctl [flags] ios <1|4|8> <hz>
//	sdhcctl [flags] cmd <index> <arg> [none|r1|r1b|r2|r3]
//	sdhcctl [flags] read <block> <count> <file>
//	sdhcctl [flags] watch
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"periph.io/x/host/v3"

	"github.com/u-root/u-esdhc/config"
	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
	"github.com/u-root/u-esdhc/pkg/logger"
	"github.com/u-root/u-esdhc/pkg/platform"
	tiny210 "github.com/u-root/u-esdhc/platform/friendlyarm-tiny210/pkg/platform"
	tiny6410 "github.com/u-root/u-esdhc/platform/friendlyarm-tiny6410/pkg/platform"
)

var boards = map[string]func() platform.Board{
	"friendlyarm-tiny210":  tiny210.Platform,
	"friendlyarm-tiny6410": tiny6410.Platform,
}

var (
	cfg = config.DefaultConfig

	board      = flag.String("board", cfg.Board, "Board the controllers are described by")
	memFlag    = flag.String("mem", "devmem", "Register access: devmem, or file:<dir> for register images named <controller>.regs")
	controller = flag.String("controller", "", "Only use this controller")
	logFile    = flag.String("log", cfg.LogFile, "Also log to this file")
	debug      = flag.Bool("debug", cfg.Debug, "Enable debug logging")
	timeout    = flag.Duration("timeout", cfg.PollTimeout, "Controller status timeout")
	dump       = flag.Bool("dump", false, "info: also dump the register file")
	metricAddr = flag.String("metrics", cfg.Metrics.Address, "watch: serve /metrics on this address, empty to disable")
	blockAddr  = flag.Bool("block-addressed", true, "read: the card takes block instead of byte addresses")
	chunk      = flag.Uint("chunk", 64, "read: blocks per request")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] info|reset|ios|cmd|read|watch [args]\n", os.Args[0])
	flag.PrintDefaults()
}

// memOpener returns how the register block of a controller is reached.
func memOpener(access string, fs afero.Fs) (func(platform.Controller) (esdhc.MemProvider, error), error) {
	if access == "devmem" {
		return func(c platform.Controller) (esdhc.MemProvider, error) {
			return esdhc.OpenDevMem(c.Base, esdhc.BLOCK_SIZE)
		}, nil
	}
	if dir := strings.TrimPrefix(access, "file:"); dir != access && dir != "" {
		return func(c platform.Controller) (esdhc.MemProvider, error) {
			return esdhc.OpenFileMem(fs, filepath.Join(dir, c.Name+".regs"), c.Base)
		}, nil
	}
	return nil, fmt.Errorf("unknown register access %q", access)
}

func selectHosts(hosts []*esdhc.Host, name string) ([]*esdhc.Host, error) {
	if name == "" {
		return hosts, nil
	}
	for _, h := range hosts {
		if h.Name() == name {
			return []*esdhc.Host{h}, nil
		}
	}
	return nil, fmt.Errorf("no controller %q", name)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger.LogContainer.SetLogFile(*logFile)
	logger.LogContainer.SetDebug(*debug)
	log := logger.LogContainer.GetSimpleLogger()
	defer log.Sync()

	if err := run(log, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Errorf("%s: %v", flag.Arg(0), err)
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger, action string, args []string) error {
	newBoard, ok := boards[*board]
	if !ok {
		return fmt.Errorf("unknown board %q", *board)
	}
	open, err := memOpener(*memFlag, afero.NewOsFs())
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		log.Warnf("GPIO drivers unavailable: %v", err)
	}

	reg := prometheus.NewRegistry()
	all, err := platform.Build(newBoard(), platform.Env{
		Open:    open,
		Timeout: *timeout,
		Log:     log,
		Metrics: esdhc.NewMetrics(reg),
	})
	if err != nil {
		return err
	}
	defer func() {
		for _, h := range all {
			h.Close()
		}
	}()
	hosts, err := selectHosts(all, *controller)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch action {
	case "info":
		for _, h := range hosts {
			if _, err := h.Info().WriteTo(os.Stdout); err != nil {
				return err
			}
			if *dump {
				h.Dump(os.Stdout)
			}
		}
		return nil
	case "reset":
		return resetAll(ctx, log, hosts, cfg.ResetRetry)
	case "ios":
		if len(args) != 2 {
			return fmt.Errorf("want <width> <hz>")
		}
		width, err := parseBusWidth(args[0])
		if err != nil {
			return err
		}
		hz, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("clock %q: %v", args[1], err)
		}
		for _, h := range hosts {
			h.SetIOS(width, uint32(hz))
			fmt.Printf("%s: %v, %d Hz\n", h.Name(), h.BusWidth(), h.Clock())
		}
		return nil
	case "cmd":
		c, err := parseCommand(args)
		if err != nil {
			return err
		}
		if err := hosts[0].Request(c, nil); err != nil {
			return err
		}
		fmt.Printf("%v: %08x %08x %08x %08x\n", c, c.Resp[0], c.Resp[1], c.Resp[2], c.Resp[3])
		return nil
	case "read":
		if len(args) != 3 {
			return fmt.Errorf("want <block> <count> <file>")
		}
		start, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("block %q: %v", args[0], err)
		}
		count, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("count %q: %v", args[1], err)
		}
		r := newBlockReader(hosts[0], uint32(start), uint32(count), uint32(*chunk), *blockAddr)
		return readToFile(ctx, log, afero.NewOsFs(), args[2], r)
	case "watch":
		return watch(ctx, log, hosts, reg, *metricAddr, cfg.WatchInterval)
	}
	return fmt.Errorf("unknown action")
}
