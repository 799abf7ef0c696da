// Copyright 2018-2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package platform

import (
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
	"github.com/u-root/u-esdhc/pkg/hardware/esdhc/s3c64xx"
)

// Sensing selects how a board senses card insertion or write protection.
type Sensing int

const (
	SenseNone Sensing = iota
	// Card always present, or always writable.
	SensePermanent
	SenseController
	// GPIO, active low.
	SenseGPIO
	// GPIO, active high.
	SenseGPIOInverted
)

// Controller is the static description of one SD/MMC socket.
type Controller struct {
	Name         string
	Base         uintptr
	Caps         esdhc.Capabilities
	CardDetect   Sensing
	CDPin        string
	WriteProtect Sensing
	WPPin        string
	SoC          s3c64xx.Config
}

type Board interface {
	Name() string
	Controllers() []Controller
	Clocks() s3c64xx.ClockTree
}

// Env holds what the hosts need from the running system. Zero values pick
// the real hardware.
type Env struct {
	Open    func(c Controller) (esdhc.MemProvider, error)
	Pin     func(name string) gpio.PinIn
	Clock   clock.Clock
	Timeout time.Duration
	Log     *zap.SugaredLogger
	Metrics *esdhc.Metrics
}

func openDevMem(c Controller) (esdhc.MemProvider, error) {
	return esdhc.OpenDevMem(c.Base, esdhc.BLOCK_SIZE)
}

func pinByName(name string) gpio.PinIn {
	return gpioreg.ByName(name)
}

func (e *Env) pin(name string) (gpio.PinIn, error) {
	if name == "" {
		return nil, fmt.Errorf("no GPIO named")
	}
	p := e.Pin(name)
	if p == nil {
		return nil, fmt.Errorf("unknown GPIO %q", name)
	}
	return p, nil
}

func (e *Env) cardDetect(c Controller) (esdhc.CardDetect, error) {
	switch c.CardDetect {
	case SenseNone:
		return esdhc.NoCardDetect{}, nil
	case SensePermanent:
		return esdhc.PermanentCard{}, nil
	case SenseController:
		return esdhc.ControllerCardDetect{}, nil
	case SenseGPIO, SenseGPIOInverted:
		p, err := e.pin(c.CDPin)
		if err != nil {
			return nil, err
		}
		return esdhc.GPIOCardDetect{Pin: p, Inverted: c.CardDetect == SenseGPIOInverted}, nil
	}
	return nil, fmt.Errorf("unknown card detect setting %d", c.CardDetect)
}

func (e *Env) writeProtect(c Controller) (esdhc.WriteProtect, error) {
	switch c.WriteProtect {
	case SenseNone:
		return esdhc.NoWriteProtect{}, nil
	case SensePermanent:
		return esdhc.AlwaysWritable{}, nil
	case SenseController:
		return esdhc.ControllerWriteProtect{}, nil
	case SenseGPIO, SenseGPIOInverted:
		p, err := e.pin(c.WPPin)
		if err != nil {
			return nil, err
		}
		return esdhc.GPIOWriteProtect{Pin: p, Inverted: c.WriteProtect == SenseGPIOInverted}, nil
	}
	return nil, fmt.Errorf("unknown write protect setting %d", c.WriteProtect)
}

func (e *Env) host(b Board, c Controller) (*esdhc.Host, error) {
	cd, err := e.cardDetect(c)
	if err != nil {
		return nil, fmt.Errorf("card detect: %v", err)
	}
	wp, err := e.writeProtect(c)
	if err != nil {
		return nil, fmt.Errorf("write protect: %v", err)
	}
	mem, err := e.Open(c)
	if err != nil {
		return nil, err
	}
	soc := c.SoC
	soc.Log = e.Log
	h, err := esdhc.New(mem, esdhc.Config{
		Name:         c.Name,
		Base:         c.Base,
		Platform:     s3c64xx.New(b.Clocks(), soc),
		Caps:         c.Caps,
		CardDetect:   cd,
		WriteProtect: wp,
		Clock:        e.Clock,
		Timeout:      e.Timeout,
		Log:          e.Log,
		Metrics:      e.Metrics,
	})
	if err != nil {
		mem.Close()
		return nil, err
	}
	return h, nil
}

// Build creates a Host for every controller of b and feeds each card with
// its lowest clock. Nothing is left open on error.
func Build(b Board, env Env) ([]*esdhc.Host, error) {
	if env.Open == nil {
		env.Open = openDevMem
	}
	if env.Pin == nil {
		env.Pin = pinByName
	}
	if env.Log == nil {
		env.Log = zap.NewNop().Sugar()
	}

	var hosts []*esdhc.Host
	for _, c := range b.Controllers() {
		h, err := env.host(b, c)
		if err != nil {
			for _, h := range hosts {
				h.Close()
			}
			return nil, fmt.Errorf("%s: %s: %w", b.Name(), c.Name, err)
		}
		env.Log.Infof("%s: controller at %#08x, card clock %d Hz", c.Name, c.Base, h.Start())
		hosts = append(hosts, h)
	}
	return hosts, nil
}
