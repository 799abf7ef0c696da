// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package platform

import (
	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
	"github.com/u-root/u-esdhc/pkg/hardware/esdhc/s3c64xx"
	pplatform "github.com/u-root/u-esdhc/pkg/platform"
)

type platform struct {
	clocks *s3c64xx.FixedClocks
}

func (p *platform) Name() string {
	return "friendlyarm-tiny6410"
}

func (p *platform) Controllers() []pplatform.Controller {
	return []pplatform.Controller{
		{
			Name: "mmc0",
			Base: 0x7c200000,
			Caps: esdhc.Capabilities{
				Voltages: esdhc.VDD32_33 | esdhc.VDD33_34,
				HostCaps: esdhc.Mode4Bit | esdhc.ModeHS,
				FMax:     25000000,
			},
			CardDetect:   pplatform.SenseController,
			WriteProtect: pplatform.SenseNone,
			SoC: s3c64xx.Config{
				ID:     0,
				Source: s3c64xx.SourceHCLK,
				Low: s3c64xx.Timing{
					PinStrength: s3c64xx.Drive2mA,
				},
				High: s3c64xx.Timing{
					PinStrength: s3c64xx.Drive9mA,
				},
			},
		},
	}
}

func (p *platform) Clocks() s3c64xx.ClockTree {
	return p.clocks
}

func Platform() pplatform.Board {
	return &platform{&s3c64xx.FixedClocks{
		HCLKHz: 133000000,
		EPLLHz: 24000000,
		MPLLHz: 266000000,
	}}
}
