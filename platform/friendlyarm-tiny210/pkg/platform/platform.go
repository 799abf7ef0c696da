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
	return "friendlyarm-tiny210"
}

func (p *platform) Controllers() []pplatform.Controller {
	return []pplatform.Controller{
		{
			// SD socket next to the power connector
			Name: "mmc0",
			Base: 0xeb000000,
			Caps: esdhc.Capabilities{
				Voltages: esdhc.VDD32_33 | esdhc.VDD33_34,
				HostCaps: esdhc.Mode4Bit | esdhc.ModeHS | esdhc.ModeHS52MHz,
				FMax:     52000000,
			},
			CardDetect:   pplatform.SenseController,
			WriteProtect: pplatform.SenseNone,
			SoC: s3c64xx.Config{
				ID:     0,
				Source: s3c64xx.SourceHSMMC,
				Low: s3c64xx.Timing{
					PinStrength: s3c64xx.Drive2mA,
					Rx:          s3c64xx.FeedbackDelay{Code: 2},
					Tx:          s3c64xx.FeedbackDelay{Code: 2},
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
	// PLLs as left behind by the first stage loader
	return &platform{&s3c64xx.FixedClocks{
		HCLKHz:   133400000,
		EPLLHz:   96000000,
		MPLLHz:   667000000,
		EPLLInHz: 24000000,
	}}
}
