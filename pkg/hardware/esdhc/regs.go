// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

// Register offsets relative to the controller base. Names follow the
// S3C6410/S5PV210 user manuals, where some registers other SDHCI
// implementations treat as one 32-bit word are split in two.
const (
	SDMASYSAD  uintptr = 0x00 // 32 bit
	BLKSIZE    uintptr = 0x04 // 16 bit
	BLKCNT     uintptr = 0x06 // 16 bit
	ARGMNT     uintptr = 0x08 // 32 bit
	TRNMOD     uintptr = 0x0c // 16 bit
	CMDREG     uintptr = 0x0e // 16 bit
	RSPREG0    uintptr = 0x10 // 32 bit
	RSPREG1    uintptr = 0x14 // 32 bit
	RSPREG2    uintptr = 0x18 // 32 bit
	RSPREG3    uintptr = 0x1c // 32 bit
	BDATA      uintptr = 0x20 // 32 bit
	PRNSTS     uintptr = 0x24 // 32 bit
	HOSTCTL    uintptr = 0x28 // 8 bit
	PWRCON     uintptr = 0x29 // 8 bit
	BLKGAP     uintptr = 0x2a // 8 bit
	WAKCON     uintptr = 0x2b // 8 bit
	CLKCON     uintptr = 0x2c // 16 bit
	TIMEOUTCON uintptr = 0x2e // 8 bit
	SWRST      uintptr = 0x2f // 8 bit
	NORINTSTS  uintptr = 0x30 // 16 bit
	ERRINTSTS  uintptr = 0x32 // 16 bit
	CAPAREG    uintptr = 0x40 // 32 bit
	CONTROL2   uintptr = 0x80 // 32 bit, implementation defined
	CONTROL3   uintptr = 0x84 // 32 bit, implementation defined
	CONTROL4   uintptr = 0x8c // 32 bit, implementation defined
	HCVER      uintptr = 0xfe // 16 bit

	// Size of the register window a controller occupies.
	BLOCK_SIZE uintptr = 0x100
)

// TRNMOD bits
const (
	TRNMOD_ENDMA     uint16 = 1 << 0
	TRNMOD_ENBLKCNT  uint16 = 1 << 1
	TRNMOD_ENACMD12  uint16 = 1 << 2
	TRNMOD_RD1WT0    uint16 = 1 << 4
	TRNMOD_MUL1SIN0  uint16 = 1 << 5
	TRNMOD_CCSCON_SH        = 8
)

// CMDREG fields
const (
	CMDREG_RSPTYP_NONE     uint16 = 0
	CMDREG_RSPTYP_136B     uint16 = 1
	CMDREG_RSPTYP_48B      uint16 = 2
	CMDREG_RSPTYP_48B_BUSY uint16 = 3
	CMDREG_ENCMDCRC        uint16 = 1 << 3
	CMDREG_ENCMDIDC        uint16 = 1 << 4
	CMDREG_DATAPRNT        uint16 = 1 << 5
	CMDREG_CMDTYP_OTHER    uint16 = 0 << 6
	CMDREG_CMDTYP_SUSPEND  uint16 = 1 << 6
	CMDREG_CMDTYP_RESUME   uint16 = 2 << 6
	CMDREG_CMDTYP_ABORT    uint16 = 3 << 6
	CMDREG_CMDIDX_SH              = 8
)

// PRNSTS bits
const (
	PRNSTS_TCMD      uint32 = 1 << 24
	PRNSTS_WPSPL     uint32 = 1 << 19
	PRNSTS_TCD       uint32 = 1 << 18
	PRNSTS_STBLCARD  uint32 = 1 << 17
	PRNSTS_INSCARD   uint32 = 1 << 16
	PRNSTS_BUFRDRDY  uint32 = 1 << 11
	PRNSTS_BUFWTRDY  uint32 = 1 << 10
	PRNSTS_RDTRANACT uint32 = 1 << 9
	PRNSTS_WTTRANACT uint32 = 1 << 8
	PRNSTS_DATLINACT uint32 = 1 << 2
	PRNSTS_CMDINHDAT uint32 = 1 << 1
	PRNSTS_CMDINHCMD uint32 = 1 << 0
)

// HOSTCTL bits
const (
	HOSTCTL_WIDE4     uint8 = 1 << 1
	HOSTCTL_ENHIGHSPD uint8 = 1 << 2
	HOSTCTL_DMASEL    uint8 = 3 << 3
	HOSTCTL_WIDE8     uint8 = 1 << 5
)

// PWRCON values
const (
	PWRCON_SDBUSVOLTAGE_33V uint8 = 0x7 << 1
	PWRCON_SDBUSPOWER       uint8 = 1 << 0
)

// CLKCON bits
const (
	CLKCON_SELFREQ_SH         = 8
	CLKCON_SDCLKACTIVE uint16 = 1 << 3
	CLKCON_ENSDCLK     uint16 = 1 << 2
	CLKCON_STBLINTCLK  uint16 = 1 << 1
	CLKCON_ENINTCLK    uint16 = 1 << 0
)

// SWRST bits
const (
	SWRST_RSTDAT uint8 = 1 << 2
	SWRST_RSTCMD uint8 = 1 << 1
	SWRST_RSTALL uint8 = 1 << 0
)

// NORINTSTS bits
const (
	NORINTSTS_STAERR       uint16 = 1 << 15
	NORINTSTS_STABUFRDRDY  uint16 = 1 << 5
	NORINTSTS_STABUFWTRDY  uint16 = 1 << 4
	NORINTSTS_STATRANCMPLT uint16 = 1 << 1
	NORINTSTS_STACMDCMPLT  uint16 = 1 << 0
)

// CAPAREG bits
const (
	CAPAREG_CAPV18            uint32 = 1 << 26
	CAPAREG_CAPV30            uint32 = 1 << 25
	CAPAREG_CAPV33            uint32 = 1 << 24
	CAPAREG_CAPDMA            uint32 = 1 << 22
	CAPAREG_CAPAHSPD          uint32 = 1 << 21
	CAPAREG_CAPMAXBLKLEN_SH          = 16
	CAPAREG_CAPMAXBLKLEN_MASK uint32 = 3
)

// CONTROL2 bits
const (
	CONTROL2_ENSTAASYNCCLR  uint32 = 1 << 31
	CONTROL2_ENCMDCNFMSK    uint32 = 1 << 30
	CONTROL2_CDINVRXD3      uint32 = 1 << 29
	CONTROL2_ENFBCLKTX      uint32 = 1 << 15
	CONTROL2_ENFBCLKRX      uint32 = 1 << 14
	CONTROL2_DEFCNT_SH             = 9
	CONTROL2_ENCLKOUTHOLD   uint32 = 1 << 8
	CONTROL2_SELBASECLK_SH         = 4
	CONTROL2_ENCLKOUTMSKCON uint32 = 1 << 1
	CONTROL2_HWINITFIN      uint32 = 1 << 0
)

// CONTROL3 feedback clock selects
const (
	CONTROL3_FCSEL3     uint32 = 1 << 31
	CONTROL3_FCSEL2     uint32 = 1 << 23
	CONTROL3_FCSEL1     uint32 = 1 << 15
	CONTROL3_FCSEL0     uint32 = 1 << 7
	CONTROL3_FCSEL_MASK        = CONTROL3_FCSEL0 | CONTROL3_FCSEL1 | CONTROL3_FCSEL2 | CONTROL3_FCSEL3
)

// CONTROL4 fields
const (
	CONTROL4_SELCLKPADDS_SH        = 16
	CONTROL4_STABUSY        uint32 = 1 << 0
)

var regNames = []struct {
	off   uintptr
	width int
	name  string
}{
	{SDMASYSAD, 32, "SDMA System Address"},
	{BLKSIZE, 16, "Block Size"},
	{BLKCNT, 16, "Block Count"},
	{ARGMNT, 32, "Argument"},
	{TRNMOD, 16, "Transfer Mode"},
	{CMDREG, 16, "Command"},
	{RSPREG0, 32, "Response 0"},
	{RSPREG1, 32, "Response 1"},
	{RSPREG2, 32, "Response 2"},
	{RSPREG3, 32, "Response 3"},
	{PRNSTS, 32, "Present State"},
	{HOSTCTL, 8, "Host Control"},
	{PWRCON, 8, "Power Control"},
	{BLKGAP, 8, "Block Gap Control"},
	{WAKCON, 8, "Wakeup Control"},
	{CLKCON, 16, "Clock Control"},
	{TIMEOUTCON, 8, "Timeout Control"},
	{SWRST, 8, "Software Reset"},
	{NORINTSTS, 16, "Normal Interrupt Status"},
	{ERRINTSTS, 16, "Error Interrupt Status"},
	{CAPAREG, 32, "Capabilities"},
	{CONTROL2, 32, "Control 2"},
	{CONTROL3, 32, "Control 3 (FB clock)"},
	{CONTROL4, 32, "Control 4"},
	{HCVER, 16, "Host Controller Version"},
}
