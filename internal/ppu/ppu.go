// Package ppu implements the picture processing unit's per-dot scanline
// state machine: OAM scan, pixel drawing, and vertical blank, together with
// LY/LYC mirroring and STAT interrupt generation. The HorizontalBlank mode
// is defined but never entered: a visible scanline stays in DrawingPixels
// from dot 80 to its end, so the STAT mode-0 source never fires. The PPU
// owns no memory of its own; every register and byte of VRAM it reads or
// writes lives on the Bus.
package ppu

import "github.com/retro-handheld/dottick/internal/bus"

// Mode identifies one of the four scanline phases. Its numeric value is
// also the STAT mode-bits encoding the hardware exposes.
type Mode byte

const (
	HorizontalBlank Mode = 0
	VerticalBlank   Mode = 1
	OAMScan         Mode = 2
	DrawingPixels   Mode = 3
)

const (
	dotsPerScanline     = 456
	oamScanEndDot       = 80
	totalScanlines      = 154
	vblankStartScanline = 144

	regLCDC = 0xFF40
	regSTAT = 0xFF41
	regLY   = 0xFF44
	regLYC  = 0xFF45
)

// PPU is the per-dot state machine. Tick is driven by the Device with the
// CPU's elapsed m-cycles; it expands that into dots internally.
type PPU struct {
	currentScanline    byte
	currentScanlineDot uint16
	mode               Mode

	// statLine is the previous dot's OR of enabled STAT interrupt
	// sources; the interrupt is requested only on its rising edge.
	statLine bool
}

// New returns a PPU at scanline 0, dot 0, mode OAMScan.
func New() *PPU {
	return &PPU{mode: OAMScan}
}

// CurrentScanline returns the PPU's internal scanline counter, which LY
// always mirrors after a Tick.
func (p *PPU) CurrentScanline() byte { return p.currentScanline }

// Mode reports the PPU's current scanline phase.
func (p *PPU) Mode() Mode { return p.mode }

// Tick advances the PPU by mCycles m-cycles, i.e. 4*mCycles dots.
func (p *PPU) Tick(b *bus.Bus, mCycles int) {
	dots := mCycles * 4
	for i := 0; i < dots; i++ {
		p.doDot(b)
	}
}

func (p *PPU) doDot(b *bus.Bus) {
	p.currentScanlineDot++

	if p.currentScanlineDot == dotsPerScanline {
		p.currentScanlineDot = 0
		p.currentScanline++
		// Lines 145..153 stay in VerticalBlank; OAMScan resumes on visible
		// lines and at the wrap back to line 0.
		if p.currentScanline < vblankStartScanline || p.currentScanline == totalScanlines {
			p.mode = OAMScan
		}
	}

	if p.currentScanlineDot == oamScanEndDot && p.currentScanline < vblankStartScanline {
		p.mode = DrawingPixels
	}

	if p.currentScanline == vblankStartScanline && p.currentScanlineDot == 0 {
		p.mode = VerticalBlank
		b.RequestInterrupt(bus.VBlank)
	}

	if p.currentScanline == totalScanlines {
		p.currentScanline = 0
	}

	b.Write(regLY, p.currentScanline)
	p.updateStat(b)
}

func (p *PPU) updateStat(b *bus.Bus) {
	ly := b.UnblockedRead(regLY)
	lyc := b.UnblockedRead(regLYC)
	lcdc := b.UnblockedRead(regLCDC)
	prevStat := b.UnblockedRead(regSTAT)

	lycEqLY := ly == lyc
	modeBits := byte(p.mode)
	if lcdc&0x80 == 0 {
		modeBits = 0
	}

	var lycBit byte
	if lycEqLY {
		lycBit = 1 << 2
	}

	newStat := (prevStat & 0xF8) | lycBit | modeBits
	b.Write(regSTAT, newStat)

	line := (prevStat&0x40 != 0 && lycEqLY) ||
		(prevStat&0x20 != 0 && p.mode == OAMScan) ||
		(prevStat&0x10 != 0 && p.mode == VerticalBlank) ||
		(prevStat&0x08 != 0 && p.mode == HorizontalBlank)

	if line && !p.statLine {
		b.RequestInterrupt(bus.STAT)
	}
	p.statLine = line
}
