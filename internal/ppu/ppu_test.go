package ppu

import (
	"testing"

	"github.com/retro-handheld/dottick/internal/bus"
)

func TestPPU_LYMirrorsScanlineAfterTick(t *testing.T) {
	b := bus.New()
	p := New()

	p.Tick(b, 1) // 4 dots, still scanline 0

	if got := b.Read(0xFF44); got != p.CurrentScanline() {
		t.Fatalf("LY got %d, want %d", got, p.CurrentScanline())
	}
}

func TestPPU_OAMScanToDrawingPixelsTransition(t *testing.T) {
	b := bus.New()
	p := New()

	p.Tick(b, 20) // 80 dots
	if p.Mode() != DrawingPixels {
		t.Fatalf("mode got %v, want DrawingPixels after 80 dots", p.Mode())
	}
}

func TestPPU_VBlankGeneratesInterruptAtScanline144(t *testing.T) {
	b := bus.New()
	b.Write(0xFFFF, 0x1F)
	p := New()

	p.Tick(b, 144*456/4)

	if p.CurrentScanline() != 144 {
		t.Fatalf("scanline got %d, want 144", p.CurrentScanline())
	}
	if b.Read(0xFF0F)&0x01 == 0 {
		t.Fatalf("VBlank interrupt flag not set")
	}
	if _, ok := b.PendingInterrupt(); !ok {
		t.Fatalf("no pending interrupt after VBlank")
	}
}

func TestPPU_ScanlineWrapsAt154(t *testing.T) {
	b := bus.New()
	p := New()

	p.Tick(b, 154*456/4)

	if p.CurrentScanline() != 0 {
		t.Fatalf("scanline got %d, want 0 after wrapping", p.CurrentScanline())
	}
}

func TestPPU_STATInterruptRisingEdgeOnly(t *testing.T) {
	b := bus.New()
	b.Write(0xFFFF, 0x1F)
	b.Write(0xFF41, 0x20) // enable mode-2 (OAMScan) STAT source
	p := New()

	// Entering OAMScan at the very first dot already holds the line high;
	// only the edge from false->true requests an interrupt, which happens
	// immediately since statLine starts false.
	p.Tick(b, 1)
	if _, ok := b.PendingInterrupt(); !ok {
		t.Fatalf("expected STAT interrupt on initial rising edge")
	}

	b.ClearInterrupt(bus.STAT)
	p.Tick(b, 1)
	if _, ok := b.PendingInterrupt(); ok {
		t.Fatalf("STAT interrupt re-fired on a held level, not just the edge")
	}
}

func TestPPU_LCDCBit7ClearForcesModeZeroInStat(t *testing.T) {
	b := bus.New()
	p := New()
	// LCDC bit 7 clear: display off, STAT mode bits must read 0 regardless
	// of the PPU's internal mode.
	b.Write(0xFF40, 0x00)
	p.Tick(b, 20) // would have entered DrawingPixels (mode 3) by now
	if got := b.Read(0xFF41) & 0x03; got != 0 {
		t.Fatalf("STAT mode bits got %d, want 0 while LCDC display disabled", got)
	}
}
