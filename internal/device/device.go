// Package device wires the CPU, PPU, DMA engine, and Timer to a shared
// Bus and drives them in the fixed per-instruction order the machine's
// scheduling model requires, gating rendered frames onto a buffered
// channel consumed by a presenter running on another goroutine.
package device

import (
	"log"

	"github.com/retro-handheld/dottick/internal/bus"
	"github.com/retro-handheld/dottick/internal/cpu"
	"github.com/retro-handheld/dottick/internal/dma"
	"github.com/retro-handheld/dottick/internal/ppu"
	"github.com/retro-handheld/dottick/internal/timer"
	"github.com/retro-handheld/dottick/internal/tlu"
)

// mCyclesPerFrame is 70224 dots (one full 144-visible-line + VBlank sweep)
// expressed in m-cycles: 70224 / 4 = 17556.
const mCyclesPerFrame = 17556

// ImageData is a single rendered frame: the TLU's full tile sheet and its
// background-map-resolved grid, ready for a presenter to palette-map.
type ImageData struct {
	TileData       [64][256]tlu.Color
	BackgroundData [256][256]tlu.Color
}

// Device owns every subsystem and the Bus they share.
type Device struct {
	cfg Config

	bus   *bus.Bus
	cpu   *cpu.CPU
	ppu   *ppu.PPU
	dma   *dma.DMA
	timer *timer.Timer

	frames       chan ImageData
	frameCounter uint64
}

// New returns a Device with all subsystems constructed and a frame
// channel of the given buffer depth.
func New(cfg Config, frameBuffer int) *Device {
	b := bus.New()
	return &Device{
		cfg:    cfg,
		bus:    b,
		cpu:    cpu.New(b),
		ppu:    ppu.New(),
		dma:    dma.New(),
		timer:  timer.New(),
		frames: make(chan ImageData, frameBuffer),
	}
}

// Frames returns the channel the presenter should range over.
func (d *Device) Frames() <-chan ImageData { return d.frames }

// Bus exposes the shared bus for tooling (fixture harnesses, tests).
func (d *Device) Bus() *bus.Bus { return d.bus }

// CPU exposes the CPU for tooling (fixture harnesses, tests).
func (d *Device) CPU() *cpu.CPU { return d.cpu }

// Load copies rom onto the Bus and applies the fixed post-bootrom
// register state, the same point every retail boot ROM hands off at.
func (d *Device) Load(rom []byte) error {
	if err := d.bus.LoadROM(rom); err != nil {
		return err
	}
	d.cpu.Boot()
	return nil
}

// Tick advances the machine by exactly one CPU instruction, then runs
// DMA, PPU, and Timer for the same number of m-cycles, in that fixed
// order — the Device's scheduling invariant: no subsystem observes a
// mid-cycle state of another.
func (d *Device) Tick() {
	var pc uint16
	if d.cfg.Trace {
		pc = d.cpu.Reg.PC
	}
	m := d.cpu.Execute()
	if d.cfg.Trace {
		log.Printf("pc=%04x op=%02x cycles=%d af=%02x%02x bc=%02x%02x de=%02x%02x hl=%02x%02x sp=%04x",
			pc, d.bus.UnblockedRead(pc), m,
			d.cpu.Reg.A, d.cpu.Reg.F, d.cpu.Reg.B, d.cpu.Reg.C,
			d.cpu.Reg.D, d.cpu.Reg.E, d.cpu.Reg.H, d.cpu.Reg.L, d.cpu.Reg.SP)
	}
	d.dma.Tick(d.bus, m)
	d.ppu.Tick(d.bus, m)
	d.timer.Tick(d.bus, m)

	d.frameCounter += uint64(m)
	if d.frameCounter >= mCyclesPerFrame {
		snap := tlu.Snapshot(d.bus)
		d.enqueueFrame(ImageData{TileData: snap.TileData, BackgroundData: snap.BackgroundData})
		d.frameCounter -= mCyclesPerFrame
	}
}

// enqueueFrame is a best-effort, non-blocking send: a full channel means
// the presenter is behind, and the Device drops the frame rather than
// stall the emulation thread.
func (d *Device) enqueueFrame(img ImageData) {
	select {
	case d.frames <- img:
	default:
	}
}

// Run ticks the Device for exactly budget instructions, the bounded loop
// the core's no-timeouts policy delegates to the outer harness.
func (d *Device) Run(budget int) {
	for i := 0; i < budget; i++ {
		d.Tick()
	}
}
