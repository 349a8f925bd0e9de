// Package ui implements a minimal ebiten-backed presenter: it ranges over
// a Device's frame channel and blits the TLU's background grid, mapping
// each 2-bit shade through a fixed DMG-green palette.
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/retro-handheld/dottick/internal/device"
	"github.com/retro-handheld/dottick/internal/tlu"
)

// palette maps the four Game Boy shade indices to RGBA, matching the
// classic DMG pea-green screen rather than true grayscale.
var palette = [4][4]byte{
	tlu.White:     {0x9B, 0xBC, 0x0F, 0xFF},
	tlu.LightGray: {0x8B, 0xAC, 0x0F, 0xFF},
	tlu.DarkGray:  {0x30, 0x62, 0x30, 0xFF},
	tlu.Black:     {0x0F, 0x38, 0x0F, 0xFF},
}

// App is an ebiten.Game that presents whatever frames a Device produces.
// It never advances the Device itself — Run (in cmd/dottick) owns a
// separate goroutine driving Device.Tick so the emulation loop and the
// presenter's ~60Hz draw loop stay decoupled, matching the cross-thread
// boundary the scheduling model describes.
type App struct {
	cfg    Config
	frames <-chan device.ImageData
	tex    *ebiten.Image
	latest device.ImageData
}

// NewApp returns an App that will present frames from ch.
func NewApp(cfg Config, ch <-chan device.ImageData) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(256*cfg.Scale, 256*cfg.Scale)
	return &App{cfg: cfg, frames: ch}
}

// Run starts the ebiten event loop; it blocks until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	// Drain to the newest available frame; stale frames are simply
	// discarded since only the most recent snapshot matters to the eye.
	for {
		select {
		case img, ok := <-a.frames:
			if !ok {
				return nil
			}
			a.latest = img
		default:
			return nil
		}
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(256, 256)
	}
	pix := make([]byte, 256*256*4)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			rgba := palette[a.latest.BackgroundData[y][x]&0x03]
			i := (y*256 + x) * 4
			copy(pix[i:i+4], rgba[:])
		}
	}
	a.tex.WritePixels(pix)
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 256, 256 }
