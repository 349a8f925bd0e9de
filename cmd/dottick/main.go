// Command dottick runs the emulator core against a ROM image: either
// headless, dumping a checksum and optional PNG of the last rendered
// frame, or with an interactive ebiten-backed presenter.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/retro-handheld/dottick/internal/cart"
	"github.com/retro-handheld/dottick/internal/device"
	"github.com/retro-handheld/dottick/internal/tlu"
	"github.com/retro-handheld/dottick/internal/ui"
)

type cliFlags struct {
	romPath string
	scale   int
	title   string
	trace   bool

	headless bool
	steps    int
	pngOut   string
	expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM image")
	flag.IntVar(&f.scale, "scale", 3, "window scale")
	flag.StringVar(&f.title, "title", "dottick", "window title")
	flag.BoolVar(&f.trace, "trace", false, "log each executed instruction")

	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.IntVar(&f.steps, "steps", 4_000_000, "instructions to run (headless and interactive)")
	flag.StringVar(&f.pngOut, "outpng", "", "write the last background frame to PNG at path")
	flag.StringVar(&f.expect, "expect", "", "assert the final frame's CRC32 (hex)")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	if f.romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(f.romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	if len(rom) >= 0x150 {
		if h, err := cart.ParseHeader(rom); err == nil {
			log.Printf("ROM: %q", h.Title)
		}
	}

	dev := device.New(device.Config{Trace: f.trace}, 2)
	if err := dev.Load(rom); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	dev.Bus().SetSerialWriter(os.Stdout)

	if f.headless {
		if err := runHeadless(dev, f.steps, f.pngOut, f.expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	go dev.Run(f.steps)

	uiCfg := ui.Config{Title: f.title, Scale: f.scale}
	app := ui.NewApp(uiCfg, dev.Frames())
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

func runHeadless(dev *device.Device, steps int, pngPath, expectCRC string) error {
	start := time.Now()

	// Take each frame as soon as the Device gates it. The Device drops a
	// new frame when the channel is full, so draining only after the run
	// would keep the oldest frames; draining every tick keeps the channel
	// empty and leaves last holding the most recent frame.
	var last device.ImageData
	for i := 0; i < steps; i++ {
		dev.Tick()
		select {
		case img := <-dev.Frames():
			last = img
		default:
		}
	}

	dur := time.Since(start)
	pix := backgroundToRGBA(last.BackgroundData)
	crc := crc32.ChecksumIEEE(pix)
	log.Printf("headless: steps=%d elapsed=%s crc32=%08x", steps, dur.Truncate(time.Millisecond), crc)

	if pngPath != "" {
		if err := savePNG(pix, 256, 256, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

var dmgPalette = [4]color.RGBA{
	tlu.White:     {0x9B, 0xBC, 0x0F, 0xFF},
	tlu.LightGray: {0x8B, 0xAC, 0x0F, 0xFF},
	tlu.DarkGray:  {0x30, 0x62, 0x30, 0xFF},
	tlu.Black:     {0x0F, 0x38, 0x0F, 0xFF},
}

func backgroundToRGBA(bg [256][256]tlu.Color) []byte {
	pix := make([]byte, 256*256*4)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			c := dmgPalette[bg[y][x]&0x03]
			i := (y*256 + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return pix
}

func savePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{Pix: pix, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
