// Package tlu implements the tile render unit: a pure snapshot function
// that decodes VRAM's tile bitmaps and the background tile map into two
// pixel grids of 2-bit color indices for the presenter.
package tlu

import "github.com/retro-handheld/dottick/internal/bus"

// Color is a 2-bit Game Boy shade index.
type Color byte

const (
	White Color = iota
	LightGray
	DarkGray
	Black
)

// ColorFromBits maps the 2-bit value decoded from a tile's bitplane pair
// to its Color.
func ColorFromBits(bits byte) Color {
	return Color(bits & 0x03)
}

const (
	regLCDC       = 0xFF40
	tileMapStart  = 0x9800
	tilesPerRow   = 32
	tileDataSize  = 16
	tileDimension = 8
)

// Data is a snapshot of the two pixel grids the TLU produces: the full
// 256-tile sheet (64x256 pixels) and the background resolved through the
// tile map (256x256 pixels).
type Data struct {
	TileData       [64][256]Color
	BackgroundData [256][256]Color
}

// Snapshot decodes the current VRAM contents into a Data snapshot. It is
// a pure read over the Bus; it has no state of its own.
func Snapshot(b *bus.Bus) Data {
	var d Data

	for tileIndex := 0; tileIndex < 256; tileIndex++ {
		rowOff := (tileIndex / tilesPerRow) * tileDimension
		colOff := (tileIndex % tilesPerRow) * tileDimension
		tile := decodeTileByIndex(b, byte(tileIndex))
		for r := 0; r < 8; r++ {
			for c := 0; c < 8; c++ {
				d.TileData[rowOff+r][colOff+c] = tile[r][c]
			}
		}
	}

	for pixelIndex := 0; pixelIndex < 32*32; pixelIndex++ {
		rowOff := (pixelIndex / 32) * tileDimension
		colOff := (pixelIndex % 32) * tileDimension
		tileIndex := b.Read(tileMapStart + uint16(pixelIndex))
		tile := decodeTileByIndex(b, tileIndex)
		for r := 0; r < 8; r++ {
			for c := 0; c < 8; c++ {
				d.BackgroundData[rowOff+r][colOff+c] = tile[r][c]
			}
		}
	}

	return d
}

// decodeTileByIndex resolves a tile index through LCDC bit 4's addressing
// mode into a tile-start address and decodes it.
func decodeTileByIndex(b *bus.Bus, tileIndex byte) [8][8]Color {
	lcdc := b.Read(regLCDC)
	var base uint16
	var offset int32
	if lcdc&0x10 != 0 {
		base = 0x8000
		offset = int32(tileIndex) * tileDataSize
	} else {
		base = 0x9000
		offset = int32(int8(tileIndex)) * tileDataSize
	}
	addr := uint16(int32(base) + offset)
	return decodeTileAt(b, addr)
}

// decodeTileAt decodes the 16-byte tile bitmap at addr into an 8x8 grid
// of color indices.
func decodeTileAt(b *bus.Bus, addr uint16) [8][8]Color {
	var tile [8][8]Color
	for r := 0; r < 8; r++ {
		lo := b.Read(addr + uint16(r*2))
		hi := b.Read(addr + uint16(r*2) + 1)
		for c := 0; c < 8; c++ {
			bit := 7 - c
			left := (hi >> uint(bit)) & 1
			right := (lo >> uint(bit)) & 1
			tile[r][c] = ColorFromBits(left<<1 | right)
		}
	}
	return tile
}
