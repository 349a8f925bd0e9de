package cart

import (
	"errors"
	"strings"
)

// titleEnd is one past the title field (0x0134-0x0143).
const titleEnd = 0x0144

// Header holds the single cartridge-header field this emulator reads: the
// title string, printed once on load for a diagnostic log line. No other
// header field (cart type, ROM/RAM size, checksums) is decoded — there is
// no mapper to select with them, per the flat-ROM-only scope.
type Header struct {
	Title string
}

// ParseHeader extracts the title from rom's header region (0x0134-0x0143).
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < titleEnd {
		return nil, errors.New("ROM too small to contain header")
	}
	title := strings.TrimRight(string(rom[0x0134:titleEnd]), "\x00")
	return &Header{Title: title}, nil
}
