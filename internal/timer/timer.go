// Package timer implements the divider/interval timer: the free-running
// DIV register and the TAC-selectable TIMA counter, reloaded from TMA and
// requesting the Timer interrupt on overflow.
package timer

import "github.com/retro-handheld/dottick/internal/bus"

const (
	regDIV  = 0xFF04
	regTIMA = 0xFF05
	regTMA  = 0xFF06
	regTAC  = 0xFF07
)

// tacPeriods maps TAC's low two bits to the TIMA increment period in
// m-cycles.
var tacPeriods = [4]int{256, 4, 16, 64}

// Timer tracks the cycle accumulators driving DIV and TIMA; it holds no
// copy of the register values themselves, which live on the Bus.
type Timer struct {
	cyclesSinceDiv  int
	cyclesSinceTima int
}

// New returns a Timer with both cycle accumulators at zero.
func New() *Timer {
	return &Timer{}
}

// Tick advances the timer by mCycles machine cycles, incrementing DIV
// every 64 m-cycles and TIMA every TAC-selected period while TAC's enable
// bit is set, reloading from TMA and requesting the Timer interrupt on
// overflow.
func (t *Timer) Tick(b *bus.Bus, mCycles int) {
	t.cyclesSinceDiv += mCycles
	for t.cyclesSinceDiv >= 64 {
		t.cyclesSinceDiv -= 64
		div := b.Read(regDIV)
		// Bypass Write's DIV-reset side effect: this is the timer's own
		// free-running increment, not a CPU write.
		b.PokeDIV(div + 1)
	}

	tac := b.Read(regTAC)
	if tac&0x04 == 0 {
		return
	}
	period := tacPeriods[tac&0x03]

	t.cyclesSinceTima += mCycles
	for t.cyclesSinceTima >= period {
		t.cyclesSinceTima -= period
		tima := b.Read(regTIMA)
		if tima == 0xFF {
			b.Write(regTIMA, b.Read(regTMA))
			b.RequestInterrupt(bus.Timer)
		} else {
			b.Write(regTIMA, tima+1)
		}
	}
}
