// Package cpu implements the Sharp-derivative CPU: fetch-decode-execute
// for the full unprefixed and CB-prefixed opcode tables, interrupt
// dispatch, the IME enable delay, and the halt/stop power-state machine
// including the documented halt bug.
package cpu

import (
	"fmt"

	"github.com/retro-handheld/dottick/internal/bus"
	"github.com/retro-handheld/dottick/internal/registers"
)

// IME is the three-state interrupt master enable latch.
type IME int

const (
	IMEOff IME = iota
	IMEPendingEnable
	IMESet
)

// Mode is the CPU's power state.
type Mode int

const (
	ModeRunning Mode = iota
	ModeHalt
	ModeStop
)

// UndefinedOpcodeError reports one of the eleven architecturally
// undefined opcode bytes.
type UndefinedOpcodeError struct {
	Opcode byte
	PC     uint16
}

func (e *UndefinedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: undefined opcode %#02x at %#04x", e.Opcode, e.PC)
}

// CPU holds the register file, bus reference, and the bits of state the
// instruction loop needs between instructions: IME, power mode, and the
// halt-bug latch.
type CPU struct {
	Reg registers.File

	bus *bus.Bus

	ime            IME
	mode           Mode
	haltBugPending bool
}

// New returns a CPU wired to bus with all registers and PC/SP zero, the
// power-on state prior to the boot vector running.
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, ime: IMEOff, mode: ModeRunning}
}

// Bus exposes the underlying bus, used by tools and tests.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// IME reports the CPU's current interrupt-master-enable state.
func (c *CPU) IME() IME { return c.ime }

// Mode reports the CPU's current power state.
func (c *CPU) Mode() Mode { return c.mode }

// Boot sets the register file to the fixed post-bootrom vector.
func (c *CPU) Boot() {
	c.Reg.A, c.Reg.F = 0x01, 0xB0
	c.Reg.B, c.Reg.C = 0x00, 0x13
	c.Reg.D, c.Reg.E = 0x00, 0xD8
	c.Reg.H, c.Reg.L = 0x01, 0x4D
	c.Reg.SP = 0xFFFE
	c.Reg.PC = 0x0100
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

// fetch8 reads the byte at PC and advances PC by one, with the documented
// halt-bug anomaly: if the latch is pending, the advance is undone once
// and the latch cleared, so the very next fetch re-reads this same byte
// as the following instruction's first operand instead of advancing PC
// normally.
func (c *CPU) fetch8() byte {
	v := c.bus.Read(c.Reg.PC)
	c.Reg.PC++
	if c.haltBugPending {
		c.Reg.PC--
		c.haltBugPending = false
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) push16(v uint16) {
	c.Reg.SP -= 2
	c.write16(c.Reg.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.Reg.SP)
	c.Reg.SP += 2
	return v
}

// readR8 reads one of the eight 3-bit-encoded operand slots, resolving
// index 6 through the (HL) memory form instead of the register file.
func (c *CPU) readR8(idx byte) byte {
	if idx&0x07 == 6 {
		return c.read8(c.Reg.HL())
	}
	return *c.Reg.R8(idx)
}

// writeR8 writes one of the eight 3-bit-encoded operand slots, resolving
// index 6 through the (HL) memory form.
func (c *CPU) writeR8(idx byte, v byte) {
	if idx&0x07 == 6 {
		c.write8(c.Reg.HL(), v)
		return
	}
	*c.Reg.R8(idx) = v
}

// Execute performs one step and returns the number of machine cycles it
// consumed. If an interrupt is due, the step is the interrupt dispatch
// alone (no instruction runs); while halted with nothing pending, or
// stopped, the step idles for one cycle; otherwise it runs exactly one
// instruction (fetch, decode, execute).
func (c *CPU) Execute() int {
	if cycles, serviced := c.serviceInterruptIfDue(); serviced {
		return cycles
	}

	if c.mode == ModeHalt {
		if c.bus.InterruptsEnabled() {
			c.mode = ModeRunning
		} else {
			return 1
		}
	}

	if c.mode == ModeStop {
		// STOP's exit condition (joypad edge) is out of scope; stay
		// parked but keep reporting machine cycles so the Device's
		// downstream bookkeeping still advances.
		return 1
	}

	op := c.fetch8()
	wasEI := op == 0xFB

	var cycles int
	if op == 0xCB {
		cycles = c.executeCB()
	} else {
		cycles = c.executeUnprefixed(op)
	}

	if !wasEI && c.ime == IMEPendingEnable {
		c.ime = IMESet
	}

	return cycles
}

// serviceInterruptIfDue checks IME and the Bus's pending-interrupt state,
// and if an interrupt is due, pushes PC, jumps to the handler, disables
// IME, and clears IF's bit for that interrupt. Dispatch costs a fixed 5
// machine cycles.
func (c *CPU) serviceInterruptIfDue() (cycles int, serviced bool) {
	if c.ime != IMESet {
		return 0, false
	}
	i, ok := c.bus.PendingInterrupt()
	if !ok {
		return 0, false
	}

	c.mode = ModeRunning
	c.bus.ClearInterrupt(i)
	c.push16(c.Reg.PC)
	c.Reg.PC = i.HandlerAddress()
	c.ime = IMEOff
	return 5, true
}

// halt implements the HALT opcode's power-state transition, including the
// documented halt bug: HALT taken with IME off while an interrupt is
// already pending leaves mode running but latches haltBugPending, so the
// following fetch replays its own opcode byte as the next instruction's
// first operand instead of advancing PC normally.
func (c *CPU) halt() {
	if c.ime == IMESet {
		c.mode = ModeHalt
		return
	}
	if !c.bus.InterruptsEnabled() {
		c.mode = ModeHalt
		return
	}
	c.haltBugPending = true
}

func (c *CPU) stop() {
	c.mode = ModeStop
}
