package cpu

import "github.com/retro-handheld/dottick/internal/registers"

// executeUnprefixed decodes and runs one non-CB opcode, returning the
// machine cycles it consumed. Decoding follows the conventional x/y/z/p/q
// bitfield split (x=op>>6, y=(op>>3)&7, z=op&7, p=y>>1, q=y&1), the same
// scheme spec.md's design notes recommend in place of a flat 256-entry
// switch.
func (c *CPU) executeUnprefixed(op byte) int {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch {
	case op == 0x00: // NOP
		return 1
	case op == 0x10: // STOP
		c.fetch8() // STOP's second byte is conventionally 0x00 and discarded
		c.stop()
		return 1
	case op == 0x76: // HALT
		c.halt()
		return 1
	case op == 0xF3: // DI
		c.ime = IMEOff
		return 1
	case op == 0xFB: // EI
		if c.ime == IMEOff {
			c.ime = IMEPendingEnable
		}
		return 1
	case op == 0x07: // RLCA
		c.Reg.A = c.rotateLeft(c.Reg.A, false)
		c.Reg.SetFlag(registers.FlagZ, false)
		return 1
	case op == 0x0F: // RRCA
		c.Reg.A = c.rotateRight(c.Reg.A, false)
		c.Reg.SetFlag(registers.FlagZ, false)
		return 1
	case op == 0x17: // RLA
		c.Reg.A = c.rotateLeft(c.Reg.A, true)
		c.Reg.SetFlag(registers.FlagZ, false)
		return 1
	case op == 0x1F: // RRA
		c.Reg.A = c.rotateRight(c.Reg.A, true)
		c.Reg.SetFlag(registers.FlagZ, false)
		return 1
	case op == 0x27: // DAA
		c.daa()
		return 1
	case op == 0x2F: // CPL
		c.cpl()
		return 1
	case op == 0x37: // SCF
		c.scf()
		return 1
	case op == 0x3F: // CCF
		c.ccf()
		return 1

	case x == 0 && z == 0 && y >= 4: // JR cc,e8 / JR e8 (y==3 unconditional handled below)
		return c.jr(y)
	case op == 0x18: // JR e8
		e := int8(c.fetch8())
		c.Reg.PC = uint16(int32(c.Reg.PC) + int32(e))
		return 3

	case x == 0 && z == 1 && q == 0: // LD r16,n16
		c.Reg.SetR16(p, c.fetch16())
		return 3
	case x == 0 && z == 1 && q == 1: // ADD HL,r16
		c.add16HL(c.Reg.R16(p))
		return 2

	case op == 0x02: // LD (BC),A
		c.write8(c.Reg.R16(0), c.Reg.A)
		return 2
	case op == 0x12: // LD (DE),A
		c.write8(c.Reg.R16(1), c.Reg.A)
		return 2
	case op == 0x22: // LD (HL+),A
		hl := c.Reg.HL()
		c.write8(hl, c.Reg.A)
		c.Reg.SetHL(hl + 1)
		return 2
	case op == 0x32: // LD (HL-),A
		hl := c.Reg.HL()
		c.write8(hl, c.Reg.A)
		c.Reg.SetHL(hl - 1)
		return 2
	case op == 0x0A: // LD A,(BC)
		c.Reg.A = c.read8(c.Reg.R16(0))
		return 2
	case op == 0x1A: // LD A,(DE)
		c.Reg.A = c.read8(c.Reg.R16(1))
		return 2
	case op == 0x2A: // LD A,(HL+)
		hl := c.Reg.HL()
		c.Reg.A = c.read8(hl)
		c.Reg.SetHL(hl + 1)
		return 2
	case op == 0x3A: // LD A,(HL-)
		hl := c.Reg.HL()
		c.Reg.A = c.read8(hl)
		c.Reg.SetHL(hl - 1)
		return 2

	case x == 0 && z == 3 && q == 0: // INC r16
		c.Reg.SetR16(p, c.Reg.R16(p)+1)
		return 2
	case x == 0 && z == 3 && q == 1: // DEC r16
		c.Reg.SetR16(p, c.Reg.R16(p)-1)
		return 2

	case x == 0 && z == 4: // INC r8 / (HL)
		if y == 6 {
			c.writeR8(6, c.inc8(c.readR8(6)))
			return 3
		}
		c.writeR8(y, c.inc8(c.readR8(y)))
		return 1
	case x == 0 && z == 5: // DEC r8 / (HL)
		if y == 6 {
			c.writeR8(6, c.dec8(c.readR8(6)))
			return 3
		}
		c.writeR8(y, c.dec8(c.readR8(y)))
		return 1
	case x == 0 && z == 6: // LD r8,n8 / LD (HL),n8
		n := c.fetch8()
		if y == 6 {
			c.writeR8(6, n)
			return 3
		}
		c.writeR8(y, n)
		return 2

	case op == 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.Reg.SP)
		return 5

	case op == 0xE0: // LDH (a8),A
		addr := 0xFF00 + uint16(c.fetch8())
		c.write8(addr, c.Reg.A)
		return 3
	case op == 0xF0: // LDH A,(a8)
		addr := 0xFF00 + uint16(c.fetch8())
		c.Reg.A = c.read8(addr)
		return 3
	case op == 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.Reg.C), c.Reg.A)
		return 2
	case op == 0xF2: // LD A,(C)
		c.Reg.A = c.read8(0xFF00 + uint16(c.Reg.C))
		return 2
	case op == 0xEA: // LD (a16),A
		addr := c.fetch16()
		c.write8(addr, c.Reg.A)
		return 4
	case op == 0xFA: // LD A,(a16)
		addr := c.fetch16()
		c.Reg.A = c.read8(addr)
		return 4

	case op == 0xF9: // LD SP,HL
		c.Reg.SP = c.Reg.HL()
		return 2
	case op == 0xE8: // ADD SP,e8
		e := int8(c.fetch8())
		c.Reg.SP = c.addSPSigned(c.Reg.SP, e)
		return 4
	case op == 0xF8: // LD HL,SP+e8
		e := int8(c.fetch8())
		c.Reg.SetHL(c.addSPSigned(c.Reg.SP, e))
		return 3

	case x == 1: // LD r8,r8 (0x76 already handled above as HALT)
		src := c.readR8(z)
		if y == 6 {
			c.writeR8(6, src)
			return 2
		}
		if z == 6 {
			c.writeR8(y, src)
			return 2
		}
		c.writeR8(y, src)
		return 1

	case x == 2: // ALU A,r8 / (HL)
		return c.aluOp(y, c.readR8(z), z == 6)

	case op == 0xC6: // ADD A,n8
		c.Reg.A = c.add8(c.Reg.A, c.fetch8(), false)
		return 2
	case op == 0xCE: // ADC A,n8
		c.Reg.A = c.add8(c.Reg.A, c.fetch8(), true)
		return 2
	case op == 0xD6: // SUB A,n8
		c.Reg.A = c.sub8(c.Reg.A, c.fetch8(), false)
		return 2
	case op == 0xDE: // SBC A,n8
		c.Reg.A = c.sub8(c.Reg.A, c.fetch8(), true)
		return 2
	case op == 0xE6: // AND A,n8
		c.Reg.A = c.and8(c.Reg.A, c.fetch8())
		return 2
	case op == 0xEE: // XOR A,n8
		c.Reg.A = c.xor8(c.Reg.A, c.fetch8())
		return 2
	case op == 0xF6: // OR A,n8
		c.Reg.A = c.or8(c.Reg.A, c.fetch8())
		return 2
	case op == 0xFE: // CP A,n8
		c.sub8(c.Reg.A, c.fetch8(), false)
		return 2

	case x == 3 && z == 0 && y < 4: // RET cc
		if c.Reg.CC(y) {
			c.Reg.PC = c.pop16()
			return 5
		}
		return 2
	case op == 0xC9: // RET
		c.Reg.PC = c.pop16()
		return 4
	case op == 0xD9: // RETI
		c.Reg.PC = c.pop16()
		c.ime = IMESet
		return 4

	case x == 3 && z == 2 && y < 4: // JP cc,a16
		addr := c.fetch16()
		if c.Reg.CC(y) {
			c.Reg.PC = addr
			return 4
		}
		return 3
	case op == 0xC3: // JP a16
		c.Reg.PC = c.fetch16()
		return 4
	case op == 0xE9: // JP HL
		c.Reg.PC = c.Reg.HL()
		return 1

	case x == 3 && z == 4 && y < 4: // CALL cc,a16
		addr := c.fetch16()
		if c.Reg.CC(y) {
			c.push16(c.Reg.PC)
			c.Reg.PC = addr
			return 6
		}
		return 3
	case op == 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.Reg.PC)
		c.Reg.PC = addr
		return 6

	case x == 3 && z == 7: // RST
		c.push16(c.Reg.PC)
		c.Reg.PC = uint16(y) * 8
		return 4

	case x == 3 && z == 1 && q == 0: // POP r16stk
		c.Reg.SetR16Stack(p, c.pop16())
		return 3
	case x == 3 && z == 5 && q == 0: // PUSH r16stk
		c.push16(c.Reg.R16Stack(p))
		return 4

	default:
		panic(&UndefinedOpcodeError{Opcode: op, PC: c.Reg.PC - 1})
	}
}

// jr runs JR cc,e8 (y in 4..7 selects NZ/Z/NC/C for y-4).
func (c *CPU) jr(y byte) int {
	e := int8(c.fetch8())
	if c.Reg.CC(y - 4) {
		c.Reg.PC = uint16(int32(c.Reg.PC) + int32(e))
		return 3
	}
	return 2
}

// aluOp dispatches the eight A-register ALU operations selected by y
// against operand v; isMemOperand adds the extra cycle (HL) operands
// cost over a plain register operand.
func (c *CPU) aluOp(y byte, v byte, isMemOperand bool) int {
	switch y {
	case 0:
		c.Reg.A = c.add8(c.Reg.A, v, false)
	case 1:
		c.Reg.A = c.add8(c.Reg.A, v, true)
	case 2:
		c.Reg.A = c.sub8(c.Reg.A, v, false)
	case 3:
		c.Reg.A = c.sub8(c.Reg.A, v, true)
	case 4:
		c.Reg.A = c.and8(c.Reg.A, v)
	case 5:
		c.Reg.A = c.xor8(c.Reg.A, v)
	case 6:
		c.Reg.A = c.or8(c.Reg.A, v)
	case 7:
		c.sub8(c.Reg.A, v, false) // CP: discard result, keep flags
	}
	if isMemOperand {
		return 2
	}
	return 1
}

// rotateLeft rotates v left by one bit. If throughCarry, the incoming bit
// 0 is the carry flag (RLA); otherwise it is v's own outgoing bit 7
// (RLCA/RLC). The outgoing bit 7 always becomes the new carry.
func (c *CPU) rotateLeft(v byte, throughCarry bool) byte {
	outBit := v>>7 != 0
	var inBit byte
	if throughCarry {
		if c.Reg.GetFlag(registers.FlagC) {
			inBit = 1
		}
	} else if outBit {
		inBit = 1
	}
	result := v<<1 | inBit
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, outBit)
	return result
}

// rotateRight rotates v right by one bit, mirroring rotateLeft.
func (c *CPU) rotateRight(v byte, throughCarry bool) byte {
	outBit := v&1 != 0
	var inBit byte
	if throughCarry {
		if c.Reg.GetFlag(registers.FlagC) {
			inBit = 1 << 7
		}
	} else if outBit {
		inBit = 1 << 7
	}
	result := v>>1 | inBit
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, outBit)
	return result
}
