package cpu

import "github.com/retro-handheld/dottick/internal/registers"

// add8 adds b (and optionally the carry flag) to a, setting Z/N/H/C.
func (c *CPU) add8(a, b byte, withCarry bool) byte {
	var carryIn byte
	if withCarry && c.Reg.GetFlag(registers.FlagC) {
		carryIn = 1
	}
	full := int(a) + int(b) + int(carryIn)
	result := byte(full)

	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, (a&0x0F)+(b&0x0F)+carryIn > 0x0F)
	c.Reg.SetFlag(registers.FlagC, full > 0xFF)
	return result
}

// sub8 subtracts b (and optionally the carry flag) from a, setting
// Z/N/H/C. For CP, callers simply discard the result.
func (c *CPU) sub8(a, b byte, withCarry bool) byte {
	var carryIn byte
	if withCarry && c.Reg.GetFlag(registers.FlagC) {
		carryIn = 1
	}
	full := int(a) - int(b) - int(carryIn)
	result := byte(full)

	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, true)
	c.Reg.SetFlag(registers.FlagH, int(a&0x0F)-int(b&0x0F)-int(carryIn) < 0)
	c.Reg.SetFlag(registers.FlagC, full < 0)
	return result
}

func (c *CPU) and8(a, b byte) byte {
	result := a & b
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, true)
	c.Reg.SetFlag(registers.FlagC, false)
	return result
}

func (c *CPU) or8(a, b byte) byte {
	result := a | b
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, false)
	return result
}

func (c *CPU) xor8(a, b byte) byte {
	result := a ^ b
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, false)
	return result
}

func (c *CPU) inc8(a byte) byte {
	result := a + 1
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, registers.IsHalfCarryAdd(a, 1))
	return result
}

func (c *CPU) dec8(a byte) byte {
	result := a - 1
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, true)
	c.Reg.SetFlag(registers.FlagH, registers.IsHalfBorrowSub(a, 1))
	return result
}

// add16HL adds v to HL, affecting N/H/C but leaving Z untouched.
func (c *CPU) add16HL(v uint16) {
	hl := c.Reg.HL()
	result := hl + v
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF)
	c.Reg.SetFlag(registers.FlagC, uint32(hl)+uint32(v) > 0xFFFF)
	c.Reg.SetHL(result)
}

// addSPSigned adds a signed 8-bit immediate to SP (used by ADD SP,e8 and
// LD HL,SP+e8), setting Z=0, N=0, and H/C computed on the unsigned low
// byte as the hardware does.
func (c *CPU) addSPSigned(sp uint16, e int8) uint16 {
	result := uint16(int32(sp) + int32(e))
	c.Reg.SetFlag(registers.FlagZ, false)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, (sp&0x0F)+uint16(byte(e)&0x0F) > 0x0F)
	c.Reg.SetFlag(registers.FlagC, (sp&0xFF)+uint16(byte(e)) > 0xFF)
	return result
}

// daa decimal-adjusts A after a BCD addition or subtraction, driven
// entirely by the N, H, and C flags left over from the preceding op.
func (c *CPU) daa() {
	a := c.Reg.A
	var adjust byte
	carry := c.Reg.GetFlag(registers.FlagC)

	if c.Reg.GetFlag(registers.FlagN) {
		if c.Reg.GetFlag(registers.FlagH) {
			adjust += 0x06
		}
		if carry {
			adjust += 0x60
		}
		a -= adjust
	} else {
		if c.Reg.GetFlag(registers.FlagH) || a&0x0F > 0x09 {
			adjust += 0x06
		}
		if carry || a > 0x99 {
			adjust += 0x60
			carry = true
		}
		a += adjust
	}

	c.Reg.A = a
	c.Reg.SetFlag(registers.FlagZ, a == 0)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, carry)
}

func (c *CPU) cpl() {
	c.Reg.A = ^c.Reg.A
	c.Reg.SetFlag(registers.FlagN, true)
	c.Reg.SetFlag(registers.FlagH, true)
}

func (c *CPU) scf() {
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, true)
}

func (c *CPU) ccf() {
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, !c.Reg.GetFlag(registers.FlagC))
}
