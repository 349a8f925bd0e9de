package cpu

import "github.com/retro-handheld/dottick/internal/registers"

// executeCB decodes and runs one CB-prefixed opcode, returning the machine
// cycles consumed. The CB table's x/y/z split is uniform: x selects the
// operation group, y selects the bit index (BIT/RES/SET) or sub-op
// (rotate/shift group), z selects the r8/(HL) operand.
func (c *CPU) executeCB() int {
	op := c.fetch8()
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	isMem := z == 6
	v := c.readR8(z)

	var result byte
	switch x {
	case 0: // rotate/shift group, selected by y
		switch y {
		case 0:
			result = c.rotateLeft(v, false)
		case 1:
			result = c.rotateRight(v, false)
		case 2:
			result = c.rotateLeft(v, true)
		case 3:
			result = c.rotateRight(v, true)
		case 4:
			result = c.sla(v)
		case 5:
			result = c.sra(v)
		case 6:
			result = c.swap(v)
		case 7:
			result = c.srl(v)
		}
		c.writeR8(z, result)
	case 1: // BIT y,r8/(HL)
		c.bit(y, v)
		if isMem {
			return 3
		}
		return 2
	case 2: // RES y,r8/(HL)
		c.writeR8(z, v&^(1<<y))
	case 3: // SET y,r8/(HL)
		c.writeR8(z, v|(1<<y))
	}

	if isMem {
		return 4
	}
	return 2
}

func (c *CPU) sla(v byte) byte {
	carry := v&0x80 != 0
	result := v << 1
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, carry)
	return result
}

func (c *CPU) sra(v byte) byte {
	carry := v&0x01 != 0
	result := v>>1 | v&0x80
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, carry)
	return result
}

func (c *CPU) srl(v byte) byte {
	carry := v&0x01 != 0
	result := v >> 1
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, carry)
	return result
}

func (c *CPU) swap(v byte) byte {
	result := v<<4 | v>>4
	c.Reg.SetFlag(registers.FlagZ, result == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, false)
	c.Reg.SetFlag(registers.FlagC, false)
	return result
}

func (c *CPU) bit(bitIdx byte, v byte) {
	c.Reg.SetFlag(registers.FlagZ, v&(1<<bitIdx) == 0)
	c.Reg.SetFlag(registers.FlagN, false)
	c.Reg.SetFlag(registers.FlagH, true)
}
