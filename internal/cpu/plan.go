package cpu

// buildPlan turns one opcode into the queue of per-cycle steps that follow
// the already-consumed fetch cycle. Resolution steps populate c.effAddr and
// c.pageCrossed; the final operate step(s) apply the opcode's actual effect
// by calling into the per-opcode functions in opcodes.go.
func (c *CPU) buildPlan(info opcodeInfo, opcode uint8) []step {
	switch info.Cat {
	case catControl:
		return c.buildControlPlan(info.Mnemonic, info.Mode)
	case catBranch:
		return c.buildBranchPlan(opcode)
	case catNonMemory:
		return []step{func(c *CPU, bus MemoryBus) {
			c.read(bus, c.PC) // dummy read of the next byte, discarded
			nonMemoryOps[opcode](c)
		}}
	case catRead:
		return c.buildReadPlan(info, opcode)
	case catWrite:
		return c.buildWritePlan(info, opcode)
	case catRMW:
		return c.buildRMWPlan(info, opcode)
	}
	return nil
}

// ambiguousHigh is true for the three addressing modes where the effective
// address's high byte may need a carry fixup discovered only after the low
// byte is known: writes and RMWs always pay an extra cycle here regardless
// of whether the carry actually happened, because the hardware has already
// issued the (possibly wrong) read before it can tell.
func ambiguousHigh(mode AddressingMode) bool {
	return mode == AbsoluteX || mode == AbsoluteY || mode == IndirectIndexed
}

func (c *CPU) resolveSteps(mode AddressingMode) []step {
	switch mode {
	case ZeroPage:
		return []step{
			func(c *CPU, bus MemoryBus) {
				c.lowerAddress = c.read(bus, c.PC)
				c.PC++
				c.effAddr = uint16(c.lowerAddress)
			},
		}
	case ZeroPageX:
		return c.resolveZeroPageIndexed(&c.X)
	case ZeroPageY:
		return c.resolveZeroPageIndexed(&c.Y)
	case Absolute:
		return []step{
			func(c *CPU, bus MemoryBus) {
				c.lowerAddress = c.read(bus, c.PC)
				c.PC++
			},
			func(c *CPU, bus MemoryBus) {
				c.upperAddress = c.read(bus, c.PC)
				c.PC++
				c.effAddr = uint16(c.upperAddress)<<8 | uint16(c.lowerAddress)
				c.pageCrossed = false
			},
		}
	case AbsoluteX:
		return c.resolveAbsoluteIndexed(func(cc *CPU) uint8 { return cc.X })
	case AbsoluteY:
		return c.resolveAbsoluteIndexed(func(cc *CPU) uint8 { return cc.Y })
	case IndexedIndirect:
		return []step{
			func(c *CPU, bus MemoryBus) {
				c.lowerAddress = c.read(bus, c.PC)
				c.PC++
			},
			func(c *CPU, bus MemoryBus) {
				c.read(bus, uint16(c.lowerAddress))
				c.lowerAddress += c.X
			},
			func(c *CPU, bus MemoryBus) {
				c.lowIndirect = c.read(bus, uint16(c.lowerAddress))
			},
			func(c *CPU, bus MemoryBus) {
				c.highIndirect = c.read(bus, uint16(c.lowerAddress+1))
				c.effAddr = uint16(c.highIndirect)<<8 | uint16(c.lowIndirect)
				c.pageCrossed = false
			},
		}
	case IndirectIndexed:
		return []step{
			func(c *CPU, bus MemoryBus) {
				c.lowerAddress = c.read(bus, c.PC)
				c.PC++
			},
			func(c *CPU, bus MemoryBus) {
				c.lowIndirect = c.read(bus, uint16(c.lowerAddress))
			},
			func(c *CPU, bus MemoryBus) {
				c.highIndirect = c.read(bus, uint16(c.lowerAddress+1))
				base := uint16(c.highIndirect)<<8 | uint16(c.lowIndirect)
				c.effAddr = base + uint16(c.Y)
				c.pageCrossed = (base & 0xFF00) != (c.effAddr & 0xFF00)
			},
		}
	}
	return nil
}

func (c *CPU) resolveZeroPageIndexed(reg *uint8) []step {
	return []step{
		func(c *CPU, bus MemoryBus) {
			c.lowerAddress = c.read(bus, c.PC)
			c.PC++
		},
		func(c *CPU, bus MemoryBus) {
			c.read(bus, uint16(c.lowerAddress))
			c.lowerAddress += *reg
			c.effAddr = uint16(c.lowerAddress)
			c.pageCrossed = false
		},
	}
}

func (c *CPU) resolveAbsoluteIndexed(regOf func(*CPU) uint8) []step {
	return []step{
		func(c *CPU, bus MemoryBus) {
			c.lowerAddress = c.read(bus, c.PC)
			c.PC++
		},
		func(c *CPU, bus MemoryBus) {
			c.upperAddress = c.read(bus, c.PC)
			c.PC++
			base := uint16(c.upperAddress)<<8 | uint16(c.lowerAddress)
			c.effAddr = base + uint16(regOf(c))
			c.pageCrossed = (base & 0xFF00) != (c.effAddr & 0xFF00)
		},
	}
}

// wrongAddr is the address a dummy cycle reads from when the high byte might
// still need fixing up: same high byte as before indexing, already-carried
// low byte.
func (c *CPU) wrongAddr() uint16 {
	return (c.effAddr & 0x00FF) | (uint16(c.upperAddress) << 8)
}

func (c *CPU) buildReadPlan(info opcodeInfo, opcode uint8) []step {
	if info.Mode == Immediate {
		return []step{func(c *CPU, bus MemoryBus) {
			c.data = c.read(bus, c.PC)
			c.PC++
			readOps[opcode](c, c.data)
		}}
	}
	resolve := c.resolveSteps(info.Mode)
	canCross := info.Mode == AbsoluteX || info.Mode == AbsoluteY || info.Mode == IndirectIndexed

	operate := func(c *CPU, bus MemoryBus) {
		c.data = c.read(bus, c.effAddr)
		readOps[opcode](c, c.data)
	}

	final := func(c *CPU, bus MemoryBus) {
		if canCross && c.pageCrossed {
			wrong := c.wrongAddr()
			c.queue = append([]step{operate}, c.queue...)
			c.read(bus, wrong)
			return
		}
		operate(c, bus)
	}

	return append(resolve, final)
}

func (c *CPU) buildWritePlan(info opcodeInfo, opcode uint8) []step {
	resolve := c.resolveSteps(info.Mode)
	plan := append(resolve, []step{}...)
	if ambiguousHigh(info.Mode) {
		plan = append(plan, func(c *CPU, bus MemoryBus) {
			c.read(bus, c.wrongAddr())
		})
	}
	plan = append(plan, func(c *CPU, bus MemoryBus) {
		v := writeOps[opcode](c)
		c.write(bus, c.effAddr, v)
	})
	return plan
}

func (c *CPU) buildRMWPlan(info opcodeInfo, opcode uint8) []step {
	resolve := c.resolveSteps(info.Mode)
	plan := append(resolve, []step{}...)
	if ambiguousHigh(info.Mode) {
		plan = append(plan, func(c *CPU, bus MemoryBus) {
			c.read(bus, c.wrongAddr())
		})
	}
	plan = append(plan,
		func(c *CPU, bus MemoryBus) {
			c.data = c.read(bus, c.effAddr)
		},
		func(c *CPU, bus MemoryBus) {
			c.write(bus, c.effAddr, c.data) // dummy write-back of the old value
		},
		func(c *CPU, bus MemoryBus) {
			newVal := rmwOps[opcode](c, c.data)
			c.write(bus, c.effAddr, newVal)
		},
	)
	return plan
}

// buildBranchPlan implements the two/three/four-cycle branch shape: the
// offset is fetched and the condition tested in the first post-fetch cycle;
// a taken branch appends the PCL-adjust cycle, and a branch that also
// crosses a page boundary appends a further PCH-fixup cycle. Dynamically
// growing the queue from inside a step is how the variable cycle count falls
// out of the same per-cycle engine used everywhere else.
func (c *CPU) buildBranchPlan(opcode uint8) []step {
	cond := branchConds[opcode]
	return []step{
		func(c *CPU, bus MemoryBus) {
			offset := int8(c.read(bus, c.PC))
			c.PC++
			if !cond(c) {
				return
			}
			oldPC := c.PC
			newLow := uint8(oldPC) + uint8(offset)
			target := (oldPC & 0xFF00) | uint16(newLow)
			c.effAddr = oldPC + uint16(offset) // final correct target
			crossed := (c.effAddr & 0xFF00) != (oldPC & 0xFF00)
			c.queue = append(c.queue, func(c *CPU, bus MemoryBus) {
				c.read(bus, target)
				if !crossed {
					c.PC = target
					return
				}
				c.queue = append(c.queue, func(c *CPU, bus MemoryBus) {
					c.read(bus, (oldPC&0xFF00)|uint16(newLow))
					c.PC = c.effAddr
				})
			})
		},
	}
}
