package avr

// table is the static mnemonic -> operand-signature-overload dispatch
// table. Each overload records its encoded length and an encode function
// that takes the instruction's own address (for PC-relative forms) and
// its already-resolved operands.
var table map[string][]variant

func init() {
	table = make(map[string][]variant)
	addNoOperand()
	addSingleRegister()
	addRegReg()
	addRegImm()
	addRegPairImm()
	addIO()
	addIndirect()
	addBranch()
	addJumpCall()
	addLongImmediate()
}

func add(mnemonic string, sigs []sig, length int, encode func(pc int, ops []ResolvedOperand) ([]uint16, error)) {
	table[mnemonic] = append(table[mnemonic], variant{sigs: sigs, length: length, encode: encode})
}

func word(w uint16) ([]uint16, error) {
	return []uint16{w}, nil
}

//
// no-operand instructions
//

func addNoOperand() {
	fixed := map[string]uint16{
		"nop": 0x0000, "ret": 0x9508, "reti": 0x9518,
		"sleep": 0x9588, "wdr": 0x95A8, "break": 0x9598,
		"lpm": 0x95C8, "ijmp": 0x9409, "icall": 0x9509,
		"sec": 0x9408, "clc": 0x9488,
		"sez": 0x9418, "clz": 0x9498,
		"sen": 0x9428, "cln": 0x94A8,
		"sev": 0x9438, "clv": 0x94B8,
		"ses": 0x9448, "cls": 0x94C8,
		"seh": 0x9458, "clh": 0x94D8,
		"set": 0x9468, "clt": 0x94E8,
		"sei": 0x9478, "cli": 0x94F8,
	}
	for name, w := range fixed {
		w := w
		add(name, nil, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) { return word(w) })
	}
}

//
// single-register instructions: {opcode-base, Rd}
//

func addSingleRegister() {
	type entry struct {
		name  string
		base  uint16
		r1631 bool // true if Rd must be r16..31 (only SER)
	}
	entries := []entry{
		{"com", 0x9400, false}, {"neg", 0x9401, false},
		{"swap", 0x9402, false}, {"inc", 0x9403, false},
		{"asr", 0x9405, false}, {"lsr", 0x9406, false},
		{"ror", 0x9407, false}, {"dec", 0x940A, false},
		{"push", 0x920F, false}, {"pop", 0x900F, false},
	}
	for _, e := range entries {
		e := e
		add(e.name, []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d := ops[0].Reg
			if err := checkReg(d); err != nil {
				return nil, err
			}
			return word(singleRegOp(e.base, d))
		})
	}

	add("ser", []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkRegHigh(d); err != nil {
			return nil, err
		}
		return word(0xEF0F | uint16(d-16)<<4)
	})

	// LPM Rd, Z / LPM Rd, Z+
	add("lpm", []sig{sigReg, sigIndZ}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(0x9004 | uint16(d)<<4)
	})
	add("lpm", []sig{sigReg, sigIndZInc}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(0x9005 | uint16(d)<<4)
	})

	// pseudo-instructions built from two-register forms with Rd==Rd
	add("lsl", []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(regRegOp(0x0C00, d, d))
	})
	add("rol", []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(regRegOp(0x1C00, d, d))
	})
	add("clr", []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(regRegOp(0x2400, d, d))
	})
	add("tst", []sig{sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d := ops[0].Reg
		if err := checkReg(d); err != nil {
			return nil, err
		}
		return word(regRegOp(0x2000, d, d))
	})
}

//
// two-register instructions: {opcode-base, Rd, Rr}
//

func addRegReg() {
	entries := map[string]uint16{
		"add": 0x0C00, "adc": 0x1C00, "sub": 0x1800, "sbc": 0x0800,
		"and": 0x2000, "or": 0x2800, "eor": 0x2400, "mov": 0x2C00,
		"cp": 0x1400, "cpc": 0x0400, "cpse": 0x1000, "mul": 0x9C00,
	}
	highOnly := map[string]bool{"muls": true}
	for name, base := range entries {
		base := base
		add(name, []sig{sigReg, sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d, r := ops[0].Reg, ops[1].Reg
			if err := checkReg(d); err != nil {
				return nil, err
			}
			if err := checkReg(r); err != nil {
				return nil, err
			}
			return word(regRegOp(base, d, r))
		})
	}
	_ = highOnly
	add("muls", []sig{sigReg, sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d, r := ops[0].Reg, ops[1].Reg
		if err := checkRegHigh(d); err != nil {
			return nil, err
		}
		if err := checkRegHigh(r); err != nil {
			return nil, err
		}
		return word(0x0200 | uint16(d-16)<<4 | uint16(r-16))
	})
}

//
// register-immediate: {opcode-base, Rd(16..31), K8}
//

func addRegImm() {
	entries := map[string]uint16{
		"ldi": 0xE000, "subi": 0x5000, "sbci": 0x4000,
		"andi": 0x7000, "ori": 0x6000, "sbr": 0x6000, "cpi": 0x3000,
	}
	for name, base := range entries {
		base := base
		add(name, []sig{sigReg, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d, k := ops[0].Reg, ops[1].Value
			if err := checkRegHigh(d); err != nil {
				return nil, err
			}
			if err := checkUnsigned("immediate", k, 8); err != nil {
				return nil, err
			}
			return word(regImmOp(base, d, k))
		})
	}
	// CBR Rd, K is ANDI with an inverted mask.
	add("cbr", []sig{sigReg, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d, k := ops[0].Reg, ops[1].Value
		if err := checkRegHigh(d); err != nil {
			return nil, err
		}
		if err := checkUnsigned("immediate", k, 8); err != nil {
			return nil, err
		}
		return word(regImmOp(0x7000, d, (^k)&0xFF))
	})
}

//
// register-pair instructions: MOVW, ADIW, SBIW
//

// lowRegOf extracts the pair's low register number from an operand that
// may be a direct "rN:rM" pair token, a plain register (the common
// real-world MOVW/ADIW/SBIW syntax, which names only the low register),
// or a resolved expression (e.g. a name bound via ".equ p = r1:r0").
func lowRegOf(op ResolvedOperand) (int, error) {
	switch op.Kind {
	case 0: // ast.OpRegister
		return op.Reg, nil
	case 1: // ast.OpRegisterPair
		if err := checkAdjacentPair(op.Hi, op.Lo); err != nil {
			return 0, err
		}
		return op.Lo, nil
	default: // ast.OpExpr
		return op.Value, nil
	}
}

func addRegPairImm() {
	for _, sigs := range [][2]sig{{sigReg, sigReg}, {sigRegPair, sigRegPair}, {sigImm, sigImm}} {
		sigs := sigs
		add("movw", sigs[:], 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			dLo, err := lowRegOf(ops[0])
			if err != nil {
				return nil, err
			}
			rLo, err := lowRegOf(ops[1])
			if err != nil {
				return nil, err
			}
			if err := checkPair(dLo); err != nil {
				return nil, err
			}
			if err := checkPair(rLo); err != nil {
				return nil, err
			}
			return word(pairOp(dLo/2, rLo/2))
		})
	}

	for name, base := range map[string]uint16{"adiw": 0x9600, "sbiw": 0x9700} {
		name, base := name, base
		for _, s0 := range []sig{sigReg, sigRegPair, sigImm} {
			s0 := s0
			add(name, []sig{s0, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
				dLo, err := lowRegOf(ops[0])
				if err != nil {
					return nil, err
				}
				if dLo < 24 || dLo > 30 || dLo%2 != 0 {
					return nil, errRange("%s register must be one of r24, r26, r28, r30", name)
				}
				k := ops[1].Value
				if err := checkUnsigned("immediate", k, 6); err != nil {
					return nil, err
				}
				return word(adiwOp(base, (dLo-24)/2, k))
			})
		}
	}
}

//
// I/O: IN, OUT, SBI, CBI, SBIC, SBIS
//

func addIO() {
	add("in", []sig{sigReg, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d, a := ops[0].Reg, ops[1].Value
		if err := checkReg(d); err != nil {
			return nil, err
		}
		if err := checkUnsigned("I/O address", a, 6); err != nil {
			return nil, err
		}
		return word(ioOp(false, a, d))
	})
	add("out", []sig{sigImm, sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		a, r := ops[0].Value, ops[1].Reg
		if err := checkReg(r); err != nil {
			return nil, err
		}
		if err := checkUnsigned("I/O address", a, 6); err != nil {
			return nil, err
		}
		return word(ioOp(true, a, r))
	})

	bitOps := map[string]uint16{"sbi": 0x9A00, "cbi": 0x9800, "sbic": 0x9900, "sbis": 0x9B00}
	for name, base := range bitOps {
		base := base
		add(name, []sig{sigImm, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			a, b := ops[0].Value, ops[1].Value
			if err := checkUnsigned("I/O address", a, 5); err != nil {
				return nil, err
			}
			if err := checkUnsigned("bit", b, 3); err != nil {
				return nil, err
			}
			return word(ioBitOp(base, a, b))
		})
	}

	// SBRC/SBRS: Rd, bit (register-space bit-skip)
	regBitOps := map[string]uint16{"sbrc": 0xFC00, "sbrs": 0xFE00}
	for name, base := range regBitOps {
		base := base
		add(name, []sig{sigReg, sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d, b := ops[0].Reg, ops[1].Value
			if err := checkReg(d); err != nil {
				return nil, err
			}
			if err := checkUnsigned("bit", b, 3); err != nil {
				return nil, err
			}
			return word(base | uint16(d)<<4 | uint16(b))
		})
	}
}

//
// indirect load/store: LD, ST, LDD, STD, LDS, STS
//

func addIndirect() {
	type ptrForm struct {
		sig    sig
		ptr    byte
		isY    bool
		nibble uint16 // for the plain 0x90 family post-inc/pre-dec; 0 means "use ldStdOp with q=0"
		useQ0  bool
	}
	forms := []ptrForm{
		{sigIndX, 'X', false, 0xC, false},
		{sigIndXInc, 'X', false, 0xD, false},
		{sigIndXDec, 'X', false, 0xE, false},
		{sigIndY, 'Y', true, 0, true},
		{sigIndYInc, 'Y', true, 0x9, false},
		{sigIndYDec, 'Y', true, 0xA, false},
		{sigIndZ, 'Z', false, 0, true},
		{sigIndZInc, 'Z', false, 0x1, false},
		{sigIndZDec, 'Z', false, 0x2, false},
	}

	for _, f := range forms {
		f := f
		add("ld", []sig{sigReg, f.sig}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d := ops[0].Reg
			if err := checkReg(d); err != nil {
				return nil, err
			}
			if f.useQ0 {
				return word(ldStdOp(false, f.isY, d, 0))
			}
			return word(ldStIncDecOp(false, f.nibble, d))
		})
		add("st", []sig{f.sig, sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			r := ops[1].Reg
			if err := checkReg(r); err != nil {
				return nil, err
			}
			if f.useQ0 {
				return word(ldStdOp(true, f.isY, r, 0))
			}
			return word(ldStIncDecOp(true, f.nibble, r))
		})
	}

	// LDD/STD with an explicit displacement (Y+q / Z+q only; X has no
	// displacement form in the AVR ISA).
	for _, isY := range []bool{true, false} {
		isY := isY
		s := sigIndZDisp
		if isY {
			s = sigIndYDisp
		}
		add("ldd", []sig{sigReg, s}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			d, q := ops[0].Reg, ops[1].Disp
			if err := checkReg(d); err != nil {
				return nil, err
			}
			if err := checkUnsigned("displacement", q, 6); err != nil {
				return nil, err
			}
			return word(ldStdOp(false, isY, d, q))
		})
		add("std", []sig{s, sigReg}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			r, q := ops[1].Reg, ops[0].Disp
			if err := checkReg(r); err != nil {
				return nil, err
			}
			if err := checkUnsigned("displacement", q, 6); err != nil {
				return nil, err
			}
			return word(ldStdOp(true, isY, r, q))
		})
	}
}

//
// long-form (32-bit) absolute memory access: LDS, STS
//

func addLongImmediate() {
	add("lds", []sig{sigReg, sigImm}, 4, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		d, k := ops[0].Reg, ops[1].Value
		if err := checkReg(d); err != nil {
			return nil, err
		}
		if err := checkUnsigned("address", k, 16); err != nil {
			return nil, err
		}
		return []uint16{0x9000 | uint16(d)<<4, uint16(k)}, nil
	})
	add("sts", []sig{sigImm, sigReg}, 4, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		k, r := ops[0].Value, ops[1].Reg
		if err := checkReg(r); err != nil {
			return nil, err
		}
		if err := checkUnsigned("address", k, 16); err != nil {
			return nil, err
		}
		return []uint16{0x9200 | uint16(r)<<4, uint16(k)}, nil
	})
}

//
// PC-relative branches: BRxx (k7), RJMP/RCALL (k12)
//

func addBranch() {
	// sss index for each status flag, and whether the mnemonic branches
	// when the flag is set (sense bit 0) or clear (sense bit 1).
	type cond struct {
		name  string
		idx   int
		clear bool
	}
	conds := []cond{
		{"breq", 1, false}, {"brne", 1, true},
		{"brcs", 0, false}, {"brcc", 0, true},
		{"brlo", 0, false}, {"brsh", 0, true},
		{"brmi", 2, false}, {"brpl", 2, true},
		{"brvs", 3, false}, {"brvc", 3, true},
		{"brlt", 4, false}, {"brge", 4, true},
		{"brhs", 5, false}, {"brhc", 5, true},
		{"brts", 6, false}, {"brtc", 6, true},
		{"brie", 7, false}, {"brid", 7, true},
	}
	for _, c := range conds {
		c := c
		add(c.name, []sig{sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			k, err := pcRel(pc, ops[0].Value, 7)
			if err != nil {
				return nil, err
			}
			sense := uint16(0)
			if c.clear {
				sense = 1
			}
			return word(0xF000 | sense<<10 | uint16(k&0x7F)<<3 | uint16(c.idx))
		})
	}

	add("rjmp", []sig{sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		k, err := pcRel(pc, ops[0].Value, 12)
		if err != nil {
			return nil, err
		}
		return word(0xC000 | uint16(k&0xFFF))
	})
	add("rcall", []sig{sigImm}, 2, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
		k, err := pcRel(pc, ops[0].Value, 12)
		if err != nil {
			return nil, err
		}
		return word(0xD000 | uint16(k&0xFFF))
	})
}

//
// absolute 22-bit jumps/calls: JMP, CALL (32-bit)
//

func addJumpCall() {
	entries := map[string]uint16{"jmp": 0x940C, "call": 0x940E}
	for name, base := range entries {
		base := base
		add(name, []sig{sigImm}, 4, func(pc int, ops []ResolvedOperand) ([]uint16, error) {
			target := ops[0].Value
			if target < 0 || (target&1) != 0 {
				return nil, errRange("jump/call target 0x%x is not a valid word address", target)
			}
			k := target / 2
			if k > 0x3FFFFF {
				return nil, errRange("jump/call target word address 0x%x exceeds 22 bits", k)
			}
			k21 := uint16((k >> 21) & 1)
			k20_17 := uint16((k >> 17) & 0xF)
			k16 := uint16((k >> 16) & 1)
			word0 := base | k21<<8 | k20_17<<4 | k16
			word1 := uint16(k & 0xFFFF)
			return []uint16{word0, word1}, nil
		})
	}
}
