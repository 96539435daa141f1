package hook

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

type instruction struct {
	offset int
	inst   x86asm.Inst
}

// prologue is the run of whole instructions that a patch of a given size displaces.
type prologue struct {
	code  []byte
	insts []instruction
}

func (p *prologue) Len() int {
	return len(p.code)
}

func isLonePrefix(inst x86asm.Inst, b byte) bool {
	return inst.Opcode == 0 && inst.Len == 1 && inst.Prefix[0] == x86asm.Prefix(b)
}

func hasRel(inst x86asm.Inst) bool {
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if _, ok := arg.(x86asm.Rel); ok {
			return true
		}
	}
	return false
}

// ripRelative reports whether inst addresses memory relative to the next instruction.
func ripRelative(inst x86asm.Inst) bool {
	if inst.PCRel == 0 {
		return false
	}
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if m, ok := arg.(x86asm.Mem); ok && m.Base == x86asm.RIP {
			return true
		}
	}
	return false
}

func terminates(inst x86asm.Inst, b byte) bool {
	if b == opInt3 {
		return true
	}
	switch inst.Op {
	case x86asm.RET, x86asm.LRET, x86asm.IRET, x86asm.IRETD, x86asm.IRETQ, x86asm.UD2, x86asm.HLT:
		return true
	}
	return false
}

// analyze decodes whole instructions from code until at least least bytes are
// covered, rejecting anything that cannot be moved to another address.
func analyze(mode int, code []byte, least int) (*prologue, error) {
	p := &prologue{}
	off := 0
	for off < least {
		if off >= len(code) {
			return nil, errors.WithMessagef(ErrFunctionTooShort, "ran out of code at +%d", off)
		}
		d := code[off:]
		inst, err := x86asm.Decode(d, mode)
		if err != nil || isLonePrefix(inst, d[0]) {
			return nil, errors.WithMessagef(ErrUndecodable, "at +%d (% x)", off, d[:min(len(d), 4)])
		}
		if terminates(inst, d[0]) {
			return nil, errors.WithMessagef(ErrFunctionTooShort, "%s at +%d", inst.Op, off)
		}
		if hasRel(inst) {
			return nil, errors.WithMessagef(ErrRelativeBranch, "%s at +%d", inst.Op, off)
		}
		if inst.Op == x86asm.JMP && off+inst.Len < least {
			// an indirect jmp ends the function before the patch does
			return nil, errors.WithMessagef(ErrFunctionTooShort, "jmp at +%d", off)
		}
		p.insts = append(p.insts, instruction{offset: off, inst: inst})
		off += inst.Len
	}
	p.code = append([]byte(nil), code[:off]...)
	return p, nil
}

// relocate returns the prologue re-encoded to execute at to instead of from.
func (p *prologue) relocate(from, to uintptr) ([]byte, error) {
	out := append([]byte(nil), p.code...)
	for _, in := range p.insts {
		if !ripRelative(in.inst) {
			continue
		}
		if in.inst.PCRel != 4 {
			return nil, errors.WithMessagef(ErrRelocation, "%d byte displacement at +%d", in.inst.PCRel, in.offset)
		}
		pos := in.offset + in.inst.PCRelOff
		disp := int32(binary.LittleEndian.Uint32(out[pos:]))
		next := uintptr(in.offset + in.inst.Len)
		abs := uintptr(int64(from+next) + int64(disp))
		nd, ok := rel32(to+next, abs, 0)
		if !ok {
			return nil, errors.WithMessagef(ErrRelocation, "%s at +%d refers to %#x", in.inst.Op, in.offset, abs)
		}
		binary.LittleEndian.PutUint32(out[pos:], uint32(nd))
	}
	return out, nil
}
