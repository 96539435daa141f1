package hook

import (
	"encoding/binary"
	"math"
	"unsafe"
)

const (
	nearJumpSize  = 5
	farJumpSize32 = 6
	farJumpSize64 = 14

	// the longest legal x86 instruction
	maxInstLen = 15

	opNop  = 0x90
	opInt3 = 0xcc
)

// Arch selects the instruction encodings used for patches and trampolines.
type Arch struct {
	Mode int // 32 or 64
}

func nativeArch() Arch {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return Arch{Mode: 64}
	}
	return Arch{Mode: 32}
}

func (a Arch) FarJumpSize() int {
	if a.Mode == 32 {
		return farJumpSize32
	}
	return farJumpSize64
}

func rel32(from, to uintptr, instLen int) (int32, bool) {
	d := int64(to) - int64(from) - int64(instLen)
	if d < math.MinInt32 || d > math.MaxInt32 {
		return 0, false
	}
	return int32(d), true
}

// nearJump encodes `jmp rel32` placed at from, or reports that to is out of range.
func (a Arch) nearJump(from, to uintptr) ([]byte, bool) {
	var d uint32
	if a.Mode == 32 {
		// 32 bit displacements wrap around the address space
		d = uint32(to - from - nearJumpSize)
	} else {
		v, ok := rel32(from, to, nearJumpSize)
		if !ok {
			return nil, false
		}
		d = uint32(v)
	}
	code := make([]byte, nearJumpSize)
	code[0] = 0xe9
	binary.LittleEndian.PutUint32(code[1:], d)
	return code, true
}

// farJump encodes a position independent jump to an absolute address.
// No register is clobbered: the address is pushed and popped by ret.
func (a Arch) farJump(to uintptr) []byte {
	if a.Mode == 32 {
		return []byte{
			0x68, // push imm32
			byte(to), byte(to >> 8), byte(to >> 16), byte(to >> 24),
			0xc3, // ret
		}
	}
	v := uint64(to)
	return []byte{
		0x68, // push imm32, sign extended to 64 bit
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		0xc7, 0x44, 0x24, 0x04, // mov dword [rsp+4], imm32
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
		0xc3, // ret
	}
}

// jump picks the shortest encoding able to reach to from from.
func (a Arch) jump(from, to uintptr) []byte {
	if code, ok := a.nearJump(from, to); ok {
		return code
	}
	return a.farJump(to)
}

// pad fills code up to n bytes so no partial instruction stays behind the patch.
func pad(code []byte, n int) []byte {
	for len(code) < n {
		code = append(code, opNop)
	}
	return code
}
