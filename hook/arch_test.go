package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/arch/x86/x86asm"
)

func TestNearJump(t *testing.T) {
	a := Arch{Mode: 64}

	code, ok := a.nearJump(0x1000, 0x2000)
	assert.True(t, ok)
	assert.Equal(t, []byte{0xe9, 0xfb, 0x0f, 0x00, 0x00}, code)

	code, ok = a.nearJump(0x2000, 0x1000)
	assert.True(t, ok)
	assert.Equal(t, []byte{0xe9, 0xfb, 0xef, 0xff, 0xff}, code)

	_, ok = a.nearJump(0x1000, 0x1_0000_1000)
	assert.False(t, ok)
}

func TestNearJumpWrapsIn32BitMode(t *testing.T) {
	a := Arch{Mode: 32}
	code, ok := a.nearJump(0x10, 0xfffffff0)
	assert.True(t, ok)
	assert.Equal(t, []byte{0xe9, 0xdb, 0xff, 0xff, 0xff}, code)
}

func TestFarJump64(t *testing.T) {
	a := Arch{Mode: 64}
	code := a.jump(0x1000, 0x7ff6_1234_5678)
	assert.Len(t, code, farJumpSize64)

	var ops []x86asm.Op
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		assert.NoError(t, err)
		ops = append(ops, inst.Op)
		off += inst.Len
	}
	assert.Equal(t, []x86asm.Op{x86asm.PUSH, x86asm.MOV, x86asm.RET}, ops)
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, code[1:5])
	assert.Equal(t, []byte{0xf6, 0x7f, 0x00, 0x00}, code[9:13])
}

func TestFarJump32(t *testing.T) {
	a := Arch{Mode: 32}
	assert.Equal(t, []byte{0x68, 0x78, 0x56, 0x34, 0x12, 0xc3}, a.farJump(0x12345678))
	assert.Equal(t, farJumpSize32, a.FarJumpSize())
}

func TestPad(t *testing.T) {
	assert.Equal(t, []byte{0xe9, 0, 0, 0, 0, 0x90, 0x90}, pad([]byte{0xe9, 0, 0, 0, 0}, 7))
	assert.Len(t, pad([]byte{1, 2}, 1), 2)
}
