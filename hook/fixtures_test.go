package hook_test

import (
	"encoding/binary"
)

const arenaBase = 0x7ff6_0000_0000

var (
	// lea eax, [rcx+1]; ret
	addOneCode = []byte{0x8d, 0x41, 0x01, 0xc3}

	// eax = ecx*3 + edx + 7 behind a typical frame setup
	affineCode = []byte{
		0x48, 0x89, 0x5c, 0x24, 0x08, // mov [rsp+8], rbx
		0x57,                   // push rdi
		0x48, 0x83, 0xec, 0x20, // sub rsp, 0x20
		0x89, 0xc8, // mov eax, ecx
		0x6b, 0xc0, 0x03, // imul eax, eax, 3
		0x01, 0xd0, // add eax, edx
		0x83, 0xc0, 0x07, // add eax, 7
		0x48, 0x83, 0xc4, 0x20, // add rsp, 0x20
		0x5f, // pop rdi
		0xc3, // ret
	}

	// test ecx, ecx; je +3; lea eax, [rcx+1]; ret; xor eax, eax; ret
	branchyCode = []byte{0x85, 0xc9, 0x74, 0x03, 0x8d, 0x41, 0x01, 0xc3, 0x31, 0xc0, 0xc3}

	// mov eax, 42; ret
	fortyTwoCode = []byte{0xb8, 0x2a, 0x00, 0x00, 0x00, 0xc3}
)

// ripLoadCode returns `mov rax, [rip+disp]; add rax, rcx; ret` placed at at,
// loading the quadword stored at data.
func ripLoadCode(at, data uintptr) []byte {
	code := []byte{0x48, 0x8b, 0x05, 0, 0, 0, 0, 0x48, 0x01, 0xc8, 0xc3}
	binary.LittleEndian.PutUint32(code[3:], uint32(int32(int64(data)-int64(at+7))))
	return code
}
