package hooktest

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/brahma-adshonor/overhook/hook"
)

const (
	stackBase = 0x7ffe_0000_0000
	stackSize = 0x10000

	nativeBase = 0x6000_0000_0000
	returnBase = 0x5000_0000_0000

	stepLimit = 1 << 20
)

// register numbers in encoding order
const (
	rax = iota
	rcx
	rdx
	rbx
	rsp
	rbp
	rsi
	rdi
	r8
	r9
)

type native struct {
	arity int
	fn    func(args ...uintptr) uintptr
}

// CPU interprets the integer subset of x86-64 that function prologues,
// patches and trampolines are made of. Calls follow the Windows x64
// convention. A CPU is not safe for concurrent use.
type CPU struct {
	mem *Arena

	regs [16]uint64
	rip  uint64

	zf, sf, cf, of bool

	natives map[uint64]native
	hits    map[uint64]int
	depth   int
}

var _ hook.Caller = (*CPU)(nil)

func NewCPU(mem *Arena) *CPU {
	mem.Map(stackBase, stackSize)
	c := &CPU{
		mem:     mem,
		natives: make(map[uint64]native),
		hits:    make(map[uint64]int),
	}
	c.regs[rsp] = stackBase + stackSize - 0x100
	return c
}

// Native registers a Go function reachable at the returned address. It
// receives the first arity arguments of the call.
func (c *CPU) Native(arity int, fn func(args ...uintptr) uintptr) uintptr {
	addr := uint64(nativeBase + 16*len(c.natives))
	c.natives[addr] = native{arity: arity, fn: fn}
	return uintptr(addr)
}

// Hits reports how many times the instruction at addr was executed.
func (c *CPU) Hits(addr uintptr) int {
	return c.hits[uint64(addr)]
}

// Call runs the code at addr until it returns and yields rax. Nested calls
// from native functions are allowed. Emulation faults panic.
func (c *CPU) Call(addr uintptr, args ...uintptr) uintptr {
	saved, savedRIP := c.regs, c.rip
	sentinel := uint64(returnBase + 16*c.depth)
	c.depth++
	defer func() { c.depth-- }()

	n := max(4, len(args))
	sp := (c.regs[rsp] - uint64(8*n)) &^ 15
	for i, a := range args {
		c.store(sp+uint64(8*i), 8, uint64(a))
	}
	sp -= 8
	c.store(sp, 8, sentinel)
	c.regs[rsp] = sp
	for i, r := range []int{rcx, rdx, r8, r9} {
		if i < len(args) {
			c.regs[r] = uint64(args[i])
		}
	}

	c.rip = uint64(addr)
	for steps := 0; c.rip != sentinel; steps++ {
		if steps > stepLimit {
			panic(fmt.Sprintf("hooktest: step limit reached at %#x", c.rip))
		}
		c.step()
	}
	ret := c.regs[rax]
	c.regs, c.rip = saved, savedRIP
	return uintptr(ret)
}

func (c *CPU) arg(i int) uintptr {
	switch i {
	case 0:
		return uintptr(c.regs[rcx])
	case 1:
		return uintptr(c.regs[rdx])
	case 2:
		return uintptr(c.regs[r8])
	case 3:
		return uintptr(c.regs[r9])
	}
	// return address, then shadow space
	return uintptr(c.load(c.regs[rsp]+8+uint64(8*i), 8))
}

func (c *CPU) callNative(n native) {
	args := make([]uintptr, n.arity)
	for i := range args {
		args[i] = c.arg(i)
	}
	saved := c.regs
	ret := n.fn(args...)
	c.regs = saved
	c.regs[rax] = uint64(ret)
	c.rip = c.pop()
}

func (c *CPU) fault(format string, args ...any) {
	panic(fmt.Sprintf("hooktest: %#x: ", c.rip) + fmt.Sprintf(format, args...))
}

func (c *CPU) load(addr uint64, size int) uint64 {
	b, err := c.mem.Read(uintptr(addr), size)
	if err != nil || len(b) < size {
		c.fault("read %d bytes at %#x", size, addr)
	}
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func (c *CPU) store(addr uint64, size int, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if err := c.mem.Write(uintptr(addr), buf[:size]); err != nil {
		c.fault("write %d bytes at %#x: %v", size, addr, err)
	}
}

func (c *CPU) push(v uint64) {
	c.regs[rsp] -= 8
	c.store(c.regs[rsp], 8, v)
}

func (c *CPU) pop() uint64 {
	v := c.load(c.regs[rsp], 8)
	c.regs[rsp] += 8
	return v
}

func regInfo(r x86asm.Reg) (idx, size int, ok bool) {
	switch {
	case r >= x86asm.RAX && r <= x86asm.R15:
		return int(r - x86asm.RAX), 8, true
	case r >= x86asm.EAX && r <= x86asm.R15L:
		return int(r - x86asm.EAX), 4, true
	case r >= x86asm.AX && r <= x86asm.R15W:
		return int(r - x86asm.AX), 2, true
	case r >= x86asm.AL && r <= x86asm.BL:
		return int(r - x86asm.AL), 1, true
	case r >= x86asm.SPB && r <= x86asm.R15B:
		return int(r-x86asm.SPB) + 4, 1, true
	}
	return 0, 0, false
}

func mask(size int) uint64 {
	if size == 8 {
		return ^uint64(0)
	}
	return 1<<(8*size) - 1
}

func (c *CPU) setReg(r x86asm.Reg, v uint64) {
	idx, size, ok := regInfo(r)
	if !ok {
		c.fault("unsupported register %s", r)
	}
	switch size {
	case 8:
		c.regs[idx] = v
	case 4:
		c.regs[idx] = v & mask(4)
	default:
		c.regs[idx] = c.regs[idx]&^mask(size) | v&mask(size)
	}
}

func (c *CPU) addr(m x86asm.Mem, next uint64) uint64 {
	if m.Segment != 0 {
		c.fault("segment override %s", m.Segment)
	}
	var a uint64
	switch {
	case m.Base == x86asm.RIP:
		a = next
	case m.Base != 0:
		idx, _, ok := regInfo(m.Base)
		if !ok {
			c.fault("unsupported base %s", m.Base)
		}
		a = c.regs[idx]
	}
	if m.Index != 0 {
		idx, _, ok := regInfo(m.Index)
		if !ok {
			c.fault("unsupported index %s", m.Index)
		}
		a += c.regs[idx] * uint64(m.Scale)
	}
	// x86asm zero-extends disp32; only a bare moffs keeps all 64 bits.
	disp := m.Disp
	if m.Base != 0 || m.Index != 0 {
		disp = int64(int32(disp))
	}
	return a + uint64(disp)
}

// size of the first operand, which decides the width of the operation
func opSize(inst x86asm.Inst) int {
	if r, ok := inst.Args[0].(x86asm.Reg); ok {
		if _, size, ok := regInfo(r); ok {
			return size
		}
	}
	if inst.MemBytes > 0 {
		return inst.MemBytes
	}
	return inst.DataSize / 8
}

func (c *CPU) read(arg x86asm.Arg, size int, next uint64) uint64 {
	switch a := arg.(type) {
	case x86asm.Reg:
		idx, _, ok := regInfo(a)
		if !ok {
			c.fault("unsupported register %s", a)
		}
		return c.regs[idx] & mask(size)
	case x86asm.Mem:
		return c.load(c.addr(a, next), size)
	case x86asm.Imm:
		return uint64(int64(a)) & mask(size)
	}
	c.fault("unsupported operand %v", arg)
	return 0
}

func (c *CPU) write(arg x86asm.Arg, size int, v uint64, next uint64) {
	switch a := arg.(type) {
	case x86asm.Reg:
		c.setReg(a, v)
	case x86asm.Mem:
		c.store(c.addr(a, next), size, v&mask(size))
	default:
		c.fault("unsupported destination %v", arg)
	}
}

func (c *CPU) flags(res uint64, size int) {
	res &= mask(size)
	c.zf = res == 0
	c.sf = res>>(8*size-1)&1 == 1
}

func (c *CPU) arith(op x86asm.Op, a, b uint64, size int) uint64 {
	m := mask(size)
	sign := uint(8*size - 1)
	var res uint64
	switch op {
	case x86asm.ADD:
		res = (a + b) & m
		c.cf = res < a&m
		c.of = (^(a^b)&(a^res))>>sign&1 == 1
	case x86asm.SUB, x86asm.CMP:
		res = (a - b) & m
		c.cf = a&m < b&m
		c.of = ((a^b)&(a^res))>>sign&1 == 1
	case x86asm.AND, x86asm.TEST:
		res, c.cf, c.of = a&b&m, false, false
	case x86asm.OR:
		res, c.cf, c.of = (a|b)&m, false, false
	case x86asm.XOR:
		res, c.cf, c.of = (a^b)&m, false, false
	}
	c.flags(res, size)
	return res
}

func (c *CPU) cond(op x86asm.Op) bool {
	switch op {
	case x86asm.JE:
		return c.zf
	case x86asm.JNE:
		return !c.zf
	case x86asm.JL:
		return c.sf != c.of
	case x86asm.JGE:
		return c.sf == c.of
	case x86asm.JLE:
		return c.zf || c.sf != c.of
	case x86asm.JG:
		return !c.zf && c.sf == c.of
	case x86asm.JB:
		return c.cf
	case x86asm.JAE:
		return !c.cf
	case x86asm.JBE:
		return c.cf || c.zf
	case x86asm.JA:
		return !c.cf && !c.zf
	}
	c.fault("unsupported condition %s", op)
	return false
}

func (c *CPU) target(arg x86asm.Arg, next uint64) uint64 {
	if rel, ok := arg.(x86asm.Rel); ok {
		return next + uint64(int64(rel))
	}
	return c.read(arg, 8, next)
}

func (c *CPU) step() {
	if n, ok := c.natives[c.rip]; ok {
		c.hits[c.rip]++
		c.callNative(n)
		return
	}
	code, err := c.mem.Read(uintptr(c.rip), 15)
	if err != nil || len(code) == 0 {
		c.fault("fetch: %v", err)
	}
	if code[0] == fill {
		c.fault("int3")
	}
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		c.fault("decode % x: %v", code[:min(len(code), 4)], err)
	}
	c.hits[c.rip]++
	next := c.rip + uint64(inst.Len)
	c.rip = next
	args := inst.Args

	switch inst.Op {
	case x86asm.NOP:
	case x86asm.PUSH:
		c.push(c.read(args[0], 8, next))
	case x86asm.POP:
		c.write(args[0], 8, c.pop(), next)
	case x86asm.MOV:
		size := opSize(inst)
		c.write(args[0], size, c.read(args[1], size, next), next)
	case x86asm.MOVSXD:
		v := int64(int32(c.read(args[1], 4, next)))
		c.write(args[0], 8, uint64(v), next)
	case x86asm.LEA:
		m, ok := args[1].(x86asm.Mem)
		if !ok {
			c.fault("lea without memory operand")
		}
		c.write(args[0], opSize(inst), c.addr(m, next), next)
	case x86asm.ADD, x86asm.SUB, x86asm.AND, x86asm.OR, x86asm.XOR:
		size := opSize(inst)
		res := c.arith(inst.Op, c.read(args[0], size, next), c.read(args[1], size, next), size)
		c.write(args[0], size, res, next)
	case x86asm.CMP, x86asm.TEST:
		size := opSize(inst)
		c.arith(inst.Op, c.read(args[0], size, next), c.read(args[1], size, next), size)
	case x86asm.INC, x86asm.DEC:
		size := opSize(inst)
		cf := c.cf
		op := x86asm.ADD
		if inst.Op == x86asm.DEC {
			op = x86asm.SUB
		}
		res := c.arith(op, c.read(args[0], size, next), 1, size)
		c.cf = cf
		c.write(args[0], size, res, next)
	case x86asm.IMUL:
		size := opSize(inst)
		a, b := args[0], args[1]
		if args[2] != nil {
			a, b = args[1], args[2]
		}
		res := c.read(a, size, next) * c.read(b, size, next)
		c.write(args[0], size, res, next)
	case x86asm.JMP:
		c.rip = c.target(args[0], next)
	case x86asm.CALL:
		to := c.target(args[0], next)
		c.push(next)
		c.rip = to
	case x86asm.RET:
		c.rip = c.pop()
		if imm, ok := args[0].(x86asm.Imm); ok {
			c.regs[rsp] += uint64(imm)
		}
	case x86asm.JE, x86asm.JNE, x86asm.JL, x86asm.JGE, x86asm.JLE, x86asm.JG,
		x86asm.JB, x86asm.JAE, x86asm.JBE, x86asm.JA:
		if c.cond(inst.Op) {
			c.rip = c.target(args[0], next)
		}
	default:
		c.fault("unsupported instruction %s", inst)
	}
}
