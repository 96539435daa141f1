package hook

import (
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modKernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetSystemInfo         = modKernel32.NewProc("GetSystemInfo")
	procOpenThread            = modKernel32.NewProc("OpenThread")
	procSuspendThread         = modKernel32.NewProc("SuspendThread")
	procResumeThread          = modKernel32.NewProc("ResumeThread")
	procFlushInstructionCache = modKernel32.NewProc("FlushInstructionCache")
)

type systemInfo struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

// nearSpan keeps every allocation reachable by rel32 from anywhere in the target page.
const nearSpan = 0x7fff0000

type nativeMemory struct {
	once sync.Once
	info systemInfo
}

// NativeMemory patches the memory of the running process.
func NativeMemory() Memory {
	return &nativeMemory{}
}

func (m *nativeMemory) sysInfo() *systemInfo {
	m.once.Do(func() {
		_, _, _ = procGetSystemInfo.Call(uintptr(unsafe.Pointer(&m.info)))
	})
	return &m.info
}

func (m *nativeMemory) Read(addr uintptr, n int) ([]byte, error) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
		return nil, errors.Wrapf(err, "VirtualQuery %#x", addr)
	}
	if mbi.State != windows.MEM_COMMIT {
		return nil, errors.WithMessagef(ErrOutOfRange, "%#x is not committed", addr)
	}
	if end := mbi.BaseAddress + mbi.RegionSize; addr+uintptr(n) > end {
		n = int(end - addr)
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return out, nil
}

func (m *nativeMemory) Write(addr uintptr, data []byte) error {
	var old uint32
	err := windows.VirtualProtect(addr, uintptr(len(data)), windows.PAGE_EXECUTE_READWRITE, &old)
	if err != nil {
		return errors.Wrapf(err, "VirtualProtect %#x", addr)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data)), data)
	err = windows.VirtualProtect(addr, uintptr(len(data)), old, &old)
	if err != nil {
		return errors.Wrapf(err, "VirtualProtect restore %#x", addr)
	}
	_, _, _ = syscall.SyscallN(procFlushInstructionCache.Addr(), uintptr(windows.CurrentProcess()), addr, uintptr(len(data)))
	return nil
}

// AllocNear walks outwards from addr one allocation granule at a time.
func (m *nativeMemory) AllocNear(addr uintptr, size int) (uintptr, error) {
	info := m.sysInfo()
	gran := uintptr(info.AllocationGranularity)
	if gran == 0 {
		gran = 0x10000
	}
	start := addr &^ (gran - 1)
	lo, hi := info.MinimumApplicationAddress, info.MaximumApplicationAddress
	if start > nearSpan && start-nearSpan > lo {
		lo = start - nearSpan
	}
	if start+nearSpan < hi {
		hi = start + nearSpan
	}
	const flags = windows.MEM_COMMIT | windows.MEM_RESERVE
	for off := gran; ; off += gran {
		up, down := start+off, start-off
		upOK, downOK := up+uintptr(size) < hi, off <= start && down > lo
		if !upOK && !downOK {
			break
		}
		if upOK {
			if p, _ := windows.VirtualAlloc(up, uintptr(size), flags, windows.PAGE_EXECUTE_READWRITE); p != 0 {
				return p, nil
			}
		}
		if downOK {
			if p, _ := windows.VirtualAlloc(down, uintptr(size), flags, windows.PAGE_EXECUTE_READWRITE); p != 0 {
				return p, nil
			}
		}
	}
	return 0, errors.WithMessagef(ErrNoNearMemory, "target %#x", addr)
}

func (m *nativeMemory) Alloc(size int) (uintptr, error) {
	p, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return 0, errors.Wrap(err, "VirtualAlloc")
	}
	return p, nil
}

func (m *nativeMemory) Free(addr uintptr) error {
	return errors.Wrapf(windows.VirtualFree(addr, 0, windows.MEM_RELEASE), "VirtualFree %#x", addr)
}

// Freeze suspends the other threads of the process so none of them executes
// a half written patch. Threads of the Go runtime are suspended too, so from
// the first SuspendThread until thaw returns the calling goroutine stays on
// its thread and nothing here allocates.
func (m *nativeMemory) Freeze() (func(), error) {
	for _, p := range []*windows.LazyProc{procOpenThread, procSuspendThread, procResumeThread, procFlushInstructionCache} {
		if err := p.Find(); err != nil {
			return nil, errors.Wrap(err, "freeze")
		}
	}
	ids, err := processThreads()
	if err != nil {
		return nil, err
	}
	openThread, suspend, resume := procOpenThread.Addr(), procSuspendThread.Addr(), procResumeThread.Addr()
	suspended := make([]windows.Handle, 0, len(ids))

	runtime.LockOSThread()
	self := windows.GetCurrentThreadId()
	for _, id := range ids {
		if id == self {
			continue
		}
		h, _, _ := syscall.SyscallN(openThread, windows.THREAD_SUSPEND_RESUME, 0, uintptr(id))
		if h == 0 {
			// the thread exited after the snapshot
			continue
		}
		if r, _, _ := syscall.SyscallN(suspend, h); r == 0xffffffff {
			_ = windows.CloseHandle(windows.Handle(h))
			continue
		}
		suspended = append(suspended, windows.Handle(h))
	}

	thaw := func() {
		for _, h := range suspended {
			_, _, _ = syscall.SyscallN(resume, uintptr(h))
		}
		runtime.UnlockOSThread()
		for _, h := range suspended {
			_ = windows.CloseHandle(h)
		}
	}
	return thaw, nil
}

// processThreads lists the thread ids of this process, the caller's included.
func processThreads() ([]uint32, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, errors.Wrap(err, "CreateToolhelp32Snapshot")
	}
	defer windows.CloseHandle(snap)

	pid := windows.GetCurrentProcessId()
	var ids []uint32
	entry := windows.ThreadEntry32{Size: uint32(unsafe.Sizeof(windows.ThreadEntry32{}))}
	for err = windows.Thread32First(snap, &entry); err == nil; err = windows.Thread32Next(snap, &entry) {
		if entry.OwnerProcessID == pid {
			ids = append(ids, entry.ThreadID)
		}
	}
	return ids, nil
}
