package inject

import (
	"path/filepath"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
	procLoadLibraryW       = kernel32.NewProc("LoadLibraryW")
)

const access = windows.PROCESS_CREATE_THREAD | windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_WRITE | windows.PROCESS_VM_READ | windows.PROCESS_QUERY_INFORMATION

// FindWindowProcess returns the pid owning the top-level window titled
// title.
func FindWindowProcess(title string) (int, error) {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd := win.FindWindow(nil, t)
	if hwnd == 0 {
		return 0, errors.WithMessagef(ErrProcessNotFound, "window %q", title)
	}
	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)
	if pid == 0 {
		return 0, errors.WithMessagef(ErrProcessNotFound, "window %q has no process", title)
	}
	return int(pid), nil
}

// Inject makes pid load dll and waits up to timeout for LoadLibraryW to
// return. On a timeout the path buffer is left allocated in the target,
// which may still be reading it.
func Inject(pid int, dll string, timeout time.Duration) error {
	path, err := filepath.Abs(dll)
	if err != nil {
		return errors.Wrap(err, "dll path")
	}
	if err := ValidateDLL(path); err != nil {
		return err
	}
	if err := procLoadLibraryW.Find(); err != nil {
		return errors.Wrap(err, "LoadLibraryW")
	}

	proc, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return errors.Wrapf(err, "OpenProcess %d", pid)
	}
	defer windows.CloseHandle(proc)
	if err := sameBitness(proc); err != nil {
		return err
	}

	wide, err := windows.UTF16FromString(path)
	if err != nil {
		return err
	}
	size := uintptr(len(wide) * 2)
	remote, _, callErr := procVirtualAllocEx.Call(uintptr(proc), 0, size,
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if remote == 0 {
		return errors.Wrap(callErr, "VirtualAllocEx")
	}
	free := func() { procVirtualFreeEx.Call(uintptr(proc), remote, 0, windows.MEM_RELEASE) }

	if err := windows.WriteProcessMemory(proc, remote, (*byte)(unsafe.Pointer(&wide[0])), size, nil); err != nil {
		free()
		return errors.Wrap(err, "WriteProcessMemory")
	}

	thread, _, callErr := procCreateRemoteThread.Call(uintptr(proc), 0, 0, procLoadLibraryW.Addr(), remote, 0, 0)
	if thread == 0 {
		free()
		return errors.Wrap(callErr, "CreateRemoteThread")
	}
	th := windows.Handle(thread)
	defer windows.CloseHandle(th)

	ev, err := windows.WaitForSingleObject(th, uint32(timeout.Milliseconds()))
	if err != nil {
		return errors.Wrap(err, "WaitForSingleObject")
	}
	if ev != windows.WAIT_OBJECT_0 {
		return errors.WithMessagef(ErrTimeout, "after %s", timeout)
	}
	defer free()

	// The exit code is the low half of the module handle; zero is failure.
	var code uint32
	if ok, _, callErr := procGetExitCodeThread.Call(thread, uintptr(unsafe.Pointer(&code))); ok == 0 {
		return errors.Wrap(callErr, "GetExitCodeThread")
	}
	if code == 0 {
		return errors.WithMessagef(ErrLoadFailed, "%s", path)
	}
	return nil
}

// sameBitness rejects a WOW64 target from a 64 bit injector and the
// reverse; LoadLibraryW's address is only shared between equal bitness.
func sameBitness(proc windows.Handle) error {
	var target, self bool
	if err := windows.IsWow64Process(proc, &target); err != nil {
		return errors.Wrap(err, "IsWow64Process(target)")
	}
	if err := windows.IsWow64Process(windows.CurrentProcess(), &self); err != nil {
		return errors.Wrap(err, "IsWow64Process(self)")
	}
	if target != self {
		return errors.WithMessagef(ErrArchMismatch, "target wow64=%t, injector wow64=%t", target, self)
	}
	return nil
}
