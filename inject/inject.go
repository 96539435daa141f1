// Package inject loads an overlay DLL into a running process with
// CreateRemoteThread and LoadLibraryW.
package inject

import (
	"runtime"
	"strings"

	ps "github.com/mitchellh/go-ps"
	"github.com/pkg/errors"
	"github.com/saferwall/pe"
)

var (
	ErrProcessNotFound = errors.New("process not found")
	ErrNotDLL          = errors.New("not a DLL")
	ErrArchMismatch    = errors.New("architecture mismatch")
	ErrUnsupported     = errors.New("injection is only supported on windows")
	ErrTimeout         = errors.New("timed out waiting for LoadLibraryW")
	ErrLoadFailed      = errors.New("LoadLibraryW failed in the target")
)

const (
	machineI386  = 0x014c
	machineAMD64 = 0x8664
	machineARM64 = 0xaa64

	imageFileDLL = 0x2000
)

// nativeMachine is the PE machine the injector itself is built for. The DLL
// and the target must share it.
func nativeMachine() uint16 {
	switch runtime.GOARCH {
	case "386":
		return machineI386
	case "arm64":
		return machineARM64
	}
	return machineAMD64
}

func checkImage(machine, characteristics, want uint16) error {
	if characteristics&imageFileDLL == 0 {
		return ErrNotDLL
	}
	if machine != want {
		return errors.WithMessagef(ErrArchMismatch, "image machine %#04x, injector %#04x", machine, want)
	}
	return nil
}

// ValidateDLL checks that path is a DLL built for the injector's
// architecture.
func ValidateDLL(path string) error {
	f, err := pe.New(path, &pe.Options{})
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	if err := f.Parse(); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	h := f.NtHeader.FileHeader
	return errors.WithMessage(checkImage(uint16(h.Machine), uint16(h.Characteristics), nativeMachine()), path)
}

// FindProcess returns the pid of the first process whose executable is
// name. The comparison ignores case and a missing .exe suffix.
func FindProcess(name string) (int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, errors.Wrap(err, "list processes")
	}
	want := normalize(name)
	for _, p := range procs {
		if normalize(p.Executable()) == want {
			return p.Pid(), nil
		}
	}
	return 0, errors.WithMessagef(ErrProcessNotFound, "executable %q", name)
}

func normalize(exe string) string {
	return strings.TrimSuffix(strings.ToLower(exe), ".exe")
}
