package hook

import (
	"reflect"

	"github.com/pkg/errors"
)

var ErrNotFunc = errors.New("not a function")

// FuncAddr returns the entry point of a Go function value.
func FuncAddr(fn any) (uintptr, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0, errors.WithMessagef(ErrNotFunc, "%T", fn)
	}
	return v.Pointer(), nil
}

// CreateFunc is Create for Go functions of the same signature. Go code calls
// through the Go ABI, so the detour is usually a Go function as well; the
// original is then reached through Hook.Trampoline.
func (r *Registry) CreateFunc(target, detour any) (*Hook, error) {
	tt, dt := reflect.TypeOf(target), reflect.TypeOf(detour)
	if tt != dt {
		return nil, errors.Errorf("signature mismatch: %v and %v", tt, dt)
	}
	t, err := FuncAddr(target)
	if err != nil {
		return nil, err
	}
	d, err := FuncAddr(detour)
	if err != nil {
		return nil, err
	}
	return r.Create(t, d)
}
