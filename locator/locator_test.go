package locator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCallErrorNamesTheCall(t *testing.T) {
	assert.Equal(t, "D3D12CreateDevice failed (0x887A0004)",
		(&CallError{Call: "D3D12CreateDevice", Code: 0x887a0004}).Error())

	cause := errors.New("module not found")
	err := error(&CallError{Call: "Direct3DCreate9", Err: cause})
	assert.Equal(t, "Direct3DCreate9 failed: module not found", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := errors.WithMessage(&CallError{Call: "CreateWindowExW", Code: 5, Err: cause}, "locate dx11")
	var ce *CallError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "CreateWindowExW", ce.Call)
	assert.Equal(t, uint32(5), ce.Code)
}
