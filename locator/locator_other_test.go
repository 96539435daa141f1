//go:build !windows

package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocateUnsupported(t *testing.T) {
	_, err := LocateDX9()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = LocateDX11()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = LocateDX12()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = LocateOpenGL()
	assert.ErrorIs(t, err, ErrUnsupported)
}
