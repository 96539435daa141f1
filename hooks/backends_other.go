//go:build !windows

package hooks

import (
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/config"
	"github.com/brahma-adshonor/overhook/locator"
)

func moduleLoaded(string) bool { return false }

func byName(name string) (Backend, error) {
	switch name {
	case config.BackendDX9, config.BackendDX11, config.BackendDX12, config.BackendOpenGL:
		return nil, errors.WithMessage(locator.ErrUnsupported, name)
	}
	return nil, errors.WithMessagef(ErrUnknownBackend, "%q", name)
}
