//go:build !windows

package locator

func LocateDX9() (DX9Targets, error)       { return DX9Targets{}, ErrUnsupported }
func LocateDX11() (DXGITargets, error)     { return DXGITargets{}, ErrUnsupported }
func LocateDX12() (DX12Targets, error)     { return DX12Targets{}, ErrUnsupported }
func LocateOpenGL() (OpenGLTargets, error) { return OpenGLTargets{}, ErrUnsupported }
