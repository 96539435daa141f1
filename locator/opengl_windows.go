package locator

import "golang.org/x/sys/windows"

var procWglSwapBuffers = windows.NewLazySystemDLL("opengl32.dll").NewProc("wglSwapBuffers")

// LocateOpenGL returns wglSwapBuffers of opengl32.dll, loading the module
// when the host has not.
func LocateOpenGL() (OpenGLTargets, error) {
	if err := procWglSwapBuffers.Find(); err != nil {
		return OpenGLTargets{}, &CallError{Call: "GetProcAddress(wglSwapBuffers)", Err: err}
	}
	return OpenGLTargets{SwapBuffers: procWglSwapBuffers.Addr()}, nil
}
