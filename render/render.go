// Package render draws ui.DrawData on top of a host's frame. Renderer holds
// the part shared by every graphics API; the native calls live behind Backend
// in the dx9, dx11, dx12 and opengl packages.
package render

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/ui"
)

var (
	ErrInsufficientDisplaySize = errors.New("insufficient display size")
	ErrClosed                  = errors.New("render engine closed")
	ErrDeviceLost              = errors.New("device lost")
)

// Engine is what the pipeline drives once per frame.
type Engine interface {
	SetupFonts(atlas *ui.FontAtlas) error
	Render(dd *ui.DrawData) error
	Resize(w, h uint32) error
	Present() error
	Close() error
}

// Rect is a scissor rectangle in framebuffer pixels.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// State is a backend's snapshot of the host's bound pipeline state.
type State any

// Backend is the native half of an engine.
type Backend interface {
	// BackupState captures everything SetupRenderState and the draws change.
	BackupState() (State, error)
	// RestoreState rebinds exactly what BackupState captured and releases
	// the references the snapshot holds.
	RestoreState(State) error

	SetupRenderState(dd *ui.DrawData) error
	Upload(dd *ui.DrawData) error
	SetScissor(r Rect) error
	SetTexture(id ui.TextureID) error
	// DrawIndexed draws count indices starting at firstIndex of the uploaded
	// index buffer, offset by baseVertex into the vertex buffer.
	DrawIndexed(count, firstIndex, baseVertex int) error

	CreateFontTexture(atlas *ui.FontAtlas) (ui.TextureID, error)
	Resize(w, h uint32) error
	Present() error
	Release() error
}

// Renderer implements Engine over a Backend.
type Renderer struct {
	mu      sync.Mutex
	backend Backend
	closed  bool
}

var _ Engine = (*Renderer)(nil)

func NewRenderer(b Backend) *Renderer {
	return &Renderer{backend: b}
}

func (r *Renderer) Backend() Backend { return r.backend }

func (r *Renderer) SetupFonts(atlas *ui.FontAtlas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	id, err := r.backend.CreateFontTexture(atlas)
	if err != nil {
		return errors.WithMessage(err, "create font texture")
	}
	atlas.TexID = id
	return nil
}

// Render draws dd between a backup and a restore of the host state. The
// restore runs even when a draw fails.
func (r *Renderer) Render(dd *ui.DrawData) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if dd == nil || !dd.Valid || dd.DisplaySize.X <= 0 || dd.DisplaySize.Y <= 0 {
		return ErrInsufficientDisplaySize
	}

	state, err := r.backend.BackupState()
	if err != nil {
		return errors.WithMessage(err, "backup state")
	}
	defer func() {
		if rerr := r.backend.RestoreState(state); rerr != nil && err == nil {
			err = errors.WithMessage(rerr, "restore state")
		}
	}()

	if dd.TotalVtxCount > 0 {
		if err := r.backend.Upload(dd); err != nil {
			return errors.WithMessage(err, "upload")
		}
	}
	if err := r.backend.SetupRenderState(dd); err != nil {
		return errors.WithMessage(err, "setup render state")
	}

	scale := dd.FramebufferScale
	if scale.X == 0 || scale.Y == 0 {
		scale = ui.Vec2{X: 1, Y: 1}
	}
	fb := ui.Vec2{X: dd.DisplaySize.X * scale.X, Y: dd.DisplaySize.Y * scale.Y}

	vtxBase, idxBase := 0, 0
	for _, list := range dd.Lists {
		for i := range list.CmdBuffer {
			cmd := &list.CmdBuffer[i]
			switch {
			case cmd.ResetRenderState:
				if err := r.backend.SetupRenderState(dd); err != nil {
					return errors.WithMessage(err, "reset render state")
				}
			case cmd.Callback != nil:
				cmd.Callback(list, cmd)
			default:
				clip, ok := project(cmd.ClipRect, dd.DisplayPos, scale, fb)
				if !ok || cmd.ElemCount == 0 {
					continue
				}
				if err := r.backend.SetScissor(clip); err != nil {
					return errors.WithMessage(err, "scissor")
				}
				if err := r.backend.SetTexture(cmd.TextureID); err != nil {
					return errors.WithMessage(err, "bind texture")
				}
				err := r.backend.DrawIndexed(int(cmd.ElemCount), idxBase+int(cmd.IdxOffset), vtxBase+int(cmd.VtxOffset))
				if err != nil {
					return errors.WithMessage(err, "draw")
				}
			}
		}
		vtxBase += len(list.VtxBuffer)
		idxBase += len(list.IdxBuffer)
	}
	return nil
}

// project maps a clip rect from display space into framebuffer pixels,
// clamped to the framebuffer. ok is false when nothing is left.
func project(c ui.Vec4, off, scale, fb ui.Vec2) (Rect, bool) {
	minX := math.Max(float64((c.X-off.X)*scale.X), 0)
	minY := math.Max(float64((c.Y-off.Y)*scale.Y), 0)
	maxX := math.Min(float64((c.Z-off.X)*scale.X), float64(fb.X))
	maxY := math.Min(float64((c.W-off.Y)*scale.Y), float64(fb.Y))
	if maxX <= minX || maxY <= minY {
		return Rect{}, false
	}
	return Rect{int32(minX), int32(minY), int32(maxX), int32(maxY)}, true
}

func (r *Renderer) Resize(w, h uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.backend.Resize(w, h)
}

func (r *Renderer) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.backend.Present()
}

// Close releases the backend. Later calls fail with ErrClosed.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.backend.Release()
}
