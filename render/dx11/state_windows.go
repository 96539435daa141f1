package dx11

import (
	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/vtable"
)

const maxClassInstances = 256

type shaderBinding struct {
	shader    uintptr
	instances [maxClassInstances]uintptr
	count     uint32
}

func (s *shaderBinding) release() {
	vtable.Release(s.shader)
	for _, inst := range s.instances[:s.count] {
		vtable.Release(inst)
	}
}

// state is everything SetupRenderState and the draws overwrite.
type state struct {
	scissorCount, viewportCount uint32
	scissors                    [d3d.ViewportAndScissorMax]d3d.Rect
	viewports                   [d3d.ViewportAndScissorMax]d3d.Viewport

	raster      uintptr
	blend       uintptr
	blendFactor [4]float32
	sampleMask  uint32
	depth       uintptr
	stencilRef  uint32

	psSRV      uintptr
	psSampler  uintptr
	ps, vs, gs shaderBinding
	vsCB       uintptr

	topology uint32
	ib       uintptr
	ibFormat uint32
	ibOffset uint32
	vb       uintptr
	vbStride uint32
	vbOffset uint32
	layout   uintptr

	rtvs [d3d.SimultaneousRenderTargets]uintptr
	dsv  uintptr
}

func (b *Backend) BackupState() (render.State, error) {
	s := &state{
		scissorCount:  d3d.ViewportAndScissorMax,
		viewportCount: d3d.ViewportAndScissorMax,
	}
	s.ps.count, s.vs.count, s.gs.count = maxClassInstances, maxClassInstances, maxClassInstances

	b.context(d3d.Context11RSGetScissorRects, vtable.Ptr(&s.scissorCount), vtable.Ptr(&s.scissors))
	b.context(d3d.Context11RSGetViewports, vtable.Ptr(&s.viewportCount), vtable.Ptr(&s.viewports))
	b.context(d3d.Context11RSGetState, vtable.Ptr(&s.raster))
	b.context(d3d.Context11OMGetBlendState, vtable.Ptr(&s.blend), vtable.Ptr(&s.blendFactor), vtable.Ptr(&s.sampleMask))
	b.context(d3d.Context11OMGetDepthStencilState, vtable.Ptr(&s.depth), vtable.Ptr(&s.stencilRef))
	b.context(d3d.Context11PSGetShaderResources, 0, 1, vtable.Ptr(&s.psSRV))
	b.context(d3d.Context11PSGetSamplers, 0, 1, vtable.Ptr(&s.psSampler))
	b.context(d3d.Context11PSGetShader, vtable.Ptr(&s.ps.shader), vtable.Ptr(&s.ps.instances), vtable.Ptr(&s.ps.count))
	b.context(d3d.Context11VSGetShader, vtable.Ptr(&s.vs.shader), vtable.Ptr(&s.vs.instances), vtable.Ptr(&s.vs.count))
	b.context(d3d.Context11VSGetConstantBuffers, 0, 1, vtable.Ptr(&s.vsCB))
	b.context(d3d.Context11GSGetShader, vtable.Ptr(&s.gs.shader), vtable.Ptr(&s.gs.instances), vtable.Ptr(&s.gs.count))
	b.context(d3d.Context11IAGetPrimitiveTopology, vtable.Ptr(&s.topology))
	b.context(d3d.Context11IAGetIndexBuffer, vtable.Ptr(&s.ib), vtable.Ptr(&s.ibFormat), vtable.Ptr(&s.ibOffset))
	b.context(d3d.Context11IAGetVertexBuffers, 0, 1, vtable.Ptr(&s.vb), vtable.Ptr(&s.vbStride), vtable.Ptr(&s.vbOffset))
	b.context(d3d.Context11IAGetInputLayout, vtable.Ptr(&s.layout))
	b.context(d3d.Context11OMGetRenderTargets, d3d.SimultaneousRenderTargets, vtable.Ptr(&s.rtvs), vtable.Ptr(&s.dsv))
	return s, nil
}

// RestoreState rebinds the snapshot and drops the references the getters
// added.
func (b *Backend) RestoreState(st render.State) error {
	s, ok := st.(*state)
	if !ok || s == nil {
		return nil
	}
	b.context(d3d.Context11RSSetScissorRects, uintptr(s.scissorCount), vtable.Ptr(&s.scissors))
	b.context(d3d.Context11RSSetViewports, uintptr(s.viewportCount), vtable.Ptr(&s.viewports))
	b.context(d3d.Context11RSSetState, s.raster)
	b.context(d3d.Context11OMSetBlendState, s.blend, vtable.Ptr(&s.blendFactor), uintptr(s.sampleMask))
	b.context(d3d.Context11OMSetDepthStencilState, s.depth, uintptr(s.stencilRef))
	b.context(d3d.Context11PSSetShaderResources, 0, 1, vtable.Ptr(&s.psSRV))
	b.context(d3d.Context11PSSetSamplers, 0, 1, vtable.Ptr(&s.psSampler))
	b.context(d3d.Context11PSSetShader, s.ps.shader, vtable.Ptr(&s.ps.instances), uintptr(s.ps.count))
	b.context(d3d.Context11VSSetShader, s.vs.shader, vtable.Ptr(&s.vs.instances), uintptr(s.vs.count))
	b.context(d3d.Context11VSSetConstantBuffers, 0, 1, vtable.Ptr(&s.vsCB))
	b.context(d3d.Context11GSSetShader, s.gs.shader, vtable.Ptr(&s.gs.instances), uintptr(s.gs.count))
	b.context(d3d.Context11IASetPrimitiveTopology, uintptr(s.topology))
	b.context(d3d.Context11IASetIndexBuffer, s.ib, uintptr(s.ibFormat), uintptr(s.ibOffset))
	b.context(d3d.Context11IASetVertexBuffers, 0, 1, vtable.Ptr(&s.vb), vtable.Ptr(&s.vbStride), vtable.Ptr(&s.vbOffset))
	b.context(d3d.Context11IASetInputLayout, s.layout)
	b.context(d3d.Context11OMSetRenderTargets, d3d.SimultaneousRenderTargets, vtable.Ptr(&s.rtvs), s.dsv)

	for _, p := range []uintptr{s.raster, s.blend, s.depth, s.psSRV, s.psSampler, s.vsCB, s.ib, s.vb, s.layout, s.dsv} {
		vtable.Release(p)
	}
	for _, rtv := range s.rtvs {
		vtable.Release(rtv)
	}
	s.ps.release()
	s.vs.release()
	s.gs.release()
	return nil
}
