package dx12

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/render/internal/hlsl"
	"github.com/brahma-adshonor/overhook/ui"
	"github.com/brahma-adshonor/overhook/vtable"
)

const (
	vertexSize   = int(unsafe.Sizeof(ui.DrawVert{}))
	indexSize    = int(unsafe.Sizeof(ui.DrawIdx(0)))
	vertexGrowth = 5000
	indexGrowth  = 10000

	fenceTimeoutMs = 2000
)

// frame is what belongs to one back buffer. Its allocator and buffers may
// be reused once the queue has passed fenceValue.
type frame struct {
	allocator  uintptr
	backBuffer uintptr
	rtv        d3d.CPUDescriptorHandle
	fenceValue uint64

	vb, ib         uintptr
	vbSize, ibSize int
}

type Backend struct {
	swapChain uintptr // IDXGISwapChain3
	device    uintptr
	queue     uintptr
	format    uint32

	rtvHeap, srvHeap uintptr
	rtvStep, srvStep uint32
	nextSRV          uint32

	list       uintptr
	fence      uintptr
	fenceValue uint64
	event      windows.Handle

	rootSignature uintptr
	pso           uintptr

	frames   []frame
	current  *frame
	textures []uintptr
	font     ui.TextureID
}

var _ render.Backend = (*Backend)(nil)

// New builds an engine drawing into swapChain and submitting on queue, the
// direct command queue the swap chain was created with.
func New(swapChain, queue uintptr) (*render.Renderer, error) {
	b, err := NewBackend(swapChain, queue)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(b), nil
}

func NewBackend(swapChain, queue uintptr) (b *Backend, err error) {
	if swapChain == 0 || queue == 0 {
		return nil, vtable.ErrNilObject
	}
	b = &Backend{queue: queue}
	vtable.AddRef(queue)
	defer func() {
		if err != nil {
			_ = b.Release()
		}
	}()

	if b.swapChain, err = vtable.QueryInterface(swapChain, &d3d.IIDSwapChain3); err != nil {
		return nil, errors.WithMessage(err, "IDXGISwapChain3")
	}
	if _, err := vtable.Call(b.swapChain, d3d.SwapChainGetDevice, vtable.Ptr(&d3d.IIDD3D12Device), vtable.Ptr(&b.device)); err != nil {
		return nil, errors.WithMessage(err, "IDXGISwapChain::GetDevice")
	}
	var desc d3d.SwapChainDesc
	if _, err := vtable.Call(b.swapChain, d3d.SwapChainGetDesc, vtable.Ptr(&desc)); err != nil {
		return nil, errors.WithMessage(err, "IDXGISwapChain::GetDesc")
	}
	b.format = desc.BufferDesc.Format

	if err := b.createHeaps(); err != nil {
		return nil, err
	}
	if err := b.createSync(); err != nil {
		return nil, err
	}
	if err := b.createPipeline(); err != nil {
		return nil, err
	}
	if err := b.createRenderTargets(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) device12(index int, args ...uintptr) error {
	_, err := vtable.Call(b.device, index, args...)
	return err
}

func (b *Backend) record(index int, args ...uintptr) {
	_, _ = vtable.Invoke(b.list, index, args...)
}

func (b *Backend) createHeaps() error {
	rtv := d3d.DescriptorHeapDesc{Type: d3d.DescriptorHeapRTV, NumDescriptors: maxBackBuffers}
	if err := b.device12(d3d.Device12CreateDescriptorHeap, vtable.Ptr(&rtv), vtable.Ptr(&d3d.IIDDescriptorHeap), vtable.Ptr(&b.rtvHeap)); err != nil {
		return errors.WithMessage(err, "CreateDescriptorHeap(RTV)")
	}
	srv := d3d.DescriptorHeapDesc{
		Type:           d3d.DescriptorHeapCBVSRVUAV,
		NumDescriptors: srvHeapSize,
		Flags:          d3d.DescriptorHeapShaderVisible,
	}
	if err := b.device12(d3d.Device12CreateDescriptorHeap, vtable.Ptr(&srv), vtable.Ptr(&d3d.IIDDescriptorHeap), vtable.Ptr(&b.srvHeap)); err != nil {
		return errors.WithMessage(err, "CreateDescriptorHeap(SRV)")
	}
	step, _ := vtable.Invoke(b.device, d3d.Device12GetDescriptorHandleIncrementSize, d3d.DescriptorHeapRTV)
	b.rtvStep = uint32(step)
	step, _ = vtable.Invoke(b.device, d3d.Device12GetDescriptorHandleIncrementSize, d3d.DescriptorHeapCBVSRVUAV)
	b.srvStep = uint32(step)
	return nil
}

func (b *Backend) createSync() error {
	if err := b.device12(d3d.Device12CreateFence, 0, 0, vtable.Ptr(&d3d.IIDFence), vtable.Ptr(&b.fence)); err != nil {
		return errors.WithMessage(err, "CreateFence")
	}
	ev, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return errors.Wrap(err, "CreateEvent")
	}
	b.event = ev
	return nil
}

// createRenderTargets makes a view and an allocator for every back buffer
// the swap chain currently has.
func (b *Backend) createRenderTargets() error {
	var desc d3d.SwapChainDesc
	if _, err := vtable.Call(b.swapChain, d3d.SwapChainGetDesc, vtable.Ptr(&desc)); err != nil {
		return errors.WithMessage(err, "IDXGISwapChain::GetDesc")
	}
	n := int(desc.BufferCount)
	if n < 1 || n > maxBackBuffers {
		return errors.Errorf("swap chain has %d buffers", n)
	}
	for len(b.frames) < n {
		var f frame
		if err := b.device12(d3d.Device12CreateCommandAllocator, d3d.CommandListTypeDirect,
			vtable.Ptr(&d3d.IIDCommandAllocator), vtable.Ptr(&f.allocator)); err != nil {
			return errors.WithMessage(err, "CreateCommandAllocator")
		}
		b.frames = append(b.frames, f)
	}
	for i := n; i < len(b.frames); i++ {
		b.releaseFrame(&b.frames[i])
	}
	b.frames = b.frames[:n]

	if b.list == 0 {
		if err := b.device12(d3d.Device12CreateCommandList, 0, d3d.CommandListTypeDirect,
			b.frames[0].allocator, 0, vtable.Ptr(&d3d.IIDGraphicsCommandList), vtable.Ptr(&b.list)); err != nil {
			return errors.WithMessage(err, "CreateCommandList")
		}
		b.record(d3d.ListClose)
	}

	var start d3d.CPUDescriptorHandle
	vtable.Invoke(b.rtvHeap, d3d.HeapGetCPUDescriptorHandleForHeapStart, vtable.Ptr(&start))
	for i := range b.frames {
		f := &b.frames[i]
		if _, err := vtable.Call(b.swapChain, d3d.SwapChainGetBuffer, uintptr(i), vtable.Ptr(&d3d.IIDResource), vtable.Ptr(&f.backBuffer)); err != nil {
			return errors.WithMessagef(err, "IDXGISwapChain::GetBuffer(%d)", i)
		}
		f.rtv = d3d.CPUDescriptorHandle{Ptr: start.Ptr + uintptr(i)*uintptr(b.rtvStep)}
		vtable.Invoke(b.device, d3d.Device12CreateRenderTargetView, f.backBuffer, 0, f.rtv.Ptr)
	}
	return nil
}

func (b *Backend) createPipeline() error {
	ranges := []d3d.DescriptorRange{{RangeType: d3d.DescriptorRangeSRV, NumDescriptors: 1}}
	params := []d3d.RootParameter{
		d3d.RootConstants(0, 0, 16, d3d.ShaderVisibilityVertex),
		d3d.DescriptorTable(ranges, d3d.ShaderVisibilityPixel),
	}
	sampler := d3d.StaticSamplerDesc{
		Filter:           d3d.FilterMinMagMipLinear,
		AddressU:         d3d.AddressWrap,
		AddressV:         d3d.AddressWrap,
		AddressW:         d3d.AddressWrap,
		ComparisonFunc:   d3d.ComparisonAlways,
		BorderColor:      d3d.StaticBorderTransparentBlack,
		ShaderVisibility: d3d.ShaderVisibilityPixel,
	}
	desc := d3d.RootSignatureDesc{
		NumParameters:     uint32(len(params)),
		Parameters:        vtable.Ptr(&params[0]),
		NumStaticSamplers: 1,
		StaticSamplers:    vtable.Ptr(&sampler),
		Flags: d3d.RootSignatureAllowInputLayout | d3d.RootSignatureDenyHullShader |
			d3d.RootSignatureDenyDomainShader | d3d.RootSignatureDenyGeometryShader,
	}
	if err := d3d.ProcD3D12SerializeRootSignature.Find(); err != nil {
		return errors.Wrap(err, "d3d12.dll")
	}
	var blob, diag uintptr
	hr, _, _ := d3d.ProcD3D12SerializeRootSignature.Call(vtable.Ptr(&desc), d3d.RootSignatureVersion1, vtable.Ptr(&blob), vtable.Ptr(&diag))
	defer vtable.Release(diag)
	if int32(hr) < 0 {
		msg := strings.TrimRight(string(d3d.BlobBytes(diag)), "\x00\r\n")
		return errors.Errorf("D3D12SerializeRootSignature HRESULT 0x%08X: %s", uint32(hr), msg)
	}
	sig := d3d.BlobBytes(blob)
	vtable.Release(blob)
	if err := b.device12(d3d.Device12CreateRootSignature, 0, vtable.Ptr(&sig[0]), uintptr(len(sig)),
		vtable.Ptr(&d3d.IIDRootSignature), vtable.Ptr(&b.rootSignature)); err != nil {
		return errors.WithMessage(err, "CreateRootSignature")
	}

	vs, err := hlsl.Compile(hlsl.VertexShader, hlsl.TargetVertex)
	if err != nil {
		return err
	}
	ps, err := hlsl.Compile(hlsl.PixelShader, hlsl.TargetPixel)
	if err != nil {
		return err
	}
	layout := inputLayout()
	face := d3d.DepthStencilOpDesc{
		StencilFailOp:      d3d.StencilOpKeep,
		StencilDepthFailOp: d3d.StencilOpKeep,
		StencilPassOp:      d3d.StencilOpKeep,
		StencilFunc:        d3d.ComparisonAlways,
	}
	pso := d3d.GraphicsPipelineStateDesc{
		RootSignature: b.rootSignature,
		VS:            d3d.ShaderBytecode{Code: vtable.Ptr(&vs[0]), Size: uintptr(len(vs))},
		PS:            d3d.ShaderBytecode{Code: vtable.Ptr(&ps[0]), Size: uintptr(len(ps))},
		SampleMask:    0xffffffff,
		RasterizerState: d3d.RasterizerDesc12{
			FillMode:           d3d.Fill11Solid,
			CullMode:           d3d.Cull11None,
			DepthClipEnable:    1,
			ConservativeRaster: d3d.ConservativeRasterOff,
		},
		DepthStencilState: d3d.DepthStencilDesc{
			DepthWriteMask: d3d.DepthWriteMaskAll,
			DepthFunc:      d3d.ComparisonAlways,
			FrontFace:      face,
			BackFace:       face,
		},
		InputElementDescs:     vtable.Ptr(&layout[0]),
		NumInputElements:      uint32(len(layout)),
		PrimitiveTopologyType: d3d.PrimitiveTopologyTypeTriangle,
		NumRenderTargets:      1,
		SampleDesc:            d3d.SampleDesc{Count: 1},
	}
	pso.RTVFormats[0] = b.format
	pso.RenderTarget[0] = d3d.RenderTargetBlendDesc12{
		BlendEnable:           1,
		SrcBlend:              d3d.Blend11SrcAlpha,
		DestBlend:             d3d.Blend11InvSrcAlpha,
		BlendOp:               d3d.BlendOp11Add,
		SrcBlendAlpha:         d3d.Blend11One,
		DestBlendAlpha:        d3d.Blend11InvSrcAlpha,
		BlendOpAlpha:          d3d.BlendOp11Add,
		LogicOp:               d3d.LogicOpNoop,
		RenderTargetWriteMask: d3d.ColorWriteAll,
	}
	if err := b.device12(d3d.Device12CreateGraphicsPipelineState, vtable.Ptr(&pso),
		vtable.Ptr(&d3d.IIDPipelineState), vtable.Ptr(&b.pso)); err != nil {
		return errors.WithMessage(err, "CreateGraphicsPipelineState")
	}
	return nil
}

var (
	semPosition, _ = windows.BytePtrFromString("POSITION")
	semTexcoord, _ = windows.BytePtrFromString("TEXCOORD")
	semColor, _    = windows.BytePtrFromString("COLOR")
)

func inputLayout() []d3d.InputElementDesc {
	return []d3d.InputElementDesc{
		{SemanticName: semPosition, Format: d3d.FormatR32G32Float, AlignedByteOffset: 0},
		{SemanticName: semTexcoord, Format: d3d.FormatR32G32Float, AlignedByteOffset: 8},
		{SemanticName: semColor, Format: d3d.FormatR8G8B8A8UNorm, AlignedByteOffset: 16},
	}
}

// wait blocks until the queue has passed value.
func (b *Backend) wait(value uint64) error {
	done, _ := vtable.Invoke(b.fence, d3d.FenceGetCompletedValue)
	if uint64(done) >= value {
		return nil
	}
	if _, err := vtable.Call(b.fence, d3d.FenceSetEventOnCompletion, uintptr(value), uintptr(b.event)); err != nil {
		return errors.WithMessage(err, "ID3D12Fence::SetEventOnCompletion")
	}
	ev, err := windows.WaitForSingleObject(b.event, fenceTimeoutMs)
	if err != nil {
		return errors.Wrap(err, "wait for fence")
	}
	if ev != windows.WAIT_OBJECT_0 {
		return errors.WithMessagef(render.ErrDeviceLost, "fence %d not reached", value)
	}
	return nil
}

func (b *Backend) signal() (uint64, error) {
	b.fenceValue++
	if _, err := vtable.Call(b.queue, d3d.CommandQueueSignal, b.fence, uintptr(b.fenceValue)); err != nil {
		return 0, errors.WithMessage(err, "ID3D12CommandQueue::Signal")
	}
	return b.fenceValue, nil
}

func (b *Backend) waitIdle() error {
	if b.queue == 0 || b.fence == 0 {
		return nil
	}
	v, err := b.signal()
	if err != nil {
		return err
	}
	return b.wait(v)
}

func (b *Backend) submit() {
	b.record(d3d.ListClose)
	list := b.list
	vtable.Invoke(b.queue, d3d.CommandQueueExecuteCommandLists, 1, vtable.Ptr(&list))
}

func (b *Backend) transition(res uintptr, before, after uint32) {
	barrier := d3d.ResourceBarrier{
		Type:        d3d.BarrierTransition,
		Resource:    res,
		Subresource: d3d.BarrierAllSubresources,
		StateBefore: before,
		StateAfter:  after,
	}
	b.record(d3d.ListResourceBarrier, 1, vtable.Ptr(&barrier))
}

// BackupState opens the command list for the back buffer about to be
// presented, once the GPU is done with that buffer's previous frame.
func (b *Backend) BackupState() (render.State, error) {
	if len(b.frames) == 0 || b.frames[0].backBuffer == 0 {
		if err := b.createRenderTargets(); err != nil {
			return nil, err
		}
	}
	i, _ := vtable.Invoke(b.swapChain, d3d.SwapChainGetCurrentBackBufferIndex)
	if int(i) >= len(b.frames) {
		return nil, errors.Errorf("back buffer %d of %d", i, len(b.frames))
	}
	f := &b.frames[i]
	if err := b.wait(f.fenceValue); err != nil {
		return nil, err
	}
	if _, err := vtable.Call(f.allocator, d3d.CommandAllocatorReset); err != nil {
		return nil, errors.WithMessage(err, "ID3D12CommandAllocator::Reset")
	}
	if _, err := vtable.Call(b.list, d3d.ListReset, f.allocator, b.pso); err != nil {
		return nil, errors.WithMessage(err, "ID3D12GraphicsCommandList::Reset")
	}
	b.transition(f.backBuffer, d3d.StatePresent, d3d.StateRenderTarget)
	b.record(d3d.ListOMSetRenderTargets, 1, vtable.Ptr(&f.rtv), 0, 0)
	heap := b.srvHeap
	b.record(d3d.ListSetDescriptorHeaps, 1, vtable.Ptr(&heap))
	b.current = f
	return f, nil
}

// RestoreState hands the back buffer back for presentation and submits.
func (b *Backend) RestoreState(st render.State) error {
	f, ok := st.(*frame)
	if !ok || f == nil {
		return nil
	}
	b.transition(f.backBuffer, d3d.StateRenderTarget, d3d.StatePresent)
	b.submit()
	v, err := b.signal()
	if err != nil {
		return err
	}
	f.fenceValue = v
	b.current = nil
	return nil
}

func (b *Backend) ensureBuffer(buf *uintptr, size *int, need, growth, elem int) error {
	if *buf != 0 && *size >= need {
		return nil
	}
	vtable.Release(*buf)
	*buf = 0
	*size = need + growth
	return b.uploadBuffer(uint64(*size*elem), buf)
}

func (b *Backend) uploadBuffer(size uint64, out *uintptr) error {
	heap := d3d.HeapProperties{Type: d3d.HeapTypeUpload}
	desc := d3d.ResourceDesc{
		Dimension:        d3d.ResourceDimensionBuffer,
		Width:            size,
		Height:           1,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           d3d.FormatUnknown,
		SampleDesc:       d3d.SampleDesc{Count: 1},
		Layout:           d3d.TextureLayoutRowMajor,
	}
	return errors.WithMessage(b.device12(d3d.Device12CreateCommittedResource,
		vtable.Ptr(&heap), 0, vtable.Ptr(&desc), d3d.StateGenericRead, 0,
		vtable.Ptr(&d3d.IIDResource), vtable.Ptr(out)), "CreateCommittedResource(upload)")
}

func mapResource(res uintptr) (uintptr, error) {
	var none d3d.Range
	var p uintptr
	if _, err := vtable.Call(res, d3d.ResourceMap, 0, vtable.Ptr(&none), vtable.Ptr(&p)); err != nil {
		return 0, errors.WithMessage(err, "ID3D12Resource::Map")
	}
	return p, nil
}

func (b *Backend) Upload(dd *ui.DrawData) error {
	f := b.current
	if f == nil {
		return errors.New("upload outside a frame")
	}
	if err := b.ensureBuffer(&f.vb, &f.vbSize, dd.TotalVtxCount, vertexGrowth, vertexSize); err != nil {
		return err
	}
	if err := b.ensureBuffer(&f.ib, &f.ibSize, dd.TotalIdxCount, indexGrowth, indexSize); err != nil {
		return err
	}
	vp, err := mapResource(f.vb)
	if err != nil {
		return err
	}
	ip, err := mapResource(f.ib)
	if err != nil {
		vtable.Invoke(f.vb, d3d.ResourceUnmap, 0, 0)
		return err
	}
	vtx := unsafe.Slice((*ui.DrawVert)(unsafe.Pointer(vp)), f.vbSize)
	idx := unsafe.Slice((*ui.DrawIdx)(unsafe.Pointer(ip)), f.ibSize)
	for _, l := range dd.Lists {
		vtx = vtx[copy(vtx, l.VtxBuffer):]
		idx = idx[copy(idx, l.IdxBuffer):]
	}
	vtable.Invoke(f.vb, d3d.ResourceUnmap, 0, 0)
	vtable.Invoke(f.ib, d3d.ResourceUnmap, 0, 0)
	return nil
}

func gpuAddress(res uintptr) uint64 {
	a, _ := vtable.Invoke(res, d3d.ResourceGetGPUVirtualAddress)
	return uint64(a)
}

func (b *Backend) SetupRenderState(dd *ui.DrawData) error {
	f := b.current
	if f == nil {
		return errors.New("render state outside a frame")
	}
	scale := dd.FramebufferScale
	if scale.X == 0 || scale.Y == 0 {
		scale = ui.Vec2{X: 1, Y: 1}
	}
	vp := d3d.Viewport{Width: dd.DisplaySize.X * scale.X, Height: dd.DisplaySize.Y * scale.Y, MaxDepth: 1}
	b.record(d3d.ListRSSetViewports, 1, vtable.Ptr(&vp))

	if f.vb != 0 && f.ib != 0 {
		vbv := d3d.VertexBufferView{
			BufferLocation: gpuAddress(f.vb),
			SizeInBytes:    uint32(f.vbSize * vertexSize),
			StrideInBytes:  uint32(vertexSize),
		}
		ibv := d3d.IndexBufferView{
			BufferLocation: gpuAddress(f.ib),
			SizeInBytes:    uint32(f.ibSize * indexSize),
			Format:         d3d.FormatR16UInt,
		}
		b.record(d3d.ListIASetVertexBuffers, 0, 1, vtable.Ptr(&vbv))
		b.record(d3d.ListIASetIndexBuffer, vtable.Ptr(&ibv))
	}
	b.record(d3d.ListIASetPrimitiveTopology, d3d.TopologyTriangleList)
	b.record(d3d.ListSetPipelineState, b.pso)
	b.record(d3d.ListSetGraphicsRootSignature, b.rootSignature)
	mvp := render.Ortho(dd)
	b.record(d3d.ListSetGraphicsRoot32BitConstants, 0, 16, vtable.Ptr(&mvp[0]), 0)
	var factor [4]float32
	b.record(d3d.ListOMSetBlendFactor, vtable.Ptr(&factor))
	return nil
}

func (b *Backend) SetScissor(r render.Rect) error {
	rc := d3d.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
	b.record(d3d.ListRSSetScissorRects, 1, vtable.Ptr(&rc))
	return nil
}

// SetTexture binds a texture by the GPU descriptor handle its id holds. A
// zero id samples the font.
func (b *Backend) SetTexture(id ui.TextureID) error {
	if id == 0 {
		id = b.font
	}
	if id == 0 {
		return errors.New("no texture to bind")
	}
	b.record(d3d.ListSetGraphicsRootDescriptorTable, 1, uintptr(id))
	return nil
}

func (b *Backend) DrawIndexed(count, firstIndex, baseVertex int) error {
	b.record(d3d.ListDrawIndexedInstanced, uintptr(count), 1, uintptr(firstIndex), uintptr(int32(baseVertex)), 0)
	return nil
}

// CreateFontTexture copies the atlas into a default heap texture through an
// upload buffer and waits for the copy before returning.
func (b *Backend) CreateFontTexture(atlas *ui.FontAtlas) (ui.TextureID, error) {
	if b.nextSRV >= srvHeapSize {
		return 0, errors.New("texture descriptor heap is full")
	}
	heap := d3d.HeapProperties{Type: d3d.HeapTypeDefault}
	desc := d3d.ResourceDesc{
		Dimension:        d3d.ResourceDimensionTexture2D,
		Width:            uint64(atlas.Width),
		Height:           uint32(atlas.Height),
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           d3d.FormatR8G8B8A8UNorm,
		SampleDesc:       d3d.SampleDesc{Count: 1},
		Layout:           d3d.TextureLayoutUnknown,
	}
	var tex uintptr
	if err := b.device12(d3d.Device12CreateCommittedResource,
		vtable.Ptr(&heap), 0, vtable.Ptr(&desc), d3d.StateCopyDest, 0,
		vtable.Ptr(&d3d.IIDResource), vtable.Ptr(&tex)); err != nil {
		return 0, errors.WithMessage(err, "CreateCommittedResource(font)")
	}

	row := uint32(atlas.Width * 4)
	pitch := alignUp(row, d3d.TextureDataPitchAlignment)
	var upload uintptr
	if err := b.uploadBuffer(uint64(pitch)*uint64(atlas.Height), &upload); err != nil {
		vtable.Release(tex)
		return 0, err
	}
	defer vtable.Release(upload)
	p, err := mapResource(upload)
	if err != nil {
		vtable.Release(tex)
		return 0, err
	}
	for y := 0; y < atlas.Height; y++ {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(p+uintptr(uint32(y)*pitch))), row)
		copy(dst, atlas.Pixels[y*int(row):(y+1)*int(row)])
	}
	vtable.Invoke(upload, d3d.ResourceUnmap, 0, 0)

	if err := b.copyTexture(tex, upload, atlas, pitch); err != nil {
		vtable.Release(tex)
		return 0, err
	}

	var cpu d3d.CPUDescriptorHandle
	var gpu d3d.GPUDescriptorHandle
	vtable.Invoke(b.srvHeap, d3d.HeapGetCPUDescriptorHandleForHeapStart, vtable.Ptr(&cpu))
	vtable.Invoke(b.srvHeap, d3d.HeapGetGPUDescriptorHandleForHeapStart, vtable.Ptr(&gpu))
	cpu.Ptr += uintptr(b.nextSRV * b.srvStep)
	gpu.Ptr += uint64(b.nextSRV * b.srvStep)
	b.nextSRV++
	view := d3d.ShaderResourceViewDesc12{
		Format:                  d3d.FormatR8G8B8A8UNorm,
		ViewDimension:           d3d.SRVDimension12Texture2D,
		Shader4ComponentMapping: d3d.DefaultShader4ComponentMapping,
		MipLevels:               1,
	}
	vtable.Invoke(b.device, d3d.Device12CreateShaderResourceView, tex, vtable.Ptr(&view), cpu.Ptr)

	b.textures = append(b.textures, tex)
	b.font = ui.TextureID(gpu.Ptr)
	return b.font, nil
}

func (b *Backend) copyTexture(tex, upload uintptr, atlas *ui.FontAtlas, pitch uint32) error {
	if err := b.waitIdle(); err != nil {
		return err
	}
	alloc := b.frames[0].allocator
	if _, err := vtable.Call(alloc, d3d.CommandAllocatorReset); err != nil {
		return errors.WithMessage(err, "ID3D12CommandAllocator::Reset")
	}
	if _, err := vtable.Call(b.list, d3d.ListReset, alloc, 0); err != nil {
		return errors.WithMessage(err, "ID3D12GraphicsCommandList::Reset")
	}
	src := d3d.TextureCopyLocation{
		Resource: upload,
		Type:     d3d.CopyLocationPlacedFootprint,
		Footprint: d3d.SubresourceFootprint{
			Format:   d3d.FormatR8G8B8A8UNorm,
			Width:    uint32(atlas.Width),
			Height:   uint32(atlas.Height),
			Depth:    1,
			RowPitch: pitch,
		},
	}
	dst := d3d.TextureCopyLocation{Resource: tex, Type: d3d.CopyLocationSubresourceIndex}
	b.record(d3d.ListCopyTextureRegion, vtable.Ptr(&dst), 0, 0, 0, vtable.Ptr(&src), 0)
	b.transition(tex, d3d.StateCopyDest, d3d.StatePixelShaderResource)
	b.submit()
	return b.waitIdle()
}

// Resize lets go of the back buffers so ResizeBuffers can succeed. They are
// fetched again at the start of the next frame.
func (b *Backend) Resize(w, h uint32) error {
	err := b.waitIdle()
	for i := range b.frames {
		vtable.Release(b.frames[i].backBuffer)
		b.frames[i].backBuffer = 0
	}
	return err
}

func (b *Backend) Present() error {
	_, err := vtable.Call(b.swapChain, d3d.SwapChainPresent, 1, 0)
	return errors.WithMessage(err, "IDXGISwapChain::Present")
}

func (b *Backend) releaseFrame(f *frame) {
	for _, p := range []*uintptr{&f.backBuffer, &f.vb, &f.ib, &f.allocator} {
		vtable.Release(*p)
		*p = 0
	}
}

func (b *Backend) Release() error {
	err := b.waitIdle()
	for i := range b.frames {
		b.releaseFrame(&b.frames[i])
	}
	b.frames = nil
	for _, t := range b.textures {
		vtable.Release(t)
	}
	b.textures = nil
	for _, p := range []*uintptr{&b.pso, &b.rootSignature, &b.list, &b.fence, &b.srvHeap, &b.rtvHeap, &b.device, &b.swapChain, &b.queue} {
		vtable.Release(*p)
		*p = 0
	}
	if b.event != 0 {
		windows.CloseHandle(b.event)
		b.event = 0
	}
	return err
}
