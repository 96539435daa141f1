//go:build amd64

package d3d

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestLayoutsMatchHeaders(t *testing.T) {
	for name, tc := range map[string]struct{ got, want uintptr }{
		"DXGI_SWAP_CHAIN_DESC":               {unsafe.Sizeof(SwapChainDesc{}), 72},
		"D3DPRESENT_PARAMETERS":              {unsafe.Sizeof(PresentParameters{}), 64},
		"D3DDEVICE_CREATION_PARAMETERS":      {unsafe.Sizeof(CreationParameters{}), 24},
		"D3D11_TEXTURE2D_DESC":               {unsafe.Sizeof(Texture2DDesc{}), 44},
		"D3D11_INPUT_ELEMENT_DESC":           {unsafe.Sizeof(InputElementDesc{}), 32},
		"D3D11_SHADER_RESOURCE_VIEW_DESC":    {unsafe.Sizeof(ShaderResourceViewDesc{}), 24},
		"D3D11_BLEND_DESC":                   {unsafe.Sizeof(BlendDesc{}), 264},
		"D3D11_RASTERIZER_DESC":              {unsafe.Sizeof(RasterizerDesc{}), 40},
		"D3D11_DEPTH_STENCIL_DESC":           {unsafe.Sizeof(DepthStencilDesc{}), 52},
		"D3D11_SAMPLER_DESC":                 {unsafe.Sizeof(SamplerDesc{}), 52},
		"D3D12_RESOURCE_DESC":                {unsafe.Sizeof(ResourceDesc{}), 56},
		"D3D12_RESOURCE_BARRIER":             {unsafe.Sizeof(ResourceBarrier{}), 32},
		"D3D12_TEXTURE_COPY_LOCATION":        {unsafe.Sizeof(TextureCopyLocation{}), 48},
		"D3D12_SHADER_RESOURCE_VIEW_DESC":    {unsafe.Sizeof(ShaderResourceViewDesc12{}), 40},
		"D3D12_ROOT_PARAMETER":               {unsafe.Sizeof(RootParameter{}), 32},
		"D3D12_STATIC_SAMPLER_DESC":          {unsafe.Sizeof(StaticSamplerDesc{}), 52},
		"D3D12_ROOT_SIGNATURE_DESC":          {unsafe.Sizeof(RootSignatureDesc{}), 40},
		"D3D12_GRAPHICS_PIPELINE_STATE_DESC": {unsafe.Sizeof(GraphicsPipelineStateDesc{}), 656},
	} {
		assert.Equal(t, tc.want, tc.got, name)
	}
}

func TestRootParameterUnion(t *testing.T) {
	p := RootConstants(0, 0, 16, ShaderVisibilityVertex)
	assert.Equal(t, uintptr(16), p.Pointer)
	assert.Equal(t, uintptr(8), unsafe.Offsetof(p.Value0))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(p.Pointer))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(p.ShaderVisibility))

	ranges := []DescriptorRange{{RangeType: DescriptorRangeSRV, NumDescriptors: 1}}
	table := DescriptorTable(ranges, ShaderVisibilityPixel)
	assert.Equal(t, uint32(1), table.Value0)
	assert.NotZero(t, table.Pointer)
}
