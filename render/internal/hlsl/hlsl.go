// Package hlsl holds the overlay shaders shared by the Direct3D 11 and 12
// engines and compiles them at run time.
package hlsl

// VertexShader transforms display space positions by the projection held in
// register b0, either a constant buffer or root constants.
const VertexShader = `
cbuffer vertexBuffer : register(b0)
{
	float4x4 ProjectionMatrix;
};
struct VS_INPUT
{
	float2 pos : POSITION;
	float4 col : COLOR0;
	float2 uv  : TEXCOORD0;
};
struct PS_INPUT
{
	float4 pos : SV_POSITION;
	float4 col : COLOR0;
	float2 uv  : TEXCOORD0;
};
PS_INPUT main(VS_INPUT input)
{
	PS_INPUT output;
	output.pos = mul(ProjectionMatrix, float4(input.pos.xy, 0.f, 1.f));
	output.col = input.col;
	output.uv  = input.uv;
	return output;
}
`

const PixelShader = `
struct PS_INPUT
{
	float4 pos : SV_POSITION;
	float4 col : COLOR0;
	float2 uv  : TEXCOORD0;
};
sampler sampler0 : register(s0);
Texture2D texture0 : register(t0);
float4 main(PS_INPUT input) : SV_Target
{
	return input.col * texture0.Sample(sampler0, input.uv);
}
`

// Shader model targets accepted by both engines.
const (
	TargetVertex = "vs_5_0"
	TargetPixel  = "ps_5_0"
)
