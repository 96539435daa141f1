// Package dx9 renders the overlay through an IDirect3DDevice9 with the fixed
// function pipeline. Host state is captured in a state block around every
// frame.
package dx9
