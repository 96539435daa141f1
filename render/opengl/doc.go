// Package opengl renders the overlay with the fixed function pipeline of
// opengl32.dll in whatever context is current on the presenting thread.
// Host state is saved with the attribute stacks plus explicit queries for
// what those stacks do not cover.
package opengl
