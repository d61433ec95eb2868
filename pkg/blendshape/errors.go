package blendshape

import (
	"errors"
	"fmt"
)

// Blend-shape engine errors.
var (
	// ErrConfiguration reports a missing or invalid selection (no mesh, empty name, zero weight divisor).
	ErrConfiguration = errors.New("invalid configuration")
	// ErrVertexCountMismatch reports buffers or records that do not match the mesh topology.
	ErrVertexCountMismatch = errors.New("vertex count mismatch")
	// ErrUnknownChannel reports a channel name the mesh does not have.
	ErrUnknownChannel = errors.New("unknown blend-shape channel")
	// ErrInvalidFrame reports frames with bad weights or no frames at all.
	ErrInvalidFrame = errors.New("invalid blend-shape frame")
)

// VertexCountError carries the two vertex counts that failed to match.
type VertexCountError struct {
	Want int
	Got  int
}

func (e *VertexCountError) Error() string {
	return fmt.Sprintf("%v: want %d vertices, got %d", ErrVertexCountMismatch, e.Want, e.Got)
}

// Is lets errors.Is match ErrVertexCountMismatch.
func (e *VertexCountError) Is(target error) bool {
	return target == ErrVertexCountMismatch
}
