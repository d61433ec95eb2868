// Package formats reads and writes the files morphkit exchanges with other
// tools: sparse blend-shape delta records (BSDR), the JSON adjustment store
// and the morph track of MMD motion files (VMD).
//
// All binary formats are little-endian.
package formats
