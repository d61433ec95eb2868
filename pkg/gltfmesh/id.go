package gltfmesh

import (
	"path/filepath"

	"github.com/google/uuid"
)

// meshNamespace scopes mesh identifiers so they never collide with other
// name-based UUIDs.
var meshNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("morphkit:mesh"))

// MeshID returns a stable identifier for the named mesh in the file at path.
// The same file and mesh name always yield the same ID.
func MeshID(path, meshName string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(meshNamespace, []byte(filepath.ToSlash(path)+"#"+meshName)).String()
}
