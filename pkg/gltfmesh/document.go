// Package gltfmesh reads and writes blend-shape meshes in glTF 2.0 files.
//
// Each glTF mesh becomes one blendshape.Mesh. Primitives become submeshes;
// primitives that share a POSITION accessor share one vertex range. Morph
// targets become channels, named from extras.targetNames. A channel with
// several frames is stored as consecutive targets with the same name and
// their frame weights in extras.targetFrameWeights.
package gltfmesh

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// glTF adapter errors.
var (
	ErrMeshNotFound      = errors.New("mesh not found")
	ErrUnsupportedMesh   = errors.New("unsupported mesh layout")
	ErrTopologyChanged   = errors.New("mesh topology changed")
	ErrInvalidAttributes = errors.New("invalid vertex attributes")
)

// Extras keys used for channel metadata.
const (
	TargetNamesKey        = "targetNames"
	TargetFrameWeightsKey = "targetFrameWeights"
)

// Document is an open glTF file.
type Document struct {
	doc  *gltf.Document
	path string
	log  *zap.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for warnings about skipped data.
func WithLogger(log *zap.Logger) Option {
	return func(d *Document) {
		if log != nil {
			d.log = log
		}
	}
}

// Open reads a .gltf or .glb file.
func Open(path string, opts ...Option) (*Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF %s: %w", path, err)
	}
	return New(doc, path, opts...), nil
}

// New wraps an in-memory glTF document. path is used for mesh IDs.
func New(doc *gltf.Document, path string, opts ...Option) *Document {
	d := &Document{doc: doc, path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the path the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// GLTF returns the underlying glTF document.
func (d *Document) GLTF() *gltf.Document {
	return d.doc
}

// Meshes lists mesh names in document order. Unnamed meshes are called mesh_N.
func (d *Document) Meshes() []string {
	names := make([]string, len(d.doc.Meshes))
	for i := range d.doc.Meshes {
		names[i] = meshName(d.doc.Meshes[i], i)
	}
	return names
}

func meshName(m *gltf.Mesh, i int) string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("mesh_%d", i)
}

func (d *Document) find(name string) (int, *gltf.Mesh, error) {
	for i, m := range d.doc.Meshes {
		if meshName(m, i) == name {
			return i, m, nil
		}
	}
	return -1, nil, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
}

// MeshID returns the stable identifier of a mesh in this file.
func (d *Document) MeshID(name string) string {
	return MeshID(d.path, name)
}

// Save writes the document. Paths ending in .glb are written as binary glTF;
// anything else is written as JSON with embedded buffers.
func (d *Document) Save(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		if err := gltf.SaveBinary(d.doc, path); err != nil {
			return fmt.Errorf("saving GLB %s: %w", path, err)
		}
		return nil
	}
	// Embed every buffer so the file stands alone, then put the original
	// URIs back so a later .glb save still gets its BIN chunk.
	uris := make([]string, len(d.doc.Buffers))
	for i, b := range d.doc.Buffers {
		uris[i] = b.URI
		if !b.IsEmbeddedResource() {
			b.EmbeddedResource()
		}
	}
	defer func() {
		for i, b := range d.doc.Buffers {
			b.URI = uris[i]
		}
	}()
	if err := gltf.Save(d.doc, path); err != nil {
		return fmt.Errorf("saving glTF %s: %w", path, err)
	}
	return nil
}
