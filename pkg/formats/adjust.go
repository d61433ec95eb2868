package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrInvalidAdjustmentData reports a malformed adjustment store.
var ErrInvalidAdjustmentData = errors.New("invalid adjustment data")

// AdditionalKey is a secondary channel mixed into a saved shape.
type AdditionalKey struct {
	Name  string  `json:"name"`
	Value float32 `json:"value"`
}

// ShapeAdjustment is a saved primary channel value with its secondary keys.
type ShapeAdjustment struct {
	Name       string          `json:"name"`
	Value      float32         `json:"value"`
	Additional []AdditionalKey `json:"additional"`
}

// MeshAdjustments holds every saved shape of one mesh.
type MeshAdjustments struct {
	MeshID string            `json:"mesh_id"`
	Shapes []ShapeAdjustment `json:"shapes"`
}

// Shape returns the named shape, or nil.
func (m *MeshAdjustments) Shape(name string) *ShapeAdjustment {
	for i := range m.Shapes {
		if m.Shapes[i].Name == name {
			return &m.Shapes[i]
		}
	}
	return nil
}

// AdjustmentStore is the persisted set of adjustments keyed by mesh ID.
type AdjustmentStore struct {
	Items []MeshAdjustments `json:"items"`
}

// ParseAdjustments decodes an adjustment store from JSON.
func ParseAdjustments(data []byte) (*AdjustmentStore, error) {
	var s AdjustmentStore
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAdjustmentData, err)
	}
	for i, item := range s.Items {
		if item.MeshID == "" {
			return nil, fmt.Errorf("%w: item %d has no mesh_id", ErrInvalidAdjustmentData, i)
		}
	}
	return &s, nil
}

// LoadAdjustments reads a store from disk. A missing file yields an empty store.
func LoadAdjustments(path string) (*AdjustmentStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &AdjustmentStore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading adjustment file: %w", err)
	}
	return ParseAdjustments(data)
}

// Save writes the store as indented JSON, creating parent directories.
func (s *AdjustmentStore) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding adjustments: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating adjustment directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing adjustment file: %w", err)
	}
	return nil
}

// Find returns the adjustments of a mesh, or nil.
func (s *AdjustmentStore) Find(meshID string) *MeshAdjustments {
	for i := range s.Items {
		if s.Items[i].MeshID == meshID {
			return &s.Items[i]
		}
	}
	return nil
}

// Upsert stores shape under meshID. An existing shape of the same name is
// replaced, value and additional keys both.
func (s *AdjustmentStore) Upsert(meshID string, shape ShapeAdjustment) {
	item := s.Find(meshID)
	if item == nil {
		s.Items = append(s.Items, MeshAdjustments{MeshID: meshID})
		item = &s.Items[len(s.Items)-1]
	}
	if existing := item.Shape(shape.Name); existing != nil {
		*existing = shape
		return
	}
	item.Shapes = append(item.Shapes, shape)
}

// Remove deletes a saved shape. A mesh left with no shapes is dropped.
// It reports whether anything was removed.
func (s *AdjustmentStore) Remove(meshID, shapeName string) bool {
	for i := range s.Items {
		item := &s.Items[i]
		if item.MeshID != meshID {
			continue
		}
		for j := range item.Shapes {
			if item.Shapes[j].Name != shapeName {
				continue
			}
			item.Shapes = append(item.Shapes[:j], item.Shapes[j+1:]...)
			if len(item.Shapes) == 0 {
				s.Items = append(s.Items[:i], s.Items[i+1:]...)
			}
			return true
		}
	}
	return false
}
