package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/morphkit/pkg/encoding"
)

// VMD format errors.
var (
	ErrInvalidVMDMagic  = errors.New("invalid VMD magic: expected 'Vocaloid Motion Data'")
	ErrTruncatedVMDData = errors.New("truncated VMD data")
)

const (
	vmdMagicV2      = "Vocaloid Motion Data 0002"
	vmdMagicV1      = "Vocaloid Motion Data file"
	vmdMagicSize    = 30
	vmdBoneNameSize = 15
	vmdBoneKeySize  = vmdBoneNameSize + 4 + 12 + 16 + 64
	vmdMorphKeySize = vmdBoneNameSize + 4 + 4
)

// VMDMorphKey is one morph keyframe. Value is on the 0-1 scale.
type VMDMorphKey struct {
	Name  string
	Frame uint32
	Value float32
}

// VMD is the morph part of a motion file. Bone keys are counted and skipped.
type VMD struct {
	ModelName  string
	BoneKeys   uint32
	MorphKeys  []VMDMorphKey
	OldVersion bool // "file" header with a 10-byte model name
}

// ParseVMD parses a VMD motion from raw bytes.
func ParseVMD(data []byte) (*VMD, error) {
	if len(data) < vmdMagicSize {
		return nil, ErrTruncatedVMDData
	}

	vmd := &VMD{}
	magic := encoding.FixedStringToUTF8(data[:vmdMagicSize])
	nameSize := 20
	switch magic {
	case vmdMagicV2:
	case vmdMagicV1:
		vmd.OldVersion = true
		nameSize = 10
	default:
		return nil, ErrInvalidVMDMagic
	}

	r := bytes.NewReader(data[vmdMagicSize:])

	name := make([]byte, nameSize)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("%w: reading model name", ErrTruncatedVMDData)
	}
	vmd.ModelName = encoding.FixedStringToUTF8(name)

	if err := binary.Read(r, binary.LittleEndian, &vmd.BoneKeys); err != nil {
		return nil, fmt.Errorf("%w: reading bone key count", ErrTruncatedVMDData)
	}
	skip := int64(vmd.BoneKeys) * vmdBoneKeySize
	if skip > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d bone keys", ErrTruncatedVMDData, vmd.BoneKeys)
	}
	if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("skipping bone keys: %w", err)
	}

	// Motions with bone keys only end here.
	if r.Len() == 0 {
		return vmd, nil
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading morph key count", ErrTruncatedVMDData)
	}
	if int64(count)*vmdMorphKeySize > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d morph keys", ErrTruncatedVMDData, count)
	}

	vmd.MorphKeys = make([]VMDMorphKey, count)
	for i := range vmd.MorphKeys {
		var raw struct {
			Name  [vmdBoneNameSize]byte
			Frame uint32
			Value float32
		}
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("%w: reading morph key %d", ErrTruncatedVMDData, i)
		}
		vmd.MorphKeys[i] = VMDMorphKey{
			Name:  encoding.FixedStringToUTF8(raw.Name[:]),
			Frame: raw.Frame,
			Value: raw.Value,
		}
	}

	return vmd, nil
}

// ParseVMDFile parses a VMD file from disk.
func ParseVMDFile(path string) (*VMD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading VMD file: %w", err)
	}
	return ParseVMD(data)
}

// Clip converts the morph keys into a clip with one curve per morph.
// Values are scaled to 0-100 and time is measured in frames.
func (v *VMD) Clip(name string) *Clip {
	clip := &Clip{Name: name}
	index := make(map[string]int)
	for _, k := range v.MorphKeys {
		i, ok := index[k.Name]
		if !ok {
			i = len(clip.Curves)
			index[k.Name] = i
			clip.Curves = append(clip.Curves, Curve{Channel: k.Name})
		}
		clip.Curves[i].Keys = append(clip.Curves[i].Keys, CurveKey{Time: float32(k.Frame), Value: k.Value * 100})
		clip.Length = max(clip.Length, float32(k.Frame))
	}
	for i := range clip.Curves {
		clip.Curves[i].sortKeys()
	}
	return clip
}
