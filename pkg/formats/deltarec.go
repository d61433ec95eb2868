package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Delta record file errors.
var (
	ErrInvalidDeltaMagic       = errors.New("invalid delta record magic: expected 'BSDR'")
	ErrUnsupportedDeltaVersion = errors.New("unsupported delta record version")
	ErrTruncatedDeltaData      = errors.New("truncated delta record data")
	ErrCorruptDeltaData        = errors.New("corrupt delta record data")
)

// DeltaMagic is the four-byte signature of a delta record file.
const DeltaMagic = "BSDR"

// deltaHeaderSize is magic + version + record count + payload size.
const deltaHeaderSize = 4 + 2 + 4 + 4

// deltaEntrySize is one vertex index plus position, normal and tangent deltas.
const deltaEntrySize = 4 + 9*4

// DeltaVersion is the delta record file version.
type DeltaVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v DeltaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentDeltaVersion is written by WriteDeltaRecords.
var CurrentDeltaVersion = DeltaVersion{Major: 1, Minor: 0}

// DeltaRecord is one frame of one channel, stored sparsely. Only vertices
// with a non-zero position, normal or tangent delta are listed.
type DeltaRecord struct {
	Name       string
	FrameIndex int32
	Weight     float32
	Indices    []uint32
	Positions  [][3]float32
	Normals    [][3]float32
	Tangents   [][3]float32
}

// Len returns the number of listed vertices.
func (r *DeltaRecord) Len() int {
	return len(r.Indices)
}

// Validate checks that the parallel slices agree and indices are unique.
func (r *DeltaRecord) Validate() error {
	n := len(r.Indices)
	if len(r.Positions) != n || len(r.Normals) != n || len(r.Tangents) != n {
		return fmt.Errorf("%w: record %q frame %d has %d indices but %d/%d/%d deltas",
			ErrCorruptDeltaData, r.Name, r.FrameIndex, n, len(r.Positions), len(r.Normals), len(r.Tangents))
	}
	seen := make(map[uint32]struct{}, n)
	for _, idx := range r.Indices {
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: record %q frame %d lists vertex %d twice",
				ErrCorruptDeltaData, r.Name, r.FrameIndex, idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// ParseDeltaRecords parses a delta record file from raw bytes.
// Either every record parses or none is returned.
func ParseDeltaRecords(data []byte) ([]DeltaRecord, error) {
	if len(data) < deltaHeaderSize {
		return nil, ErrTruncatedDeltaData
	}
	if string(data[:4]) != DeltaMagic {
		return nil, ErrInvalidDeltaMagic
	}

	version := DeltaVersion{Major: data[4], Minor: data[5]}
	if version.Major != CurrentDeltaVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDeltaVersion, version)
	}

	count := binary.LittleEndian.Uint32(data[6:10])
	size := binary.LittleEndian.Uint32(data[10:14])

	zr, err := zlib.NewReader(bytes.NewReader(data[deltaHeaderSize:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDeltaData, err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: compressed payload", ErrTruncatedDeltaData)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptDeltaData, err)
	}
	if uint32(len(payload)) != size {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorruptDeltaData, len(payload), size)
	}

	r := bytes.NewReader(payload)
	records := make([]DeltaRecord, 0, min(int(count), len(payload)/(2+4+4+4)+1))
	for i := uint32(0); i < count; i++ {
		rec, err := readDeltaRecord(r)
		if err != nil {
			return nil, fmt.Errorf("parsing record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptDeltaData, r.Len())
	}

	return records, nil
}

// ParseDeltaRecordsFile parses a delta record file from disk.
func ParseDeltaRecordsFile(path string) ([]DeltaRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading delta record file: %w", err)
	}
	return ParseDeltaRecords(data)
}

func readDeltaRecord(r *bytes.Reader) (DeltaRecord, error) {
	var rec DeltaRecord

	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return rec, fmt.Errorf("%w: reading name length", ErrTruncatedDeltaData)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return rec, fmt.Errorf("%w: reading name", ErrTruncatedDeltaData)
	}
	rec.Name = string(name)

	if err := binary.Read(r, binary.LittleEndian, &rec.FrameIndex); err != nil {
		return rec, fmt.Errorf("%w: reading frame index", ErrTruncatedDeltaData)
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.Weight); err != nil {
		return rec, fmt.Errorf("%w: reading frame weight", ErrTruncatedDeltaData)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return rec, fmt.Errorf("%w: reading entry count", ErrTruncatedDeltaData)
	}
	if int64(count)*deltaEntrySize > int64(r.Len()) {
		return rec, fmt.Errorf("%w: %d entries need %d bytes, %d left",
			ErrTruncatedDeltaData, count, int64(count)*deltaEntrySize, r.Len())
	}

	rec.Indices = make([]uint32, count)
	rec.Positions = make([][3]float32, count)
	rec.Normals = make([][3]float32, count)
	rec.Tangents = make([][3]float32, count)
	for i := range rec.Indices {
		var entry struct {
			Index    uint32
			Position [3]float32
			Normal   [3]float32
			Tangent  [3]float32
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return rec, fmt.Errorf("%w: reading entry %d", ErrTruncatedDeltaData, i)
		}
		rec.Indices[i] = entry.Index
		rec.Positions[i] = entry.Position
		rec.Normals[i] = entry.Normal
		rec.Tangents[i] = entry.Tangent
	}

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

// WriteDeltaRecords encodes records to w.
func WriteDeltaRecords(w io.Writer, records []DeltaRecord) error {
	var payload []byte
	for i := range records {
		var err error
		if payload, err = appendDeltaRecord(payload, &records[i]); err != nil {
			return err
		}
	}

	var header [deltaHeaderSize]byte
	copy(header[:4], DeltaMagic)
	header[4] = CurrentDeltaVersion.Major
	header[5] = CurrentDeltaVersion.Minor
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(records)))
	binary.LittleEndian.PutUint32(header[10:14], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing delta header: %w", err)
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compressing delta payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing delta payload: %w", err)
	}
	return nil
}

// WriteDeltaRecordsFile writes records to path, replacing any existing file.
func WriteDeltaRecordsFile(path string, records []DeltaRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating delta record file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing delta record file: %w", cerr)
		}
	}()
	return WriteDeltaRecords(f, records)
}

func appendDeltaRecord(buf []byte, rec *DeltaRecord) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return buf, err
	}
	if len(rec.Name) > 0xFFFF {
		return buf, fmt.Errorf("%w: record name is %d bytes", ErrCorruptDeltaData, len(rec.Name))
	}

	le := binary.LittleEndian
	buf = le.AppendUint16(buf, uint16(len(rec.Name)))
	buf = append(buf, rec.Name...)
	buf = le.AppendUint32(buf, uint32(rec.FrameIndex))
	buf = le.AppendUint32(buf, math.Float32bits(rec.Weight))
	buf = le.AppendUint32(buf, uint32(len(rec.Indices)))
	for i, idx := range rec.Indices {
		buf = le.AppendUint32(buf, idx)
		buf = appendVec3(buf, rec.Positions[i])
		buf = appendVec3(buf, rec.Normals[i])
		buf = appendVec3(buf, rec.Tangents[i])
	}
	return buf, nil
}

func appendVec3(buf []byte, v [3]float32) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
