/*
Package zarr reads and writes zarr v2 uint8 arrays and OME-NGFF multiscale
groups through a storage.ChunkStore.  Chunks are compressed with zstd and use
"/" as the dimension separator, so the chunk at grid index (1, 0, 2) of array
"0" is stored at key "0/1/0/2".
*/
package zarr

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultMaxChunk is the largest chunk extent along any axis.
	DefaultMaxChunk = 256

	// Uint8DType is the zarr dtype for unsigned bytes.
	Uint8DType = "|u1"
)

// Metadata is the zarr v2 .zarray document.
type Metadata struct {
	Chunks             []int             `json:"chunks"`
	Compressor         *CompressorConfig `json:"compressor"`
	DType              string            `json:"dtype"`
	FillValue          int               `json:"fill_value"`
	Filters            []json.RawMessage `json:"filters"`
	Order              string            `json:"order"`
	Shape              []int             `json:"shape"`
	ZarrFormat         int               `json:"zarr_format"`
	DimensionSeparator string            `json:"dimension_separator,omitempty"`
}

// CompressorConfig is a numcodecs compressor specification.
type CompressorConfig struct {
	ID    string `json:"id"`
	Level int    `json:"level,omitempty"`
}

// NewUint8Metadata returns metadata for a C-order uint8 array of the given
// shape with chunks of at most maxChunk along each axis.
func NewUint8Metadata(shape []int, maxChunk int) *Metadata {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	chunks := make([]int, len(shape))
	for i, extent := range shape {
		chunks[i] = min(max(extent, 1), maxChunk)
	}
	return &Metadata{
		Chunks:             chunks,
		Compressor:         &CompressorConfig{ID: "zstd", Level: DefaultZstdLevel},
		DType:              Uint8DType,
		Order:              "C",
		Shape:              append([]int(nil), shape...),
		ZarrFormat:         2,
		DimensionSeparator: "/",
	}
}

// ParseMetadata decodes and checks a .zarray document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bad .zarray: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the fields this package relies upon.
func (m *Metadata) Validate() error {
	if m.ZarrFormat != 2 {
		return fmt.Errorf("unsupported zarr_format %d", m.ZarrFormat)
	}
	if len(m.Shape) == 0 || len(m.Shape) != len(m.Chunks) {
		return fmt.Errorf("shape %v and chunks %v must have the same non-zero length", m.Shape, m.Chunks)
	}
	for i := range m.Shape {
		if m.Shape[i] < 0 || m.Chunks[i] <= 0 {
			return fmt.Errorf("bad shape %v or chunks %v", m.Shape, m.Chunks)
		}
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("only C order arrays are supported, not %q", m.Order)
	}
	return nil
}

// Separator returns the dimension separator, which defaults to ".".
func (m *Metadata) Separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// GridShape returns the number of chunks along each axis.
func (m *Metadata) GridShape() []int {
	grid := make([]int, len(m.Shape))
	for i := range m.Shape {
		grid[i] = (m.Shape[i] + m.Chunks[i] - 1) / m.Chunks[i]
	}
	return grid
}

// NumVoxels returns the product of the shape.
func (m *Metadata) NumVoxels() int {
	n := 1
	for _, extent := range m.Shape {
		n *= extent
	}
	return n
}

// ChunkKey returns the key of a chunk relative to the array.
func (m *Metadata) ChunkKey(index []int) string {
	sep := m.Separator()
	key := ""
	for i, v := range index {
		if i > 0 {
			key += sep
		}
		key += fmt.Sprintf("%d", v)
	}
	return key
}
