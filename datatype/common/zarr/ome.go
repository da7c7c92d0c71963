package zarr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kephale/copick-server/storage"
)

// OMEVersion is the OME-NGFF version of written multiscale groups.
const OMEVersion = "0.4"

// Axis is an OME-NGFF axis description.
type Axis struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

// Transform is an OME-NGFF coordinate transformation.
type Transform struct {
	Type  string    `json:"type"`
	Scale []float64 `json:"scale,omitempty"`
}

// Dataset is one scale level of a multiscale image.
type Dataset struct {
	Path                      string      `json:"path"`
	CoordinateTransformations []Transform `json:"coordinateTransformations"`
}

// Multiscale is one entry of the "multiscales" group attribute.
type Multiscale struct {
	Version  string    `json:"version"`
	Name     string    `json:"name,omitempty"`
	Axes     []Axis    `json:"axes"`
	Datasets []Dataset `json:"datasets"`
}

// GroupAttributes is the .zattrs document of a multiscale group.
type GroupAttributes struct {
	Multiscales []Multiscale `json:"multiscales"`
}

// SpatialAxes returns z, y, x (trailing axes of an n-dim array) in the unit.
func SpatialAxes(ndim int, unit string) ([]Axis, error) {
	names := []string{"z", "y", "x"}
	if ndim < 1 || ndim > len(names) {
		return nil, fmt.Errorf("can only describe 1 to 3 spatial axes, not %d", ndim)
	}
	axes := make([]Axis, ndim)
	for i, name := range names[len(names)-ndim:] {
		axes[i] = Axis{Name: name, Type: "space", Unit: unit}
	}
	return axes, nil
}

// WriteMultiscaleUint8 writes an OME-NGFF group with a single scale level "0"
// holding the uint8 array, scaled by voxelSize along every axis.
func WriteMultiscaleUint8(ctx context.Context, store storage.ChunkStore, name string, shape []int, data []byte, voxelSize float64) error {
	axes, err := SpatialAxes(len(shape), "angstrom")
	if err != nil {
		return err
	}
	scale := make([]float64, len(shape))
	for i := range scale {
		scale[i] = voxelSize
	}
	attrs := GroupAttributes{
		Multiscales: []Multiscale{{
			Version: OMEVersion,
			Name:    name,
			Axes:    axes,
			Datasets: []Dataset{{
				Path:                      "0",
				CoordinateTransformations: []Transform{{Type: "scale", Scale: scale}},
			}},
		}},
	}
	zattrs, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	if err := WriteUint8(ctx, store, "0", NewUint8Metadata(shape, DefaultMaxChunk), data); err != nil {
		return err
	}
	// group documents only after the level is complete
	if err := store.Put(ctx, ".zattrs", zattrs); err != nil {
		return err
	}
	return store.Put(ctx, ".zgroup", []byte(`{"zarr_format":2}`))
}

// ReadGroupAttributes returns the parsed .zattrs of a group.
func ReadGroupAttributes(ctx context.Context, store storage.ChunkStore) (*GroupAttributes, error) {
	data, err := store.Get(ctx, ".zattrs")
	if err != nil {
		return nil, err
	}
	var attrs GroupAttributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("bad .zattrs: %v", err)
	}
	return &attrs, nil
}
