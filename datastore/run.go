package datastore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
)

// Run is one experiment run of a project.
type Run struct {
	root *Root
	name string
}

func (r *Run) Name() string {
	return r.name
}

func (r *Run) Root() *Root {
	return r.root
}

func (r *Run) String() string {
	return fmt.Sprintf("run %q", r.name)
}

// layerDir is a directory of an entity within one layer.
type layerDir struct {
	layer
	prefix string // ends in "/"
}

// VoxelSpacing is one sampling resolution of a run.  The same spacing may have
// directories in both roots.
type VoxelSpacing struct {
	run   *Run
	value float64
	dirs  []layerDir // overlay first
}

// Value returns the voxel spacing in angstroms.
func (vs *VoxelSpacing) Value() float64 {
	return vs.value
}

func (vs *VoxelSpacing) String() string {
	return fmt.Sprintf("%s voxel spacing %s", vs.run, copick.VoxelSpacingKey(vs.value))
}

// voxelSpacingDirs returns the voxel spacing directories of the run in each
// layer keyed by voxel spacing key.
func (r *Run) voxelSpacingDirs(ctx context.Context) (map[string][]layerDir, map[string]float64, error) {
	dirs := make(map[string][]layerDir)
	values := make(map[string]float64)
	for _, l := range r.root.layers() {
		prefix := runPrefix(r.name)
		children, err := l.store.List(ctx, prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to list %s in %s: %v", r, l.store, err)
		}
		for _, child := range children {
			if !strings.HasSuffix(child, "/") || !strings.HasPrefix(child, copick.VoxelSpacingPrefix) {
				continue
			}
			value, err := copick.ParseVoxelSpacingSegment(strings.TrimSuffix(child, "/"))
			if err != nil {
				copick.Debugf("Ignoring directory %q in %s: %v\n", child, r, err)
				continue
			}
			key := copick.VoxelSpacingKey(value)
			if _, found := values[key]; !found {
				values[key] = value
			}
			dirs[key] = append(dirs[key], layerDir{l, prefix + child})
		}
	}
	return dirs, values, nil
}

// VoxelSpacing returns the voxel spacing whose key matches value.
func (r *Run) VoxelSpacing(ctx context.Context, value float64) (*VoxelSpacing, bool, error) {
	dirs, values, err := r.voxelSpacingDirs(ctx)
	if err != nil {
		return nil, false, err
	}
	key := copick.VoxelSpacingKey(value)
	if len(dirs[key]) == 0 {
		return nil, false, nil
	}
	return &VoxelSpacing{run: r, value: values[key], dirs: dirs[key]}, true, nil
}

// VoxelSpacings returns all voxel spacings of the run in increasing order.
func (r *Run) VoxelSpacings(ctx context.Context) ([]*VoxelSpacing, error) {
	dirs, values, err := r.voxelSpacingDirs(ctx)
	if err != nil {
		return nil, err
	}
	spacings := make([]*VoxelSpacing, 0, len(dirs))
	for key, d := range dirs {
		spacings = append(spacings, &VoxelSpacing{run: r, value: values[key], dirs: d})
	}
	sort.Slice(spacings, func(i, j int) bool { return spacings[i].value < spacings[j].value })
	return spacings, nil
}

// Tomogram is a zarr array of reconstructed volume data at one voxel spacing.
type Tomogram struct {
	spacing  *VoxelSpacing
	tomoType string
	readOnly bool
	chunks   storage.ChunkStore
}

func (t *Tomogram) TomoType() string {
	return t.tomoType
}

// ReadOnly is true for tomograms found only in the static root.
func (t *Tomogram) ReadOnly() bool {
	return t.readOnly
}

// ChunkStore returns the store view rooted at the tomogram's zarr group.
func (t *Tomogram) ChunkStore() storage.ChunkStore {
	return t.chunks
}

func (t *Tomogram) String() string {
	return fmt.Sprintf("tomogram %q of %s", t.tomoType, t.spacing)
}

// Tomogram returns the tomogram of the given type, preferring the overlay.
func (vs *VoxelSpacing) Tomogram(ctx context.Context, tomoType string) (*Tomogram, bool, error) {
	if tomoType == "" || strings.Contains(tomoType, "/") {
		return nil, false, nil
	}
	for _, d := range vs.dirs {
		children, err := d.store.List(ctx, d.prefix)
		if err != nil {
			return nil, false, fmt.Errorf("unable to list %s in %s: %v", vs, d.store, err)
		}
		dirname := tomoType + zarrExt + "/"
		for _, child := range children {
			if child == dirname {
				return &Tomogram{
					spacing:  vs,
					tomoType: tomoType,
					readOnly: d.readOnly,
					chunks:   storage.Prefixed(d.store, d.prefix+dirname),
				}, true, nil
			}
		}
	}
	return nil, false, nil
}

// Tomograms returns the tomograms at this voxel spacing.  Overlay tomograms
// shadow static ones of the same type.
func (vs *VoxelSpacing) Tomograms(ctx context.Context) ([]*Tomogram, error) {
	seen := make(map[string]struct{})
	var tomos []*Tomogram
	for _, d := range vs.dirs {
		children, err := d.store.List(ctx, d.prefix)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if !strings.HasSuffix(child, zarrExt+"/") {
				continue
			}
			tomoType := strings.TrimSuffix(child, zarrExt+"/")
			if _, found := seen[tomoType]; found {
				continue
			}
			seen[tomoType] = struct{}{}
			tomos = append(tomos, &Tomogram{
				spacing:  vs,
				tomoType: tomoType,
				readOnly: d.readOnly,
				chunks:   storage.Prefixed(d.store, d.prefix+child),
			})
		}
	}
	return tomos, nil
}
