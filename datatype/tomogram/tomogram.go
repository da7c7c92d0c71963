/*
Package tomogram serves the chunks of a run's tomogram zarr arrays:

	GET  /{run}/Tomograms/VoxelSpacing{spacing}/{type}.zarr/{chunk key}
	HEAD /{run}/Tomograms/VoxelSpacing{spacing}/{type}.zarr/{chunk key}
	PUT  /{run}/Tomograms/VoxelSpacing{spacing}/{type}.zarr/{chunk key}

Chunk keys are passed through unchanged, so zarr metadata (".zarray", ".zattrs")
and chunks of any scale level ("0/1/2/3") are addressed the same way.  Tomograms
found only in the static root are read-only.
*/
package tomogram

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datatype"
	"github.com/kephale/copick-server/storage"
)

func init() {
	datatype.Register(Handler{})
}

// Handler is the datatype.Handler for tomograms.
type Handler struct{}

func (Handler) Kind() datatype.Kind {
	return datatype.Tomograms
}

// Serve reads or writes one tomogram chunk.
func (Handler) Serve(ctx context.Context, w http.ResponseWriter, req *datatype.Request) (map[string]interface{}, error) {
	parts := strings.SplitN(req.Path, "/", 3)
	if len(parts) < 2 {
		return nil, copick.InvalidPathf("tomogram path %q needs voxel spacing and tomogram", req.Path)
	}
	value, err := copick.ParseVoxelSpacingSegment(parts[0])
	if err != nil {
		return nil, copick.NotFoundf("no voxel spacing %q in %s: %v", parts[0], req.Run, err)
	}
	tomoType := strings.TrimSuffix(parts[1], ".zarr")
	spacing, found, err := req.Run.VoxelSpacing(ctx, value)
	if err != nil {
		return nil, copick.BackendErr(err, "voxel spacing lookup")
	}
	if !found {
		return nil, copick.NotFoundf("no voxel spacing %s in %s", copick.VoxelSpacingKey(value), req.Run)
	}
	tomo, found, err := spacing.Tomogram(ctx, tomoType)
	if err != nil {
		return nil, copick.BackendErr(err, "tomogram lookup")
	}
	if !found {
		return nil, copick.NotFoundf("no tomogram %q in %s", tomoType, spacing)
	}
	var key string
	if len(parts) == 3 {
		key = parts[2]
	}
	if err := copick.ValidKey(key); err != nil {
		return nil, err
	}

	activity := map[string]interface{}{
		"kind":          datatype.Tomograms.String(),
		"run":           req.Run.Name(),
		"voxel_spacing": copick.VoxelSpacingKey(spacing.Value()),
		"tomogram":      tomoType,
		"key":           key,
	}

	if req.IsWrite() {
		if tomo.ReadOnly() {
			return nil, copick.ReadOnlyf("%s is read-only", tomo)
		}
		data, err := req.ReadBody()
		if err != nil {
			return nil, err
		}
		if err := tomo.ChunkStore().Put(ctx, key, data); err != nil {
			return nil, copick.BackendErr(err, "unable to store chunk %q of %s", key, tomo)
		}
		copick.Debugf("Stored %s in chunk %q of %s\n", humanize.Bytes(uint64(len(data))), key, tomo)
		activity["action"] = "put"
		activity["bytes"] = len(data)
		w.WriteHeader(http.StatusOK)
		return activity, nil
	}

	data, err := tomo.ChunkStore().Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, copick.NotFoundf("no chunk %q in %s", key, tomo)
	}
	if err != nil {
		return nil, copick.BackendErr(err, "unable to read chunk %q of %s", key, tomo)
	}
	activity["action"] = strings.ToLower(req.Method)
	activity["bytes"] = len(data)
	return activity, datatype.WriteData(w, req, "application/octet-stream", data)
}
