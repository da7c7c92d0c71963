/*
Package segmentation serves per-voxel label volumes of a run:

	GET  /{run}/Segmentations/{voxelSize}_{user}_{session}_{name}[-multilabel].zarr/{chunk key}
	HEAD /{run}/Segmentations/{voxelSize}_{user}_{session}_{name}[-multilabel].zarr/{chunk key}
	PUT  /{run}/Segmentations/{voxelSize}_{user}_{session}_{name}[-multilabel].zarr

Reads return stored zarr chunks and metadata as is.  A PUT body is one whole
volume in the binary frame format: three little-endian int64 extents followed
by the row-major uint8 labels.  The volume replaces any segmentation of the same
identity in the overlay root.  Chunk key segments after the file name are
ignored on PUT.
*/
package segmentation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype"
	"github.com/kephale/copick-server/storage"
)

func init() {
	datatype.Register(NewHandler())
}

// Handler is the datatype.Handler for segmentations.
type Handler struct {
	// Write persists volumes received by PUT.
	Write WriterFunc
}

// NewHandler returns a Handler that writes with WriteSegmentation.
func NewHandler() *Handler {
	return &Handler{Write: WriteSegmentation}
}

func (h *Handler) Kind() datatype.Kind {
	return datatype.Segmentations
}

// identity is the segmentation addressed by a request path.
type identity struct {
	voxelSize  float64
	user       string
	session    string
	name       string
	multilabel bool
}

// parseIdentity parses "{voxelSize}_{user}_{session}_{name}[-multilabel].zarr".
// Fields after the session are joined to form the name.
func parseIdentity(filename string) (id identity, err error) {
	fields := strings.Split(strings.TrimSuffix(filename, ".zarr"), "_")
	if len(fields) < 4 {
		return id, copick.InvalidPathf("segmentation name %q needs {voxelSize}_{user}_{session}_{name}", filename)
	}
	if id.voxelSize, err = copick.ParseVoxelSpacing(fields[0]); err != nil {
		return id, copick.NotFoundf("no segmentation %q: %v", filename, err)
	}
	id.user, id.session = fields[1], fields[2]
	raw := strings.Join(fields[3:], "_")
	id.multilabel = strings.Contains(raw, "multilabel")
	id.name = strings.ReplaceAll(raw, "-multilabel", "")
	if id.user == "" || id.session == "" || id.name == "" {
		return id, copick.InvalidPathf("segmentation name %q has an empty field", filename)
	}
	return id, nil
}

// Serve writes a whole segmentation or reads one of its chunks.
func (h *Handler) Serve(ctx context.Context, w http.ResponseWriter, req *datatype.Request) (map[string]interface{}, error) {
	parts := strings.SplitN(req.Path, "/", 2)
	id, err := parseIdentity(parts[0])
	if err != nil {
		return nil, err
	}
	activity := map[string]interface{}{
		"kind":       datatype.Segmentations.String(),
		"run":        req.Run.Name(),
		"voxel_size": copick.VoxelSpacingKey(id.voxelSize),
		"name":       id.name,
		"user_id":    id.user,
		"session_id": id.session,
		"multilabel": id.multilabel,
	}

	if req.IsWrite() {
		body, err := req.ReadBody()
		if err != nil {
			return nil, err
		}
		vol, err := DecodeFrame(body)
		if err != nil {
			return nil, copick.MalformedBodyErr(err, "bad segmentation frame for %s", req)
		}
		seg, err := h.Write(ctx, req.Run, vol, id.user, id.name, id.session, id.voxelSize, id.multilabel)
		if err != nil {
			if errors.Is(err, datastore.ErrUnknownObject) {
				copick.Warningf("Rejected segmentation %q in %s: %v\n", id.name, req.Run, err)
			}
			return nil, copick.BackendErr(err, "unable to write segmentation for %s", req)
		}
		copick.Infof("Stored %s with shape %v\n", seg, vol.Shape)
		activity["action"] = "put"
		activity["shape"] = vol.Shape
		w.WriteHeader(http.StatusOK)
		return activity, nil
	}

	segs, err := req.Run.Segmentations(ctx, datastore.SegmentationQuery{
		VoxelSize:  id.voxelSize,
		Name:       id.name,
		UserID:     id.user,
		SessionID:  id.session,
		Multilabel: &id.multilabel,
	})
	if err != nil {
		return nil, copick.BackendErr(err, "segmentation lookup")
	}
	if len(segs) == 0 {
		return nil, copick.NotFoundf("no segmentation %q in %s", parts[0], req.Run)
	}
	var key string
	if len(parts) == 2 {
		key = parts[1]
	}
	if err := copick.ValidKey(key); err != nil {
		return nil, err
	}
	data, err := segs[0].ChunkStore().Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, copick.NotFoundf("no chunk %q in %s", key, segs[0])
	}
	if err != nil {
		return nil, copick.BackendErr(err, "unable to read chunk %q of %s", key, segs[0])
	}
	activity["action"] = strings.ToLower(req.Method)
	activity["key"] = key
	activity["bytes"] = len(data)
	return activity, datatype.WriteData(w, req, "application/octet-stream", data)
}
