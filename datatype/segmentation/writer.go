package segmentation

import (
	"context"
	"fmt"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype/common/zarr"
)

// WriterFunc persists a decoded volume as a segmentation of a run.
type WriterFunc func(ctx context.Context, run *datastore.Run, vol *Volume, user, name, session string, voxelSize float64, multilabel bool) (*datastore.Segmentation, error)

// WriteSegmentation creates or replaces a segmentation in the overlay root as an
// OME-Zarr multiscale group with the volume at scale level "0".
func WriteSegmentation(ctx context.Context, run *datastore.Run, vol *Volume, user, name, session string, voxelSize float64, multilabel bool) (*datastore.Segmentation, error) {
	seg, err := run.NewSegmentation(voxelSize, name, user, session, multilabel)
	if err != nil {
		return nil, err
	}
	n, err := vol.NumVoxels()
	if err != nil {
		return nil, err
	}
	if len(vol.Data) != n {
		return nil, fmt.Errorf("volume of shape %v has %d bytes, expected %d", vol.Shape, len(vol.Data), n)
	}
	timedLog := copick.NewTimeLog()
	shape := []int{vol.Shape[0], vol.Shape[1], vol.Shape[2]}
	if err := zarr.WriteMultiscaleUint8(ctx, seg.ChunkStore(), name, shape, vol.Data, voxelSize); err != nil {
		return nil, fmt.Errorf("unable to write %s: %v", seg, err)
	}
	timedLog.Debugf("Wrote %s with shape %v", seg, vol.Shape)
	return seg, nil
}
