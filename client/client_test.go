package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype/common/zarr"
	_ "github.com/kephale/copick-server/datatype/picks"
	"github.com/kephale/copick-server/datatype/segmentation"
	_ "github.com/kephale/copick-server/datatype/tomogram"
	"github.com/kephale/copick-server/server"
	"github.com/kephale/copick-server/storage"
)

func testServer(t *testing.T, objects ...string) (*datastore.Root, *Client) {
	root := server.NewTestServer(t, objects...)
	ts := httptest.NewServer(http.HandlerFunc(server.ServeSingleHTTP))
	t.Cleanup(ts.Close)
	return root, New(ts.URL + "/")
}

func putTomogram(t *testing.T, root *datastore.Root, shape []int) {
	m := zarr.NewUint8Metadata(shape, 0)
	data := make([]byte, m.NumVoxels())
	chunks := storage.Prefixed(root.Static(), "ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr")
	if err := zarr.WriteUint8(context.Background(), chunks, "0", m, data); err != nil {
		t.Fatalf("unable to write test tomogram: %v\n", err)
	}
}

func TestCreateSegmentation(t *testing.T) {
	root, c := testServer(t, "membrane")
	putTomogram(t, root, []int{4, 5, 6})
	ctx := context.Background()

	shape, err := c.TomogramShape(ctx, "TS_001", 10, "wbp")
	if err != nil {
		t.Fatalf("unable to get tomogram shape: %v\n", err)
	}
	if len(shape) != 3 || shape[0] != 4 || shape[1] != 5 || shape[2] != 6 {
		t.Errorf("bad shape %v\n", shape)
	}

	vol, err := c.CreateSegmentation(ctx, "TS_001", 10, "wbp", "alice", "s1", "membrane", true)
	if err != nil {
		t.Fatalf("unable to create segmentation: %v\n", err)
	}
	if vol.Shape != [3]int{4, 5, 6} || len(vol.Data) != 120 {
		t.Errorf("bad volume: %v, %d bytes\n", vol.Shape, len(vol.Data))
	}
	data, err := c.GetSegmentationChunk(ctx, "TS_001", 10, "alice", "s1", "membrane", true, "0/.zarray")
	if err != nil {
		t.Fatalf("unable to get segmentation metadata: %v\n", err)
	}
	m, err := zarr.ParseMetadata(data)
	if err != nil || len(m.Shape) != 3 || m.Shape[2] != 6 {
		t.Errorf("bad segmentation metadata %s: %v\n", data, err)
	}

	_, err = c.CreateSegmentation(ctx, "TS_001", 10, "missing", "alice", "s1", "membrane", true)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing tomogram, got %v\n", err)
	}

	vol = &segmentation.Volume{Shape: [3]int{1, 1, 2}, Data: []byte{1, 2}}
	err = c.PutSegmentation(ctx, "TS_001", 10, "alice", "s1", "vesicle", false, vol)
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown object, got %v\n", err)
	}
}

func TestTomogramChunks(t *testing.T) {
	root, c := testServer(t)
	putTomogram(t, root, []int{2, 2, 2})
	ctx := context.Background()

	err := c.PutTomogramChunk(ctx, "TS_001", 10, "wbp", "0/0/0/0", []byte{1})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 writing static tomogram, got %v\n", err)
	}
	if _, err := c.GetTomogramChunk(ctx, "TS_001", 10, "wbp", "0/0/0/0"); err != nil {
		t.Errorf("unable to get chunk: %v\n", err)
	}
}

func TestPicks(t *testing.T) {
	root, c := testServer(t, "ribosome")
	putTomogram(t, root, []int{2, 2, 2})
	ctx := context.Background()

	pf := &datastore.PicksFile{
		Points: []datastore.Point{
			{Location: datastore.Location{X: 1, Y: 2, Z: 3}, Score: 1},
			{Location: datastore.Location{X: 4, Y: 5, Z: 6}, InstanceID: 7, Score: 0.25},
		},
		TrustOrientation: true,
	}
	if err := c.PutPicks(ctx, "TS_001", "alice", "s1", "ribosome", pf); err != nil {
		t.Fatalf("unable to put picks: %v\n", err)
	}
	got, err := c.GetPicks(ctx, "TS_001", "alice", "s1", "ribosome")
	if err != nil {
		t.Fatalf("unable to get picks: %v\n", err)
	}
	if got.UserID != "alice" || got.Unit != "angstrom" || len(got.Points) != 2 || got.Points[1].InstanceID != 7 || got.Points[1].Score != 0.25 {
		t.Errorf("bad picks: %+v\n", got)
	}

	_, err = c.GetPicks(ctx, "TS_001", "bob", "s1", "ribosome")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing picks, got %v\n", err)
	}
}
