/*
Package client talks to a copick-server over HTTP.  It knows the request paths
of each data kind and the binary frame used to upload whole segmentations.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype/common/zarr"
	"github.com/kephale/copick-server/datatype/segmentation"
)

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Msg)
}

// Client provides HTTP access to a copick-server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New returns a client for the server at baseURL, e.g., "http://127.0.0.1:8000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// SetToken sets a JWT sent as a bearer token with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	timedLog := copick.NewTimeLog()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: unable to read response: %v", method, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
	}
	timedLog.Debugf("%s %s sent %s, received %s", method, url, humanize.Bytes(uint64(len(body))), humanize.Bytes(uint64(len(data))))
	return data, nil
}

func tomogramPath(run string, voxelSpacing float64, tomoType string) string {
	return fmt.Sprintf("/%s/Tomograms/%s/%s.zarr", run, copick.VoxelSpacingDir(voxelSpacing), tomoType)
}

func segmentationPath(run string, voxelSize float64, user, session, name string, multilabel bool) string {
	return fmt.Sprintf("/%s/Segmentations/%s", run, datastore.SegmentationDirname(voxelSize, user, session, name, multilabel))
}

func picksPath(run, user, session, object string) string {
	return fmt.Sprintf("/%s/Picks/%s", run, datastore.PicksFilename(object, user, session))
}

// GetTomogramChunk returns a chunk or metadata document of a tomogram.
func (c *Client) GetTomogramChunk(ctx context.Context, run string, voxelSpacing float64, tomoType, key string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, tomogramPath(run, voxelSpacing, tomoType)+"/"+key, nil)
}

// PutTomogramChunk stores a chunk or metadata document of a writable tomogram.
func (c *Client) PutTomogramChunk(ctx context.Context, run string, voxelSpacing float64, tomoType, key string, data []byte) error {
	_, err := c.do(ctx, http.MethodPut, tomogramPath(run, voxelSpacing, tomoType)+"/"+key, data)
	return err
}

// TomogramShape returns the shape of scale level 0 of a tomogram.
func (c *Client) TomogramShape(ctx context.Context, run string, voxelSpacing float64, tomoType string) ([]int, error) {
	data, err := c.GetTomogramChunk(ctx, run, voxelSpacing, tomoType, "0/.zarray")
	if err != nil {
		return nil, err
	}
	m, err := zarr.ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	return m.Shape, nil
}

// PutSegmentation uploads a whole volume as a segmentation.
func (c *Client) PutSegmentation(ctx context.Context, run string, voxelSize float64, user, session, name string, multilabel bool, vol *segmentation.Volume) error {
	frame, err := segmentation.EncodeFrame(vol)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, segmentationPath(run, voxelSize, user, session, name, multilabel), frame)
	return err
}

// GetSegmentationChunk returns a chunk or metadata document of a segmentation.
func (c *Client) GetSegmentationChunk(ctx context.Context, run string, voxelSize float64, user, session, name string, multilabel bool, key string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, segmentationPath(run, voxelSize, user, session, name, multilabel)+"/"+key, nil)
}

// CreateSegmentation uploads an all-zero segmentation with the shape of a
// tomogram at the same voxel spacing and returns the uploaded volume.
func (c *Client) CreateSegmentation(ctx context.Context, run string, voxelSpacing float64, tomoType, user, session, name string, multilabel bool) (*segmentation.Volume, error) {
	shape, err := c.TomogramShape(ctx, run, voxelSpacing, tomoType)
	if err != nil {
		return nil, err
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("tomogram %q has %d dimensions, need 3", tomoType, len(shape))
	}
	vol := &segmentation.Volume{Shape: [3]int{shape[0], shape[1], shape[2]}}
	n, err := vol.NumVoxels()
	if err != nil {
		return nil, err
	}
	vol.Data = make([]byte, n)
	if err := c.PutSegmentation(ctx, run, voxelSpacing, user, session, name, multilabel, vol); err != nil {
		return nil, err
	}
	copick.Infof("Created segmentation %q with shape %v (%s) in run %q\n", name, vol.Shape, humanize.Bytes(uint64(n)), run)
	return vol, nil
}

// GetPicks returns a pick set.
func (c *Client) GetPicks(ctx context.Context, run, user, session, object string) (*datastore.PicksFile, error) {
	data, err := c.do(ctx, http.MethodGet, picksPath(run, user, session, object), nil)
	if err != nil {
		return nil, err
	}
	var pf datastore.PicksFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("bad picks from server: %v", err)
	}
	return &pf, nil
}

// PutPicks stores a pick set under the given identity.
func (c *Client) PutPicks(ctx context.Context, run, user, session, object string, pf *datastore.PicksFile) error {
	record := *pf
	if record.Unit == "" {
		record.Unit = "angstrom"
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, picksPath(run, user, session, object), data)
	return err
}
