package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
)

// Segmentation is a zarr group of per-voxel labels owned by a user session.
type Segmentation struct {
	run        *Run
	voxelSize  float64
	user       string
	session    string
	name       string
	multilabel bool
	readOnly   bool
	chunks     storage.ChunkStore
}

func (s *Segmentation) VoxelSize() float64 { return s.voxelSize }
func (s *Segmentation) UserID() string     { return s.user }
func (s *Segmentation) SessionID() string  { return s.session }
func (s *Segmentation) Name() string       { return s.name }
func (s *Segmentation) IsMultilabel() bool { return s.multilabel }
func (s *Segmentation) ReadOnly() bool     { return s.readOnly }
func (s *Segmentation) Run() *Run          { return s.run }

// ChunkStore returns the store view rooted at the segmentation's zarr group.
func (s *Segmentation) ChunkStore() storage.ChunkStore {
	return s.chunks
}

func (s *Segmentation) String() string {
	return fmt.Sprintf("segmentation %q of %s", SegmentationDirname(s.voxelSize, s.user, s.session, s.name, s.multilabel), s.run)
}

// SegmentationQuery selects segmentations of a run.  Zero values match any:
// VoxelSize 0, empty strings, and a nil Multilabel.
type SegmentationQuery struct {
	VoxelSize  float64
	Name       string
	UserID     string
	SessionID  string
	Multilabel *bool
}

func (q SegmentationQuery) matches(voxelSize float64, user, session, name string, multilabel bool) bool {
	if q.VoxelSize != 0 && copick.VoxelSpacingKey(q.VoxelSize) != copick.VoxelSpacingKey(voxelSize) {
		return false
	}
	if (q.Name != "" && q.Name != name) || (q.UserID != "" && q.UserID != user) || (q.SessionID != "" && q.SessionID != session) {
		return false
	}
	return q.Multilabel == nil || *q.Multilabel == multilabel
}

// Segmentations returns the segmentations matching the query, overlay first.
func (r *Run) Segmentations(ctx context.Context, q SegmentationQuery) ([]*Segmentation, error) {
	var segs []*Segmentation
	prefix := runPrefix(r.name) + segmentationsDir
	for _, l := range r.root.layers() {
		children, err := l.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("unable to list segmentations of %s in %s: %v", r, l.store, err)
		}
		for _, child := range children {
			if !strings.HasSuffix(child, "/") {
				continue
			}
			voxelSize, user, session, name, multilabel, ok := ParseSegmentationDirname(child)
			if !ok || !q.matches(voxelSize, user, session, name, multilabel) {
				continue
			}
			segs = append(segs, &Segmentation{
				run:        r,
				voxelSize:  voxelSize,
				user:       user,
				session:    session,
				name:       name,
				multilabel: multilabel,
				readOnly:   l.readOnly,
				chunks:     storage.Prefixed(l.store, prefix+child),
			})
		}
	}
	return segs, nil
}

// NewSegmentation returns a handle for a segmentation in the overlay.  Names
// of non-multilabel segmentations must be pickable objects of the project.
func (r *Run) NewSegmentation(voxelSize float64, name, user, session string, multilabel bool) (*Segmentation, error) {
	if voxelSize <= 0 {
		return nil, fmt.Errorf("bad voxel size %v", voxelSize)
	}
	if err := checkName("user id", user); err != nil {
		return nil, err
	}
	if err := checkName("session id", session); err != nil {
		return nil, err
	}
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("bad segmentation name %q", name)
	}
	if !multilabel && !r.root.ObjectAllowed(name) {
		return nil, fmt.Errorf("segmentation %q: %w", name, ErrUnknownObject)
	}
	dirname := SegmentationDirname(voxelSize, user, session, name, multilabel)
	return &Segmentation{
		run:        r,
		voxelSize:  voxelSize,
		user:       user,
		session:    session,
		name:       name,
		multilabel: multilabel,
		chunks:     storage.Prefixed(r.root.overlay, runPrefix(r.name)+segmentationsDir+dirname),
	}, nil
}
