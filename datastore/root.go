package datastore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
)

// layer is one root of the project.
type layer struct {
	store    storage.Store
	readOnly bool
}

// Root is an open copick project.  It is safe for concurrent use.
type Root struct {
	config  *ProjectConfig
	overlay storage.Store
	static  storage.Store // nil if no static root
}

// Open opens the overlay and static roots of a project.  If staticCacheBytes
// is positive, reads from the static root go through a freecache of that size.
func Open(ctx context.Context, config *ProjectConfig, staticCacheBytes int) (*Root, error) {
	if config == nil {
		return nil, fmt.Errorf("no project configuration given")
	}
	overlay, err := storage.Open(ctx, config.OverlayRoot)
	if err != nil {
		return nil, fmt.Errorf("unable to open overlay root: %v", err)
	}
	var static storage.Store
	if config.StaticRoot != "" {
		if static, err = storage.Open(ctx, config.StaticRoot); err != nil {
			overlay.Close()
			return nil, fmt.Errorf("unable to open static root: %v", err)
		}
		if staticCacheBytes > 0 {
			static = storage.NewCachedStore(static, staticCacheBytes)
		}
	}
	return NewRoot(config, overlay, static), nil
}

// NewRoot returns a Root over already opened stores.  The static store may be nil.
func NewRoot(config *ProjectConfig, overlay, static storage.Store) *Root {
	return &Root{config: config, overlay: overlay, static: static}
}

// Config returns the project configuration.
func (r *Root) Config() *ProjectConfig {
	return r.config
}

// Overlay returns the writable store.
func (r *Root) Overlay() storage.Store {
	return r.overlay
}

// Static returns the read-only store or nil.
func (r *Root) Static() storage.Store {
	return r.static
}

func (r *Root) String() string {
	if r.static == nil {
		return fmt.Sprintf("copick project %q (overlay %s)", r.config.Name, r.overlay)
	}
	return fmt.Sprintf("copick project %q (overlay %s, static %s)", r.config.Name, r.overlay, r.static)
}

// Close closes the project's stores.
func (r *Root) Close() error {
	err := r.overlay.Close()
	if r.static != nil {
		if err2 := r.static.Close(); err == nil {
			err = err2
		}
	}
	return err
}

// layers returns the overlay followed by any static root.
func (r *Root) layers() []layer {
	layers := []layer{{store: r.overlay}}
	if r.static != nil {
		layers = append(layers, layer{store: r.static, readOnly: true})
	}
	return layers
}

// ObjectAllowed returns true if name is a pickable object of the project or
// the project lists no pickable objects.
func (r *Root) ObjectAllowed(name string) bool {
	if len(r.config.PickableObjects) == 0 {
		return true
	}
	_, found := r.config.PickableObject(name)
	return found
}

// GetRun returns the named run if any root holds data for it.
func (r *Root) GetRun(ctx context.Context, name string) (*Run, bool, error) {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return nil, false, nil
	}
	for _, l := range r.layers() {
		children, err := l.store.List(ctx, runPrefix(name))
		if err != nil {
			return nil, false, fmt.Errorf("unable to list run %q in %s: %v", name, l.store, err)
		}
		if len(children) != 0 {
			return &Run{root: r, name: name}, true, nil
		}
	}
	return nil, false, nil
}

// Runs returns the names of all runs in the project, sorted.
func (r *Root) Runs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, l := range r.layers() {
		children, err := l.store.List(ctx, runsDir)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if !strings.HasSuffix(child, "/") {
				continue
			}
			name := strings.TrimSuffix(child, "/")
			if _, found := seen[name]; !found {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	copick.Debugf("Found %d runs in %s\n", len(names), r)
	return names, nil
}
