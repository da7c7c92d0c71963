/* Test project for testing datastore and other packages. */

package datastore

import (
	"context"
	"testing"

	"github.com/kephale/copick-server/storage"
	_ "github.com/kephale/copick-server/storage/bucket"
)

// NewTestRoot returns a project with in-memory overlay and static roots.  Any
// object names given become the project's pickable objects.
func NewTestRoot(t *testing.T, objects ...string) *Root {
	config := &ProjectConfig{
		Name:        "test project",
		ConfigType:  "filesystem",
		OverlayRoot: "mem://",
		StaticRoot:  "mem://",
	}
	for i, name := range objects {
		config.PickableObjects = append(config.PickableObjects, PickableObject{Name: name, IsParticle: true, Label: i + 1})
	}
	root, err := Open(context.Background(), config, 0)
	if err != nil {
		t.Fatalf("unable to open test project: %v\n", err)
	}
	t.Cleanup(func() { root.Close() })
	return root
}

// PutTestData writes a value into the overlay root, or the static root if static is true.
func PutTestData(t *testing.T, root *Root, static bool, key string, value []byte) {
	var store storage.Store = root.Overlay()
	if static {
		store = root.Static()
	}
	if err := store.Put(context.Background(), key, value); err != nil {
		t.Fatalf("unable to put test data at %q: %v\n", key, err)
	}
}

// GetTestRun returns a run that must exist.
func GetTestRun(t *testing.T, root *Root, name string) *Run {
	run, found, err := root.GetRun(context.Background(), name)
	if err != nil {
		t.Fatalf("error getting run %q: %v\n", name, err)
	}
	if !found {
		t.Fatalf("run %q not found in test project\n", name)
	}
	return run
}
