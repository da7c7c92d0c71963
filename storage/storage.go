/*
Package storage provides a unified interface to the key-value engines that hold
copick projects.  Keys are slash-separated paths like
"ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/.zarray" and values are
simply []byte at this level.

Each engine registers itself in an init() function and is selected by the URL
scheme of a root reference:

	file:///data/copick, local:///data/copick, mem://   (package storage/bucket)
	gs://bucket/prefix, s3://bucket/prefix              (package storage/bucket)
	badger:///data/copick.badger                        (package storage/badger)
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/blang/semver"
	"github.com/kephale/copick-server/copick"
)

// ErrNotFound is returned by Store.Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a key-value store with path-like keys.  Implementations must be
// safe for concurrent use.
type Store interface {
	fmt.Stringer

	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the value at key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Exists returns true if the key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the key.  Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the sorted immediate children of prefix, which should end in
	// "/" or be empty.  Children holding further keys are returned with a
	// trailing "/".  Names are relative to prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Engine implementations can open Stores from root references.
type Engine interface {
	fmt.Stringer

	GetName() string
	GetDescription() string
	GetSemVer() semver.Version

	// Schemes returns the URL schemes handled by this engine.
	Schemes() []string

	// NewStore opens a store at the given reference.
	NewStore(ctx context.Context, ref string) (Store, error)
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine) // by scheme
)

// RegisterEngine registers an Engine for each of its schemes.
func RegisterEngine(e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	for _, scheme := range e.Schemes() {
		if prev, found := engines[scheme]; found {
			copick.Errorf("Engine %s replaces %s for scheme %q\n", e, prev, scheme)
		}
		engines[scheme] = e
	}
}

// EnginesAvailable returns a description of the registered engines.
func EnginesAvailable() string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	seen := make(map[string]struct{})
	var names []string
	for _, e := range engines {
		if _, found := seen[e.GetName()]; found {
			continue
		}
		seen[e.GetName()] = struct{}{}
		names = append(names, fmt.Sprintf("%s (%s) %v", e, e.GetDescription(), e.Schemes()))
	}
	sort.Strings(names)
	return strings.Join(names, "; ")
}

// NormalizeRef converts root references as written in copick project configs
// into URLs: bare absolute paths and "local://" references become "file://".
func NormalizeRef(ref string) string {
	switch {
	case strings.HasPrefix(ref, "/"):
		return "file://" + ref
	case strings.HasPrefix(ref, "local://"):
		return "file://" + strings.TrimPrefix(ref, "local://")
	}
	return ref
}

// Open returns a Store for the given root reference using the engine
// registered for its scheme.
func Open(ctx context.Context, ref string) (Store, error) {
	ref = NormalizeRef(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("bad store reference %q: %v", ref, err)
	}
	enginesMu.RLock()
	e, found := engines[u.Scheme]
	enginesMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("no storage engine registered for scheme %q (available: %s)", u.Scheme, EnginesAvailable())
	}
	store, err := e.NewStore(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("engine %s could not open %q: %v", e, ref, err)
	}
	copick.Infof("Opened store %s with engine %s\n", store, e)
	return store, nil
}

// ChildName returns the immediate child of prefix for a full key, with a
// trailing "/" if the key lies deeper, or "" if key is not under prefix.
func ChildName(prefix, key string) string {
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	rest := key[len(prefix):]
	if rest == "" {
		return ""
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i+1]
	}
	return rest
}
