package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
)

// mapStore is a minimal Store for testing wrappers.
type mapStore struct {
	sync.Mutex
	data map[string][]byte
	gets int
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) String() string { return "map store" }

func (m *mapStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	m.gets++
	v, found := m.data[key]
	if !found {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *mapStore) Put(ctx context.Context, key string, value []byte) error {
	m.Lock()
	defer m.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapStore) Exists(ctx context.Context, key string) (bool, error) {
	m.Lock()
	defer m.Unlock()
	_, found := m.data[key]
	return found, nil
}

func (m *mapStore) Delete(ctx context.Context, key string) error {
	m.Lock()
	defer m.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.Lock()
	defer m.Unlock()
	seen := make(map[string]struct{})
	var names []string
	for k := range m.data {
		if name := ChildName(prefix, k); name != "" {
			if _, found := seen[name]; !found {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *mapStore) Close() error { return nil }

func TestChildName(t *testing.T) {
	tests := []struct {
		prefix, key, child string
	}{
		{"ExperimentRuns/", "ExperimentRuns/TS_001/Picks/a_b_c.json", "TS_001/"},
		{"ExperimentRuns/TS_001/Picks/", "ExperimentRuns/TS_001/Picks/a_b_c.json", "a_b_c.json"},
		{"", "copick_config.json", "copick_config.json"},
		{"ExperimentRuns/", "Objects/ribosome.zarr", ""},
		{"ExperimentRuns/", "ExperimentRuns/", ""},
	}
	for _, tc := range tests {
		if got := ChildName(tc.prefix, tc.key); got != tc.child {
			t.Errorf("ChildName(%q, %q) = %q, expected %q\n", tc.prefix, tc.key, got, tc.child)
		}
	}
}

func TestNormalizeRef(t *testing.T) {
	tests := map[string]string{
		"/data/copick":          "file:///data/copick",
		"local:///data/copick":  "file:///data/copick",
		"file:///data/copick":   "file:///data/copick",
		"s3://bucket/copick":    "s3://bucket/copick",
		"badger:///data/badger": "badger:///data/badger",
		"mem://":                "mem://",
	}
	for ref, expected := range tests {
		if got := NormalizeRef(ref); got != expected {
			t.Errorf("NormalizeRef(%q) = %q, expected %q\n", ref, got, expected)
		}
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "ftp://example.com/copick")
	if err == nil || !strings.Contains(err.Error(), "ftp") {
		t.Errorf("expected error for unregistered scheme, got %v\n", err)
	}
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := newMapStore()
	backing.data["ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/.zarray"] = []byte(`{"shape":[4,4,4]}`)
	cached := NewCachedStore(backing, 4*1024*1024)

	for i := 0; i < 3; i++ {
		v, err := cached.Get(ctx, "ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/.zarray")
		if err != nil {
			t.Fatalf("unable to get through cache: %v\n", err)
		}
		if string(v) != `{"shape":[4,4,4]}` {
			t.Fatalf("bad cached value: %s\n", v)
		}
	}
	if backing.gets != 1 {
		t.Errorf("expected 1 backing get, got %d\n", backing.gets)
	}
	if _, err := cached.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound through cache, got %v\n", err)
	}

	if err := cached.Put(ctx, "ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/.zarray", []byte("new")); err != nil {
		t.Fatalf("unable to put through cache: %v\n", err)
	}
	v, err := cached.Get(ctx, "ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/.zarray")
	if err != nil || string(v) != "new" {
		t.Errorf("expected write to evict cached value, got %q, %v\n", v, err)
	}
}

func TestPrefixedRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	chunks := Prefixed(newMapStore(), "ExperimentRuns/TS_001/Segmentations/10.000_a_b_c.zarr")
	for _, key := range []string{"", "../other", "0//1"} {
		if err := chunks.Put(ctx, key, []byte{0}); err == nil {
			t.Errorf("expected error putting key %q\n", key)
		}
	}
	if err := chunks.Put(ctx, "0/.zarray", []byte("{}")); err != nil {
		t.Fatalf("unable to put valid key: %v\n", err)
	}
	names, err := chunks.List(ctx, "")
	if err != nil || len(names) != 1 || names[0] != "0/" {
		t.Errorf("bad listing of prefixed store: %v, %v\n", names, err)
	}
}
