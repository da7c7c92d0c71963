package badger

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/kephale/copick-server/storage"
)

func TestSerialization(t *testing.T) {
	data := bytes.Repeat([]byte("zarr chunk "), 100)
	for _, compress := range []Compression{Uncompressed, Snappy} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := serializeValue(data, compress, checksum)
			if err != nil {
				t.Fatalf("unable to serialize with %s, checksum %d: %v\n", compress, checksum, err)
			}
			got, err := deserializeValue(s)
			if err != nil {
				t.Fatalf("unable to deserialize with %s, checksum %d: %v\n", compress, checksum, err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("data altered with %s, checksum %d\n", compress, checksum)
			}
		}
	}
	s, err := serializeValue(data, Snappy, CRC32)
	if err != nil {
		t.Fatalf("unable to serialize: %v\n", err)
	}
	s[len(s)-1] ^= 0xff
	if _, err := deserializeValue(s); err == nil {
		t.Errorf("expected checksum failure on corrupted value\n")
	}
	if _, err := deserializeValue(nil); err == nil {
		t.Errorf("expected error on empty value\n")
	}
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("unable to open badger: %v\n", err)
	}
	defer db.Close()

	if _, err := db.Get(ctx, "missing"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v\n", err)
	}
	keys := []string{
		"ExperimentRuns/TS_001/Picks/alice_s1_ribosome.json",
		"ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/.zgroup",
		"ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0/0/0/0",
		"ExperimentRuns/TS_001/VoxelSpacing10.000-old",
		"ExperimentRuns/TS_001/a.json",
		"ExperimentRuns/TS_002/Picks/bob_s2_ribosome.json",
	}
	for i, k := range keys {
		if err := db.Put(ctx, k, []byte{byte(i)}); err != nil {
			t.Fatalf("unable to put %q: %v\n", k, err)
		}
	}
	for i, k := range keys {
		v, err := db.Get(ctx, k)
		if err != nil {
			t.Fatalf("unable to get %q: %v\n", k, err)
		}
		if !bytes.Equal(v, []byte{byte(i)}) {
			t.Errorf("bad value for %q: %v\n", k, v)
		}
	}
	children, err := db.List(ctx, "ExperimentRuns/TS_001/")
	if err != nil {
		t.Fatalf("bad list: %v\n", err)
	}
	expected := []string{"Picks/", "VoxelSpacing10.000-old", "VoxelSpacing10.000/", "a.json"}
	if !reflect.DeepEqual(children, expected) {
		t.Errorf("expected children %v, got %v\n", expected, children)
	}
	runs, err := db.List(ctx, "ExperimentRuns/")
	if err != nil {
		t.Fatalf("bad list: %v\n", err)
	}
	if !reflect.DeepEqual(runs, []string{"TS_001/", "TS_002/"}) {
		t.Errorf("bad run list: %v\n", runs)
	}

	if err := db.Delete(ctx, keys[0]); err != nil {
		t.Fatalf("unable to delete: %v\n", err)
	}
	found, err := db.Exists(ctx, keys[0])
	if err != nil || found {
		t.Errorf("expected %q deleted: found %t, err %v\n", keys[0], found, err)
	}
	found, err = db.Exists(ctx, keys[1])
	if err != nil || !found {
		t.Errorf("expected %q to exist: found %t, err %v\n", keys[1], found, err)
	}
}

func TestBadgerEngine(t *testing.T) {
	store, err := storage.Open(context.Background(), "badger://")
	if err != nil {
		t.Fatalf("unable to open in-memory badger through engine: %v\n", err)
	}
	defer store.Close()
	if store.String() != "in-memory badger" {
		t.Errorf("unexpected store: %s\n", store)
	}
}
