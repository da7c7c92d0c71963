package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/kephale/copick-server/copick"
)

// ChunkStore is the key-value view of one zarr array or group: a Store whose
// keys are relative to the array's root.
type ChunkStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type prefixed struct {
	store  Store
	prefix string
}

// Prefixed returns a ChunkStore for keys under prefix in store.  A trailing
// "/" is added to prefix if missing.  Keys must pass copick.ValidKey.
func Prefixed(store Store, prefix string) ChunkStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &prefixed{store, prefix}
}

func (p *prefixed) String() string {
	return fmt.Sprintf("%s/%s", p.store, strings.TrimSuffix(p.prefix, "/"))
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	if err := copick.ValidKey(key); err != nil {
		return nil, err
	}
	return p.store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte) error {
	if err := copick.ValidKey(key); err != nil {
		return err
	}
	return p.store.Put(ctx, p.prefix+key, value)
}

func (p *prefixed) Exists(ctx context.Context, key string) (bool, error) {
	if err := copick.ValidKey(key); err != nil {
		return false, err
	}
	return p.store.Exists(ctx, p.prefix+key)
}

func (p *prefixed) List(ctx context.Context, prefix string) ([]string, error) {
	return p.store.List(ctx, p.prefix+prefix)
}
