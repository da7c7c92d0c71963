/*
Package badger is an embedded storage engine for copick projects using BadgerDB.
A reference of the form "badger:///path/to/dir" opens or creates a database in
that directory; "badger://" opens an in-memory database, useful for tests.

Values are stored snappy-compressed with a CRC32 checksum.
*/
package badger

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"
)

const (
	// DefaultSyncWrites is true if all writes are synced to disk, thereby making db resilient
	// at cost of speed.
	DefaultSyncWrites = false

	// SyncInterval is how often buffered writes are synced when DefaultSyncWrites is false.
	SyncInterval = 30 * time.Second
)

func init() {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		copick.Errorf("Unable to make semver in badger: %v\n", err)
	}
	e := Engine{"badger", "BadgerDB", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) Schemes() []string {
	return []string{"badger"}
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore returns a badger store for a "badger://" reference.
func (e Engine) NewStore(ctx context.Context, ref string) (storage.Store, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return Open(u.Path)
}

// BadgerDB is a storage.Store backed by an embedded badger database.
type BadgerDB struct {
	directory  string
	bdp        *badger.DB
	stopSyncCh chan struct{}
}

// Open returns a BadgerDB at path, creating one if it doesn't exist.  An empty
// path gives an in-memory database.
func Open(path string) (*BadgerDB, error) {
	timedLog := copick.NewTimeLog()
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			copick.Infof("Database not already at path (%s). Creating directory...\n", path)
			if err := os.MkdirAll(path, 0744); err != nil {
				return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
			}
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithSyncWrites(DefaultSyncWrites).WithLogger(nil)

	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger @ %q: %v", path, err)
	}
	db := &BadgerDB{
		directory:  path,
		bdp:        bdp,
		stopSyncCh: make(chan struct{}),
	}
	if path != "" && !DefaultSyncWrites {
		go db.syncPeriodically()
	}
	timedLog.Infof("Opened badger @ %q", path)
	return db, nil
}

// Periodically sync to prevent too many writes from being buffered
// if server crashes.
func (db *BadgerDB) syncPeriodically() {
	ticker := time.NewTicker(SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			copick.Infof("Stopping sync goroutine for badger @ %s\n", db.directory)
			return
		case <-ticker.C:
			if err := db.bdp.Sync(); err != nil {
				copick.Errorf("Error syncing badger @ %s: %v\n", db.directory, err)
			}
		}
	}
}

// ---- storage.Store interface implementation -----------

func (db *BadgerDB) String() string {
	if db.directory == "" {
		return "in-memory badger"
	}
	return fmt.Sprintf("badger @ %s", db.directory)
}

func (db *BadgerDB) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		stored, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value, err = deserializeValue(stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (db *BadgerDB) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	serialization, err := serializeValue(value, Snappy, CRC32)
	if err != nil {
		return err
	}
	copick.Debugf("badger put %q: %s -> %s\n", key, humanize.Bytes(uint64(len(value))), humanize.Bytes(uint64(len(serialization))))
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), serialization)
	})
}

func (db *BadgerDB) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := db.bdp.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (db *BadgerDB) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// List walks keys under prefix, seeking past each child directory once seen.
func (db *BadgerDB) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	bprefix := []byte(prefix)
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = bprefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(bprefix); it.ValidForPrefix(bprefix); {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			name := storage.ChildName(prefix, key)
			if name == "" {
				it.Next()
				continue
			}
			names = append(names, name)
			if name[len(name)-1] == '/' {
				// '0' is the byte after '/', so this skips the whole subtree.
				it.Seek(append([]byte(prefix+name[:len(name)-1]), '0'))
			} else {
				it.Next()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (db *BadgerDB) Close() error {
	if db.directory != "" && !DefaultSyncWrites {
		close(db.stopSyncCh)
	}
	if err := db.bdp.Close(); err != nil {
		copick.Errorf("Error closing %s: %v\n", db, err)
		return err
	}
	return nil
}

// Size returns the approximate LSM and value log sizes in bytes.
func (db *BadgerDB) Size() (lsm, vlog int64) {
	return db.bdp.Size()
}
