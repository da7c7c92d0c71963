/*
Package bucket is a storage engine over gocloud.dev blob buckets.  It serves
local directories (file://, and local:// or bare paths after
storage.NormalizeRef), in-memory buckets (mem://), Google Cloud Storage (gs://)
and S3 (s3://).

Cloud references may carry a path after the bucket name, which becomes a key
prefix:

	gs://my-bucket/projects/copick
	s3://my-bucket/copick?region=us-west-2

Credentials are found the usual gocloud way, e.g., GOOGLE_APPLICATION_CREDENTIALS
for gs:// and the AWS config files and AWS_REGION for s3://.
*/
package bucket

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/blang/semver"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/storage"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

func init() {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		copick.Errorf("Unable to make semver in bucket engine: %v\n", err)
	}
	e := Engine{"bucket", "gocloud.dev blob bucket", ver}
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
	return []string{"file", "mem", "gs", "s3"}
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore opens a bucket at ref, creating the directory for file:// references.
func (e Engine) NewStore(ctx context.Context, ref string) (storage.Store, error) {
	return Open(ctx, ref)
}

// Store is a storage.Store backed by a gocloud blob.Bucket.
type Store struct {
	ref    string
	bucket *blob.Bucket
}

// Open returns a Store for the bucket reference.
func Open(ctx context.Context, ref string) (*Store, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("bad bucket reference %q: %v", ref, err)
	}
	var prefix string
	openRef := ref
	switch u.Scheme {
	case "file":
		if err := os.MkdirAll(u.Path, 0755); err != nil {
			return nil, fmt.Errorf("can't make directory for %q: %v", ref, err)
		}
	case "gs", "s3":
		prefix = strings.Trim(u.Path, "/")
		if prefix != "" {
			prefix += "/"
		}
		u.Path = ""
		openRef = u.String()
	}
	copick.Infof("Trying to open bucket @ %q ...\n", ref)
	bucket, err := blob.OpenBucket(ctx, openRef)
	if err != nil {
		copick.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
		return nil, err
	}
	if prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix)
	}
	return &Store{ref: ref, bucket: bucket}, nil
}

// ---- storage.Store interface implementation -----------

func (s *Store) String() string {
	return fmt.Sprintf("bucket @ %s", s.ref)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	opts := &blob.WriterOptions{ContentType: "application/octet-stream"}
	return s.bucket.WriteAll(ctx, key, value, opts)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	var names []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if name := storage.ChildName(prefix, obj.Key); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	if err := s.bucket.Close(); err != nil {
		copick.Errorf("Error on trying to close bucket (%s): %v\n", s.ref, err)
		return err
	}
	return nil
}
