package storage

import (
	"context"
	"fmt"

	"github.com/flyvis/ngffview/ngffview"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Drivers usable via blob bucket URLs.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// blobStore reads keys out of a gocloud blob bucket.
type blobStore struct {
	ref    string
	bucket *blob.Bucket
}

func newBlobStore(ctx context.Context, ref string) (*blobStore, error) {
	bucket, err := blob.OpenBucket(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("can't open bucket %q: %v", ref, err)
	}
	ngffview.Infof("Opened blob store @ %q\n", ref)
	return &blobStore{ref: ref, bucket: bucket}, nil
}

// NewBlobStore wraps an already-open bucket, which is useful for tests
// that build fixtures in a mem bucket.
func NewBlobStore(ref string, bucket *blob.Bucket) Store {
	return &blobStore{ref: ref, bucket: bucket}
}

func (s *blobStore) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *blobStore) Close() error {
	return s.bucket.Close()
}

func (s *blobStore) String() string {
	return fmt.Sprintf("blob store @ %s", s.ref)
}
