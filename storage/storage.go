/*
Package storage provides read access to the object stores that hold
chunked multiscale arrays.  A store maps relative keys (e.g., ".zattrs"
or "0/4.2") under a source root to byte values, whether the root is a
cloud bucket, a local directory, or a plain web server.
*/
package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrKeyNotFound is returned by Store.ReadAll when the key has no value.
// Callers that can tolerate missing keys (e.g., unwritten chunks) test
// for it explicitly.
var ErrKeyNotFound = errors.New("key not found in store")

// Store is read-only access to one array source root.
type Store interface {
	// ReadAll returns the full value for the given key relative to the
	// source root, or ErrKeyNotFound.
	ReadAll(ctx context.Context, key string) ([]byte, error)

	// Close releases any resources held by the store.
	Close() error

	String() string
}

// Open returns a Store for the given reference.  References with
// http/https schemes become web stores; everything else is treated
// as a gocloud blob bucket URL (file://, mem://, gs://, s3://).
func Open(ctx context.Context, ref string) (Store, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return newWebStore(ref)
	default:
		return newBlobStore(ctx, ref)
	}
}
