package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gocloud.dev/blob/memblob"
)

func TestBlobStoreReadAll(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	if err := bucket.WriteAll(ctx, "0/.zarray", []byte("payload"), nil); err != nil {
		t.Fatalf("can't seed bucket: %v", err)
	}

	store := NewBlobStore("mem://test", bucket)
	data, err := store.ReadAll(ctx, "0/.zarray")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read %q", data)
	}

	_, err = store.ReadAll(ctx, "0/nonexistent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing key: got %v, want ErrKeyNotFound", err)
	}
}

func TestWebStoreReadAll(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/data/0/0.0":
			w.Write([]byte("chunk-bytes"))
		case "/data/boom":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := Open(ctx, srv.URL+"/data/") // trailing slash is trimmed
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	data, err := store.ReadAll(ctx, "0/0.0")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "chunk-bytes" {
		t.Errorf("read %q", data)
	}
	if gotPath != "/data/0/0.0" {
		t.Errorf("requested path %q", gotPath)
	}

	_, err = store.ReadAll(ctx, "0/missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("404: got %v, want ErrKeyNotFound", err)
	}

	_, err = store.ReadAll(ctx, "boom")
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		t.Errorf("500: got %v, want a non-not-found error", err)
	}
}

func TestOpenDispatch(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "mem://bucket")
	if err != nil {
		t.Fatalf("open mem bucket: %v", err)
	}
	store.Close()

	if _, err := Open(ctx, "nosuchscheme://x"); err == nil {
		t.Errorf("unknown scheme should fail to open")
	}
}
