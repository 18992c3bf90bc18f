package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// webStore reads keys from a plain web server by GET under a base URL.
// Requests are simple GETs without custom headers so cross-origin reads
// work against CORS-restricted hosts without preflight.
type webStore struct {
	base   string
	client *http.Client
}

func newWebStore(ref string) (*webStore, error) {
	if _, err := url.Parse(ref); err != nil {
		return nil, err
	}
	return &webStore{
		base:   strings.TrimSuffix(ref, "/"),
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (s *webStore) ReadAll(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrKeyNotFound
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET %s/%s returned status %d", s.base, key, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *webStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *webStore) String() string {
	return fmt.Sprintf("web store @ %s", s.base)
}
