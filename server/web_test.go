package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gocloud.dev/blob/memblob"

	"github.com/flyvis/ngffview/overlay"
	"github.com/flyvis/ngffview/source"
	"github.com/flyvis/ngffview/storage"
)

const testAttrs = `
{
	"multiscales": [
	  {
		"axes": [
		  {"name": "c", "type": "channel"},
		  {"name": "y", "type": "space"},
		  {"name": "x", "type": "space"}
		],
		"datasets": [
		  {"path": "0", "coordinateTransformations": [{"type": "scale", "scale": [1.0, 1.0, 1.0]}]},
		  {"path": "1", "coordinateTransformations": [{"type": "scale", "scale": [1.0, 2.0, 2.0]}]}
		]
	  }
	],
	"omero": {"channels": [{"window": {"start": 0, "end": 255}}]}
}
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() {
		bucket.Close()
	})
	ctx := context.Background()
	write := func(key, data string) {
		if err := bucket.WriteAll(ctx, key, []byte(data), nil); err != nil {
			t.Fatalf("can't write %q: %v", key, err)
		}
	}
	write(".zattrs", testAttrs)
	zarray := func(rows, cols int) string {
		return fmt.Sprintf(`{
			"zarr_format": 2, "shape": [1, %d, %d], "chunks": [1, 64, 64],
			"dtype": "<u2", "compressor": null, "fill_value": 0, "order": "C"
		}`, rows, cols)
	}
	write("0/.zarray", zarray(128, 128))
	write("1/.zarray", zarray(64, 64))

	store := storage.NewBlobStore("mem://web", bucket)
	adapter := source.New(store, source.Config{})
	if err := adapter.Initialize(ctx); err != nil {
		t.Fatalf("adapter init failed: %v", err)
	}
	return NewService(adapter, overlay.NewAnnotations(), nil)
}

func TestInfoEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/info")
	if err != nil {
		t.Fatalf("GET /api/info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/info status %d", resp.StatusCode)
	}
	var info struct {
		State    string          `json:"state"`
		Geometry source.Geometry `json:"geometry"`
		Levels   []struct {
			Path  string `json:"path"`
			Shape []int  `json:"shape"`
		} `json:"levels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("bad info JSON: %v", err)
	}
	if info.State != "ready" {
		t.Errorf("state: got %q, want ready", info.State)
	}
	if info.Geometry.Width != 128 || info.Geometry.TileSize != 64 || info.Geometry.MaxLevel != 1 {
		t.Errorf("geometry: %+v", info.Geometry)
	}
	if len(info.Levels) != 2 || info.Levels[0].Path != "0" {
		t.Errorf("levels: %+v", info.Levels)
	}
}

func TestTileEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tile/1/0/0")
	if err != nil {
		t.Fatalf("GET tile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET tile status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("tile not decodable PNG: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Errorf("tile sized %v, want 64 x 64", img.Bounds())
	}
}

func TestTileEndpointErrors(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Handler())
	defer srv.Close()

	for _, path := range []string{
		"/api/tile/7/0/0",  // level out of range
		"/api/tile/x/0/0",  // unparseable level
		"/api/tile/0/0/oo", // unparseable y
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s status %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestOmeroEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/omero")
	if err != nil {
		t.Fatalf("GET /api/omero: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/omero status %d", resp.StatusCode)
	}
	var omero struct {
		Channels []struct {
			Window struct {
				Start float64 `json:"start"`
				End   float64 `json:"end"`
			} `json:"window"`
		} `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&omero); err != nil {
		t.Fatalf("bad omero JSON: %v", err)
	}
	if len(omero.Channels) != 1 || omero.Channels[0].Window.End != 255 {
		t.Errorf("omero passthrough mangled: %+v", omero)
	}
}

func TestAnnotationEndpoints(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Handler())
	defer srv.Close()

	post := func(path, body string) int {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("/api/annotations/rois",
		`{"x": 10, "y": 20, "width": 30, "height": 40, "label": "soma", "color": "#00ff00"}`); code != http.StatusNoContent {
		t.Fatalf("POST roi status %d", code)
	}
	if code := post("/api/annotations/strokes",
		`{"points": [{"x": 0, "y": 0}, {"x": 5, "y": 5}], "color": "#ff0000", "lineWidth": 2}`); code != http.StatusNoContent {
		t.Fatalf("POST stroke status %d", code)
	}
	if code := post("/api/annotations/strokes", `{"points": [{"x": 0, "y": 0}]}`); code != http.StatusBadRequest {
		t.Errorf("single-point stroke status %d, want 400", code)
	}
	if code := post("/api/annotations/rois", `{not json`); code != http.StatusBadRequest {
		t.Errorf("malformed ROI status %d, want 400", code)
	}

	resp, err := http.Get(srv.URL + "/api/annotations")
	if err != nil {
		t.Fatalf("GET /api/annotations: %v", err)
	}
	var exp overlay.Export
	if err := json.NewDecoder(resp.Body).Decode(&exp); err != nil {
		t.Fatalf("bad annotations JSON: %v", err)
	}
	resp.Body.Close()
	if len(exp.ROIs) != 1 || exp.ROIs[0].Label != "soma" {
		t.Errorf("rois: %+v", exp.ROIs)
	}
	if len(exp.Strokes) != 1 || len(exp.Strokes[0].Points) != 2 {
		t.Errorf("strokes: %+v", exp.Strokes)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/annotations", nil)
	dresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/annotations: %v", err)
	}
	dresp.Body.Close()
	if dresp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status %d", dresp.StatusCode)
	}

	resp2, err := http.Get(srv.URL + "/api/annotations")
	if err != nil {
		t.Fatalf("GET after clear: %v", err)
	}
	var cleared overlay.Export
	json.NewDecoder(resp2.Body).Decode(&cleared)
	resp2.Body.Close()
	if len(cleared.ROIs) != 0 || len(cleared.Strokes) != 0 {
		t.Errorf("annotations survive clear: %+v", cleared)
	}
}
