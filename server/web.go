package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/rs/cors"
	"github.com/zenazn/goji/web"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/overlay"
	"github.com/flyvis/ngffview/source"
)

// Service serves one pyramid tile source plus its annotation set over
// HTTP.  It consumes the adapter through the same contract a pan/zoom
// engine would.
type Service struct {
	adapter     *source.Adapter
	annotations *overlay.Annotations
	handler     http.Handler
}

// NewService builds the route mux around an initialized adapter.
// Cross-origin GETs are allowed for the given origins, all origins if
// none are given, since browser viewers are the expected consumers.
func NewService(adapter *source.Adapter, annotations *overlay.Annotations, corsOrigins []string) *Service {
	s := &Service{
		adapter:     adapter,
		annotations: annotations,
	}

	mux := web.New()
	mux.Use(logHTTPPanics)
	mux.Get("/api/info", s.infoHandler)
	mux.Get("/api/tile/:level/:x/:y", s.tileHandler)
	mux.Get("/api/omero", s.omeroHandler)
	mux.Get("/api/annotations", s.annotationsHandler)
	mux.Post("/api/annotations/rois", s.addROIHandler)
	mux.Post("/api/annotations/strokes", s.addStrokeHandler)
	mux.Delete("/api/annotations", s.clearAnnotationsHandler)

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})
	s.handler = c.Handler(mux)
	return s
}

// Handler returns the fully wrapped route handler.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Serve listens on the given address until the listener fails.
func (s *Service) Serve(address string) error {
	if address == "" {
		address = DefaultWebAddress
	}
	ngffview.Infof("Web server listening at %s ...\n", address)
	srv := &http.Server{
		Addr:    address,
		Handler: s.handler,
	}
	return srv.ListenAndServe()
}

// logHTTPPanics keeps a panicking handler from taking down the server.
func logHTTPPanics(c *web.C, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				ngffview.Criticalf("Caught panic on HTTP request %q: %v\n", r.URL.Path, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		h.ServeHTTP(w, r)
	})
}

// BadRequest writes a 400 with a formatted message and logs it.
func BadRequest(w http.ResponseWriter, r *http.Request, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	ngffview.Errorf("Bad request (%s): %s\n", r.URL.Path, msg)
	http.Error(w, msg, http.StatusBadRequest)
}

type infoJSON struct {
	State    string          `json:"state"`
	Geometry source.Geometry `json:"geometry"`
	Levels   []levelJSON     `json:"levels"`
}

type levelJSON struct {
	Path   string    `json:"path"`
	Shape  []int     `json:"shape"`
	Chunks []int     `json:"chunks"`
	DType  string    `json:"dtype"`
	Scale  []float64 `json:"scale,omitempty"`
}

func (s *Service) infoHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	info := infoJSON{
		State:    s.adapter.State().String(),
		Geometry: s.adapter.Geometry(),
	}
	pyramid := s.adapter.Pyramid()
	if pyramid != nil {
		for n := 0; n < pyramid.NumLevels(); n++ {
			level := pyramid.Level(n)
			info.Levels = append(info.Levels, levelJSON{
				Path:   level.Path,
				Shape:  level.Array.Shape(),
				Chunks: level.Array.ChunkShape(),
				DType:  level.Array.DataType(),
				Scale:  level.Scale,
			})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Service) tileHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	timedLog := ngffview.NewTimeLog()
	level, err := strconv.Atoi(c.URLParams["level"])
	if err != nil {
		BadRequest(w, r, "bad level %q: %v", c.URLParams["level"], err)
		return
	}
	x, err := strconv.Atoi(c.URLParams["x"])
	if err != nil {
		BadRequest(w, r, "bad x %q: %v", c.URLParams["x"], err)
		return
	}
	y, err := strconv.Atoi(c.URLParams["y"])
	if err != nil {
		BadRequest(w, r, "bad y %q: %v", c.URLParams["y"], err)
		return
	}

	img, err := s.adapter.Tile(r.Context(), level, x, y)
	if err != nil {
		var invalid source.InvalidLevelError
		if errors.As(err, &invalid) {
			BadRequest(w, r, "%v", err)
			return
		}
		ngffview.Errorf("Tile (%d,%d,%d) failed: %v\n", level, x, y, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		ngffview.Errorf("Can't encode tile (%d,%d,%d): %v\n", level, x, y, err)
	}
	timedLog.Debugf("HTTP GET tile (%d,%d,%d)", level, x, y)
}

func (s *Service) omeroHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	pyramid := s.adapter.Pyramid()
	if pyramid == nil || len(pyramid.Omero()) == 0 {
		http.Error(w, "source has no omero block", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(pyramid.Omero())
}

func (s *Service) annotationsHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.annotations.Export())
}

func (s *Service) addROIHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	var roi overlay.ROI
	if err := json.NewDecoder(r.Body).Decode(&roi); err != nil {
		BadRequest(w, r, "bad ROI JSON: %v", err)
		return
	}
	s.annotations.AddROI(roi)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) addStrokeHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	var stroke overlay.Stroke
	if err := json.NewDecoder(r.Body).Decode(&stroke); err != nil {
		BadRequest(w, r, "bad stroke JSON: %v", err)
		return
	}
	if len(stroke.Points) < 2 {
		BadRequest(w, r, "stroke must have at least 2 points")
		return
	}
	s.annotations.AddStroke(stroke)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) clearAnnotationsHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	s.annotations.ClearROIs()
	s.annotations.ClearStrokes()
	w.WriteHeader(http.StatusNoContent)
}
