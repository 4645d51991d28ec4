package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/minimap"
	"github.com/matzehuels/organigram/pkg/render"
	"github.com/matzehuels/organigram/pkg/session"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// LayoutResponse is returned by the layout endpoint.
type LayoutResponse struct {
	Chart   chart.Chart  `json:"chart"`
	Skipped []chart.Edge `json:"skipped"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, charts)
}

// replaceCharts stores the posted collection in place of all existing
// charts. Structural problems are repaired rather than rejected so that any
// collection the editor produced can be saved.
func (s *Server) replaceCharts(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	charts, err := chart.Parse(data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	now := time.Now().UTC()
	for i := range charts {
		c := &charts[i]
		if rep := chart.Repair(c); rep.Changed() {
			s.log.Warn("Repaired chart", "id", c.ID, "dropped", len(rep.DroppedEdges), "renumbered", len(rep.Renumbered))
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
	}
	if err := s.store.ReplaceAll(r.Context(), charts); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) putChart(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := errors.ValidateChartID(id.String()); err != nil {
		s.respondError(w, r, err)
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	c, err := chart.ParseChart(data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	switch {
	case c.ID == "":
		c.ID = id
	case c.ID != id:
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidID, "chart id %q does not match path id %q", c.ID, id))
		return
	}
	if c.Name != "" {
		if err := errors.ValidateChartName(c.Name); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := chart.Validate(&c); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), c); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) deleteChart(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), pathID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// layoutChart recomputes block positions with the tree layout and stores
// the result.
func (s *Server) layoutChart(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := append([]session.Option{session.WithLogger(s.log)}, s.sessionOpts...)
	sess := session.Open(c, opts...)
	defer sess.Close()
	res := sess.ResetLayout()
	if err := sess.Save(r.Context(), s.store); err != nil {
		s.respondError(w, r, err)
		return
	}

	skipped := res.Skipped
	if skipped == nil {
		skipped = []chart.Edge{}
	}
	respondJSON(w, http.StatusOK, LayoutResponse{Chart: sess.Chart(), Skipped: skipped})
}

// exportChart renders a stored chart. Query parameters: scale (png),
// margin, detailed (dot, graphviz) and images=false.
func (s *Server) exportChart(w http.ResponseWriter, r *http.Request) {
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := exportOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.store.Get(r.Context(), pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data, err := s.exporter.Export(r.Context(), c, f, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", c.ID.String()+"."+f.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Canvas size assumed by the minimap endpoint when the query omits one.
const (
	defaultCanvasWidth  = 1200
	defaultCanvasHeight = 800
)

// minimapPNG draws the overview of a stored chart as the editor shows it
// right after fit-to-content. Query parameters: width and height of the
// editor canvas in pixels.
func (s *Server) minimapPNG(w http.ResponseWriter, r *http.Request) {
	size, err := canvasSize(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.store.Get(r.Context(), pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := append([]session.Option{session.WithLogger(s.log)}, s.sessionOpts...)
	opts = append(opts, session.WithCanvasSize(size))
	sess := session.Open(c, opts...)
	defer sess.Close()
	sess.FitToContent()

	var buf bytes.Buffer
	label := fmt.Sprintf("%d%%", sess.Viewport.ZoomPercent())
	if err := minimap.RenderPNG(&buf, sess.Minimap(), label); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render minimap"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func canvasSize(r *http.Request) (geom.Size, error) {
	size := geom.Sz(defaultCanvasWidth, defaultCanvasHeight)
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"width", &size.W}, {"height", &size.H}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return size, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", p.name, v)
		}
		*p.dst = n
	}
	return size, nil
}

func exportOptions(r *http.Request) (render.Options, error) {
	q := r.URL.Query()
	var opts render.Options
	var err error
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil || opts.Scale <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v)
		}
	}
	if v := q.Get("margin"); v != "" {
		if opts.Margin, err = strconv.ParseFloat(v, 64); err != nil || opts.Margin < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid margin %q", v)
		}
	}
	if v := q.Get("detailed"); v != "" {
		if opts.Detailed, err = strconv.ParseBool(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid detailed flag %q", v)
		}
	}
	if v := q.Get("images"); v != "" {
		images, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid images flag %q", v)
		}
		opts.NoImages = !images
	}
	view, err := exportView(r)
	if err != nil {
		return opts, err
	}
	opts.View = view
	return opts, nil
}

// exportView reads an editor viewport from offsetX, offsetY and zoom, with
// width and height as the canvas size. It returns nil when none of the
// viewport parameters is set.
func exportView(r *http.Request) (*render.View, error) {
	q := r.URL.Query()
	if q.Get("offsetX") == "" && q.Get("offsetY") == "" && q.Get("zoom") == "" {
		return nil, nil
	}
	size, err := canvasSize(r)
	if err != nil {
		return nil, err
	}
	v := &render.View{State: viewport.State{Zoom: 1}, Size: size}
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"offsetX", &v.State.Offset.X}, {"offsetY", &v.State.Offset.Y}, {"zoom", &v.State.Zoom}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", p.name, s)
		}
		*p.dst = n
	}
	if v.State.Zoom <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid zoom %q", q.Get("zoom"))
	}
	return v, nil
}

// =============================================================================
// Helpers
// =============================================================================

func pathID(r *http.Request) chart.ID {
	return chart.ID(chi.URLParam(r, "id"))
}

// readBody reads the request body up to the configured limit. On failure
// it has already written the response.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return nil, false
	}
	return data, true
}

// statusCode maps an error code to an HTTP status.
func statusCode(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err)
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
