package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/store"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	srv := httptest.NewServer(New(st, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func sampleChart(id string) chart.Chart {
	return chart.Chart{
		ID:        chart.ID(id),
		Name:      "Board",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Blocks: []chart.Node{
			{ID: 1, Payload: chart.Payload{Name: "Ada", Title: "CEO"}, X: 400, Y: 10},
			{ID: 2, Payload: chart.Payload{Name: "Grace", Title: "CTO"}, X: 15, Y: 700},
		},
		Connections: []chart.Edge{{From: 1, To: 2, FromSide: chart.SideBottom, ToSide: chart.SideTop}},
	}
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp); got["status"] != "healthy" {
		t.Errorf("body = %v", got)
	}
}

func TestReplaceAndList(t *testing.T) {
	srv, st := newTestServer(t)

	body := []byte(`[
		{"id": 1700000000000, "name": "Old", "blocks": [{"id": 1, "name": "A", "x": 0, "y": 0}], "connections": []},
		{"id": "b", "name": "Broken", "blocks": [{"id": 1, "x": 0, "y": 0}], "connections": [{"from": 1, "to": 9}]}
	]`)
	resp := do(t, http.MethodPost, srv.URL+"/api/organigrams", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want 200", resp.StatusCode)
	}
	if got := decode[map[string]bool](t, resp); !got["success"] {
		t.Errorf("POST body = %v", got)
	}

	stored, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d charts, want 2", len(stored))
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/organigrams", nil)
	charts := decode[[]chart.Chart](t, resp)
	if len(charts) != 2 {
		t.Fatalf("GET returned %d charts, want 2", len(charts))
	}
	for _, c := range charts {
		if c.ID == "b" && len(c.Connections) != 0 {
			t.Errorf("dangling connection should have been repaired away: %v", c.Connections)
		}
		if c.CreatedAt.IsZero() {
			t.Errorf("chart %s has no creation time", c.ID)
		}
	}

	// Replace semantics: a second POST drops charts not in the payload.
	do(t, http.MethodPost, srv.URL+"/api/organigrams", []byte(`[]`))
	resp = do(t, http.MethodGet, srv.URL+"/api/organigrams", nil)
	if charts := decode[[]chart.Chart](t, resp); len(charts) != 0 {
		t.Errorf("after empty replace got %d charts", len(charts))
	}
}

func TestReplaceRejectsMalformed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/api/organigrams", []byte(`{"nope": true}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := decode[errorResponse](t, resp); got.Code != "INVALID_FORMAT" {
		t.Errorf("code = %q, want INVALID_FORMAT", got.Code)
	}
}

func TestChartCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/api/organigrams/org-1"

	resp := do(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET missing status = %d, want 404", resp.StatusCode)
	}

	c := sampleChart("")
	data, _ := chart.Marshal(c, chart.FormatJSON)
	resp = do(t, http.MethodPut, url, data)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	if got := decode[chart.Chart](t, resp); got.ID != "org-1" {
		t.Errorf("PUT assigned id %q, want org-1", got.ID)
	}

	resp = do(t, http.MethodGet, url, nil)
	got := decode[chart.Chart](t, resp)
	if got.Name != "Board" || len(got.Blocks) != 2 {
		t.Errorf("GET = %+v", got)
	}

	resp = do(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", resp.StatusCode)
	}
}

func TestPutRejects(t *testing.T) {
	srv, _ := newTestServer(t)

	invalid := sampleChart("org-1")
	invalid.Connections = append(invalid.Connections, chart.Edge{From: 2, To: 2})
	invalidBody, _ := chart.Marshal(invalid, chart.FormatJSON)

	mismatchBody, _ := chart.Marshal(sampleChart("other"), chart.FormatJSON)

	badName := sampleChart("org-1")
	badName.Name = "Bo\x01ard"
	badNameBody, _ := chart.Marshal(badName, chart.FormatJSON)

	tests := []struct {
		name string
		body []byte
		code string
	}{
		{"invalid chart", invalidBody, "INVALID_CHART"},
		{"id mismatch", mismatchBody, "INVALID_ID"},
		{"garbage", []byte(`{{{`), "INVALID_FORMAT"},
		{"control character in name", badNameBody, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, srv.URL+"/api/organigrams/org-1", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if got := decode[errorResponse](t, resp); string(got.Code) != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv, _ := newTestServer(t, WithMaxBodyBytes(16))
	resp := do(t, http.MethodPost, srv.URL+"/api/organigrams", []byte(strings.Repeat(" ", 64)+"[]"))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	if err := st.Put(ctx, sampleChart("org-1")); err != nil {
		t.Fatal(err)
	}

	resp := do(t, http.MethodPost, srv.URL+"/api/organigrams/org-1/layout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[LayoutResponse](t, resp)
	if len(got.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", got.Skipped)
	}

	stored, err := st.Get(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := stored.Block(1)
	b, _ := stored.Block(2)
	if b.X != a.X || b.Y != a.Y+200 {
		t.Errorf("child at (%v,%v), parent at (%v,%v); want child directly 200 below", b.X, b.Y, a.X, a.Y)
	}
	if got.Chart.Blocks[1].Y != b.Y {
		t.Errorf("response chart differs from stored chart")
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/organigrams/missing/layout", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing chart status = %d, want 404", resp.StatusCode)
	}
}

func TestMinimapEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.Put(context.Background(), sampleChart("board")); err != nil {
		t.Fatal(err)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/organigrams/board/minimap.png?width=800&height=600", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != b.Dy() || b.Dx() == 0 {
		t.Errorf("overview is %dx%d, want a square", b.Dx(), b.Dy())
	}

	for _, tt := range []struct {
		path string
		want int
	}{
		{"/api/organigrams/board/minimap.png?width=-5", http.StatusBadRequest},
		{"/api/organigrams/board/minimap.png?height=tall", http.StatusBadRequest},
		{"/api/organigrams/missing/minimap.png", http.StatusNotFound},
	} {
		if resp := do(t, http.MethodGet, srv.URL+tt.path, nil); resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.Put(context.Background(), sampleChart("org-1")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format      string
		status      int
		contentType string
		contains    string
	}{
		{"svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"dot", http.StatusOK, "text/vnd.graphviz", "digraph"},
		{"json", http.StatusOK, "application/json", `"name": "Board"`},
		{"yml", http.StatusOK, "application/yaml", "name: Board"},
		{"bmp", http.StatusBadRequest, "application/json", "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodGet, srv.URL+"/api/organigrams/org-1/export/"+tt.format, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, body)
			}
		})
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/organigrams/org-1/export/svg?scale=-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad scale status = %d, want 400", resp.StatusCode)
	}
}

func TestExportViewport(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.Put(context.Background(), sampleChart("org-1")); err != nil {
		t.Fatal(err)
	}
	base := srv.URL + "/api/organigrams/org-1/export/svg"

	resp := do(t, http.MethodGet, base+"?offsetX=-100&zoom=2&width=800&height=600", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if want := `viewBox="50.0 0.0 400.0 300.0" width="800" height="600"`; !strings.Contains(string(body), want) {
		t.Errorf("svg missing %q:\n%s", want, body)
	}

	for _, q := range []string{"?zoom=0", "?zoom=abc", "?offsetY=NaN", "?offsetX=1&width=-1"} {
		resp := do(t, http.MethodGet, base+q, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, WithAllowedOrigins("http://localhost:5173"))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/organigrams", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeChartNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidID, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidChart, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.Wrap(errors.ErrCodeStore, io.ErrUnexpectedEOF, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusCode(tt.err); got != tt.want {
			t.Errorf("statusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(store.NewMemoryStore(), WithLogger(log.New(io.Discard)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
