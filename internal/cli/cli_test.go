package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/organigram/pkg/chart"
)

const boardJSON = `{"organigrams": [{
	"id": "board",
	"name": "Board",
	"blocks": [
		{"id": 1, "name": "Ada", "title": "CEO", "x": 400, "y": 10},
		{"id": 2, "name": "Grace", "title": "CTO", "x": 15, "y": 700}
	],
	"connections": [
		{"from": 1, "to": 2, "fromPos": "bottom", "toPos": "top"},
		{"from": 1, "to": 9}
	]
}]}`

// testEnv is a config file pointing at a file store in a temp dir, with
// caching off.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	body := "[store]\nbackend = \"file\"\ndir = " + quote(filepath.Join(dir, "charts")) +
		"\n\n[cache]\nbackend = \"none\"\ndir = " + quote(filepath.Join(dir, "cache")) + "\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return testEnv{dir: dir, config: cfg}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (e testEnv) path(name string) string { return filepath.Join(e.dir, name) }

// run executes one organigram command line and returns its output.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func (e testEnv) writeBoard(t *testing.T) string {
	t.Helper()
	path := e.path("board.json")
	if err := os.WriteFile(path, []byte(boardJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e testEnv) exported(t *testing.T, ids ...string) []chart.Chart {
	t.Helper()
	out := e.mustRun(t, append([]string{"export"}, ids...)...)
	charts, err := chart.Parse([]byte(out))
	if err != nil {
		t.Fatalf("parse export: %v\n%s", err, out)
	}
	return charts
}

func TestNewListDelete(t *testing.T) {
	env := newTestEnv(t)

	if out := env.mustRun(t, "list"); !strings.Contains(out, "No charts stored") {
		t.Errorf("empty list output = %q", out)
	}

	out := env.mustRun(t, "new", "Sales", "--root", "Head of Sales")
	if !strings.Contains(out, "Created Sales") {
		t.Errorf("new output = %q", out)
	}

	ids := strings.Fields(env.mustRun(t, "list", "-q"))
	if len(ids) != 1 {
		t.Fatalf("ids = %v, want one", ids)
	}
	if out := env.mustRun(t, "ls"); !strings.Contains(out, "Sales") {
		t.Errorf("table missing chart name:\n%s", out)
	}

	charts := env.exported(t, ids[0])
	if len(charts) != 1 || len(charts[0].Blocks) != 1 || charts[0].Blocks[0].Name != "Head of Sales" {
		t.Fatalf("exported = %+v", charts)
	}

	if _, err := env.run(t, "new", "   "); err == nil {
		t.Error("blank chart name accepted")
	}

	env.mustRun(t, "delete", ids[0])
	if out := env.mustRun(t, "list", "-q"); strings.TrimSpace(out) != "" {
		t.Errorf("list after delete = %q", out)
	}
	if _, err := env.run(t, "delete", ids[0]); err == nil {
		t.Error("deleting a missing chart succeeded")
	}
}

func TestImportRepairsAndExport(t *testing.T) {
	env := newTestEnv(t)
	src := env.writeBoard(t)

	out := env.mustRun(t, "import", src)
	if !strings.Contains(out, "Imported 1 chart(s)") {
		t.Errorf("import output = %q", out)
	}

	charts := env.exported(t)
	if len(charts) != 1 {
		t.Fatalf("charts = %d, want 1", len(charts))
	}
	if got := len(charts[0].Connections); got != 1 {
		t.Errorf("connections = %d, want dangling one dropped", got)
	}

	yamlPath := env.path("out.yaml")
	env.mustRun(t, "export", "-o", yamlPath)
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "name: Board") {
		t.Errorf("yaml export:\n%s", data)
	}

	if _, err := env.run(t, "export", "-f", "xml"); err == nil {
		t.Error("unknown export format accepted")
	}
}

func TestImportStrictRejects(t *testing.T) {
	env := newTestEnv(t)
	src := env.writeBoard(t)

	if _, err := env.run(t, "import", "--strict", src); err == nil {
		t.Fatal("strict import of a dangling connection succeeded")
	}
	if out := env.mustRun(t, "list", "-q"); strings.TrimSpace(out) != "" {
		t.Errorf("strict failure stored charts: %q", out)
	}
}

func TestLayoutStoredChart(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", env.writeBoard(t))

	out := env.mustRun(t, "layout", "board", "--dry-run")
	if !strings.Contains(out, "Dry run") {
		t.Errorf("dry run output = %q", out)
	}
	if c := env.exported(t, "board")[0]; c.Blocks[1].X != 15 {
		t.Errorf("dry run saved positions: %+v", c.Blocks)
	}

	env.mustRun(t, "layout", "board")
	c := env.exported(t, "board")[0]
	a, b := c.Blocks[0], c.Blocks[1]
	if a.X != b.X || b.Y <= a.Y {
		t.Errorf("child not under parent: %+v", c.Blocks)
	}
}

func TestLayoutFile(t *testing.T) {
	env := newTestEnv(t)
	src := env.writeBoard(t)
	dst := env.path("laid.json")

	env.mustRun(t, "layout", src, "-o", dst, "--vertical-spacing", "300")

	charts, err := chart.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	a, b := charts[0].Blocks[0], charts[0].Blocks[1]
	if b.Y-a.Y != 300 {
		t.Errorf("vertical spacing = %v, want 300", b.Y-a.Y)
	}

	orig, _ := chart.ReadFile(src)
	if orig[0].Blocks[1].X != 15 {
		t.Error("layout with --output rewrote the source file")
	}
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", env.writeBoard(t))

	base := env.path("board")
	out := env.mustRun(t, "render", "board", "-f", "svg, dot", "-o", base)
	if !strings.Contains(out, "Rendered Board") {
		t.Errorf("render output = %q", out)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Ada")) {
		t.Errorf("svg missing content:\n%s", svg)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(dot, []byte("digraph")) {
		t.Errorf("dot output:\n%s", dot)
	}

	viewPath := env.path("view.svg")
	env.mustRun(t, "render", "board", "--view=-100,0,2", "--view-size", "800x600", "-o", viewPath)
	view, err := os.ReadFile(viewPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := `viewBox="50.0 0.0 400.0 300.0"`; !bytes.Contains(view, []byte(want)) {
		t.Errorf("viewport svg missing %s:\n%s", want, view)
	}
	if _, err := env.run(t, "render", "board", "--view", "0,0,0"); err == nil {
		t.Error("zero view zoom accepted")
	}

	if _, err := env.run(t, "render", "board", "-f", "gif"); err == nil {
		t.Error("unknown render format accepted")
	}
	if _, err := env.run(t, "render", "missing"); err == nil {
		t.Error("rendering a missing chart succeeded")
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	if out := env.mustRun(t, "config", "path"); strings.TrimSpace(out) != env.config {
		t.Errorf("config path = %q, want %q", out, env.config)
	}

	out := env.mustRun(t, "config", "show")
	for _, want := range []string{"[store]", `backend = "none"`, "[canvas]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	if out := env.mustRun(t, "config", "init"); !strings.Contains(out, "already exists") {
		t.Errorf("init over existing file = %q", out)
	}
	if out := env.mustRun(t, "cache", "path"); strings.TrimSpace(out) != env.path("cache") {
		t.Errorf("cache path = %q", out)
	}
}

func TestConfigInvalid(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.config, []byte("[canvas]\nmin_zoom = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "list"); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestCacheClearNonFileBackend(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "cache", "clear")
	if !strings.Contains(out, "cannot be cleared") {
		t.Errorf("cache clear output = %q", out)
	}
}

func TestPickChart(t *testing.T) {
	charts := []chart.Chart{{ID: "a"}, {ID: "b"}}

	if _, err := pickChart(nil, ""); err == nil {
		t.Error("empty file accepted")
	}
	if _, err := pickChart(charts, ""); err == nil {
		t.Error("ambiguous file accepted")
	}
	if c, err := pickChart(charts, "b"); err != nil || c.ID != "b" {
		t.Errorf("pickChart(b) = %v, %v", c.ID, err)
	}
	if c, err := pickChart(charts[:1], ""); err != nil || c.ID != "a" {
		t.Errorf("single chart = %v, %v", c.ID, err)
	}
}
