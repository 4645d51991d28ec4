package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/organigram/pkg/chart"
)

// FileStore keeps each chart as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.local/share/organigram/charts/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "organigram", "charts")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) chartPath(id chart.ID) string {
	return filepath.Join(s.baseDir, id.String()+".json")
}

func (s *FileStore) List(ctx context.Context) (charts []chart.Chart, err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "list", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read chart dir: %w", err)
	}
	charts = []chart.Chart{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		c, err := readChartFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		charts = append(charts, c)
	}
	sortCharts(charts)
	return charts, nil
}

func (s *FileStore) Get(ctx context.Context, id chart.ID) (c chart.Chart, err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "get", start, err) }(time.Now())
	if err := validateID(id); err != nil {
		return chart.Chart{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err = readChartFile(s.chartPath(id))
	if os.IsNotExist(err) {
		return chart.Chart{}, notFound(id)
	}
	return c, err
}

func readChartFile(path string) (chart.Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return chart.Chart{}, err
		}
		return chart.Chart{}, fmt.Errorf("read chart file: %w", err)
	}
	c, err := chart.ParseChart(data)
	if err != nil {
		return chart.Chart{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

func (s *FileStore) Put(ctx context.Context, c chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "put", start, err) }(time.Now())
	if err := validateID(c.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(c)
}

// write stores c through a temporary file so readers never see a partial
// chart.
func (s *FileStore) write(c chart.Chart) error {
	data, err := json.MarshalIndent(c.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chart: %w", err)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".chart-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write chart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write chart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.chartPath(c.ID)); err != nil {
		return fmt.Errorf("write chart file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id chart.ID) (err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "delete", start, err) }(time.Now())
	if err := validateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.chartPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove chart file: %w", err)
	}
	return nil
}

func (s *FileStore) ReplaceAll(ctx context.Context, charts []chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "replace_all", start, err) }(time.Now())
	keep := make(map[string]bool, len(charts))
	for _, c := range charts {
		if err := validateID(c.ID); err != nil {
			return err
		}
		keep[c.ID.String()+".json"] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range charts {
		if err := s.write(c); err != nil {
			return err
		}
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read chart dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove chart file: %w", err)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding chart files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
