// Package config loads organigram settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/organigram/config.toml, or
// ~/.config/organigram/config.toml when XDG_CONFIG_HOME is unset. A missing
// file yields [Default]; a malformed one is an error.
//
//	[canvas]
//	grid_size = 20
//	snap = true
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/organigram/pkg/cache"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/layout"
	"github.com/matzehuels/organigram/pkg/minimap"
	"github.com/matzehuels/organigram/pkg/session"
	"github.com/matzehuels/organigram/pkg/store"
)

// Config holds organigram configuration.
type Config struct {
	Canvas  CanvasConfig  `toml:"canvas"`
	Layout  LayoutConfig  `toml:"layout"`
	Minimap MinimapConfig `toml:"minimap"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
}

// CanvasConfig controls the editor canvas.
type CanvasConfig struct {
	GridSize float64 `toml:"grid_size"`
	Snap     bool    `toml:"snap"`
	MinZoom  float64 `toml:"min_zoom"`
	MaxZoom  float64 `toml:"max_zoom"`
	ZoomStep float64 `toml:"zoom_step"`
}

// LayoutConfig controls automatic layout and block placement.
type LayoutConfig struct {
	NodeWidth       float64 `toml:"node_width"`
	NodeHeight      float64 `toml:"node_height"`
	HorizontalGap   float64 `toml:"horizontal_gap"`
	VerticalSpacing float64 `toml:"vertical_spacing"`
	LeftMargin      float64 `toml:"left_margin"`
	TopMargin       float64 `toml:"top_margin"`
	RootGapFactor   float64 `toml:"root_gap_factor"`
	AnchorGap       float64 `toml:"anchor_gap"`
}

// MinimapConfig controls the overview.
type MinimapConfig struct {
	Size    float64 `toml:"size"`
	Padding float64 `toml:"padding"`
}

// StoreConfig selects chart persistence.
type StoreConfig struct {
	Backend         string `toml:"backend"` // "file", "memory", "mongo"
	Dir             string `toml:"dir"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig selects the render artifact cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"` // "file", "redis", "none"
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "168h".
type Duration struct{ time.Duration }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	l := layout.DefaultOptions()
	m := minimap.DefaultOptions()
	return &Config{
		Canvas: CanvasConfig{GridSize: 20, Snap: true, MinZoom: 0.1, MaxZoom: 3, ZoomStep: 0.1},
		Layout: LayoutConfig{
			NodeWidth:       l.NodeWidth,
			NodeHeight:      100,
			HorizontalGap:   l.HorizontalGap,
			VerticalSpacing: l.VerticalSpacing,
			LeftMargin:      l.LeftMargin,
			TopMargin:       l.TopMargin,
			RootGapFactor:   l.RootGapFactor,
			AnchorGap:       150,
		},
		Minimap: MinimapConfig{Size: m.Size, Padding: m.Padding},
		Store:   StoreConfig{Backend: store.BackendFile},
		Cache:   CacheConfig{Backend: cache.BackendFile, TTL: Duration{cache.DefaultTTL}},
		Server: ServerConfig{
			Addr:           ":3001",
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   50 << 20,
		},
	}
}

// Dir returns the organigram config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "organigram")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path, or at Path() when path is empty.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, or to Path() when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, Default())
}

// Validate rejects settings the editor cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Canvas.MinZoom <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.min_zoom must be positive")
	case c.Canvas.MinZoom > c.Canvas.MaxZoom:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.min_zoom (%g) exceeds canvas.max_zoom (%g)", c.Canvas.MinZoom, c.Canvas.MaxZoom)
	case c.Canvas.ZoomStep <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.zoom_step must be positive")
	case c.Canvas.GridSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.grid_size must be positive")
	case c.Layout.NodeWidth <= 0 || c.Layout.NodeHeight <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "layout node size must be positive")
	case c.Layout.HorizontalGap <= 0 || c.Layout.VerticalSpacing <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "layout spacing must be positive")
	case c.Minimap.Size <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "minimap.size must be positive")
	case c.Server.MaxBodyBytes <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// LayoutOptions returns the spacing for layout.Compute.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		NodeWidth:       c.Layout.NodeWidth,
		HorizontalGap:   c.Layout.HorizontalGap,
		VerticalSpacing: c.Layout.VerticalSpacing,
		LeftMargin:      c.Layout.LeftMargin,
		TopMargin:       c.Layout.TopMargin,
		RootGapFactor:   c.Layout.RootGapFactor,
	}
}

// NodeSize returns the nominal block size.
func (c *Config) NodeSize() geom.Size {
	return geom.Sz(c.Layout.NodeWidth, c.Layout.NodeHeight)
}

// SessionOptions returns the editing session settings.
func (c *Config) SessionOptions() []session.Option {
	opts := []session.Option{
		session.WithLayout(c.LayoutOptions()),
		session.WithNodeSize(c.NodeSize()),
		session.WithAnchorGap(c.Layout.AnchorGap),
		session.WithMinimap(minimap.Options{Size: c.Minimap.Size, Padding: c.Minimap.Padding, NodeSize: c.NodeSize()}),
		session.WithZoom(c.Canvas.MinZoom, c.Canvas.MaxZoom, c.Canvas.ZoomStep),
	}
	if c.Canvas.Snap {
		opts = append(opts, session.WithSnap(c.Canvas.GridSize))
	}
	return opts
}

// StoreConfig returns the chart store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend:         c.Store.Backend,
		Dir:             c.Store.Dir,
		MongoURI:        c.Store.MongoURI,
		MongoDatabase:   c.Store.MongoDatabase,
		MongoCollection: c.Store.MongoCollection,
	}
}

// CacheConfig returns the artifact cache settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
	}
}
