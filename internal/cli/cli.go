// Package cli implements the organigram command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/buildinfo"
	"github.com/matzehuels/organigram/pkg/cache"
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/config"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/render"
	"github.com/matzehuels/organigram/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "organigram"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Organigram edits and renders organisation charts",
		Long:         `Organigram stores organisation charts, arranges them as top-down trees and exports them as SVG, PDF, PNG or Graphviz. Charts can be edited in the terminal or served to the web editor over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.listCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration & Backends
// =============================================================================

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Logger.Debug("Loaded config", "path", path, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	c.cfg = cfg
	return nil
}

// settings returns the loaded configuration, or defaults before loading.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// openStore opens the configured chart store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, c.settings().StoreConfig())
}

// openCache opens the configured artifact cache. Cache failures are not
// fatal: rendering falls back to an uncached run.
func (c *CLI) openCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cc, err := cache.Open(ctx, c.settings().CacheConfig())
	if err != nil {
		c.Logger.Warn("Cache unavailable, continuing without", "err", err)
		return cache.NewNullCache()
	}
	return cc
}

// newExporter returns an exporter over the configured cache. The caller
// closes the returned cache.
func (c *CLI) newExporter(ctx context.Context, noCache bool) (*render.Exporter, cache.Cache) {
	cc := c.openCache(ctx, noCache)
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName)
	return render.NewExporter(cc, keyer, c.settings().Cache.TTL.Duration), cc
}

// =============================================================================
// Chart Resolution
// =============================================================================

// resolveChart loads a chart named on the command line. An existing file
// is read directly, picking the chart with chartID when the file holds
// several; anything else is looked up in the store by id.
func (c *CLI) resolveChart(ctx context.Context, arg, chartID string) (chart.Chart, source, error) {
	if _, err := os.Stat(arg); err == nil {
		charts, err := chart.ReadFile(arg)
		if err != nil {
			return chart.Chart{}, source{}, err
		}
		ch, err := pickChart(charts, chartID)
		return ch, source{path: arg, charts: charts}, err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return chart.Chart{}, source{}, err
	}
	ch, err := st.Get(ctx, chart.ID(arg))
	if err != nil {
		st.Close()
		return chart.Chart{}, source{}, err
	}
	return ch, source{store: st}, nil
}

// source remembers where a resolved chart came from so that it can be
// written back.
type source struct {
	path   string
	charts []chart.Chart
	store  store.Store
}

// save writes c back to its origin.
func (s source) save(ctx context.Context, c chart.Chart) error {
	if s.store != nil {
		return s.store.Put(ctx, c)
	}
	for i := range s.charts {
		if s.charts[i].ID == c.ID {
			s.charts[i] = c
		}
	}
	return chart.WriteFile(s.path, s.charts)
}

func (s source) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func pickChart(charts []chart.Chart, id string) (chart.Chart, error) {
	if len(charts) == 0 {
		return chart.Chart{}, errors.New(errors.ErrCodeChartNotFound, "file contains no charts")
	}
	if id == "" {
		if len(charts) > 1 {
			return chart.Chart{}, errors.New(errors.ErrCodeInvalidInput, "file contains %d charts, select one with --chart", len(charts))
		}
		return charts[0], nil
	}
	for _, ch := range charts {
		if ch.ID.String() == id {
			return ch, nil
		}
	}
	return chart.Chart{}, errors.New(errors.ErrCodeChartNotFound, "chart %q not found in file", id)
}
