// Package store persists organigram charts.
//
// A [Store] holds a collection of [chart.Chart] records keyed by chart id.
// Three backends are provided:
//   - memory: process-local, for tests and the server's ephemeral mode
//   - file: one JSON file per chart in a directory, for the CLI
//   - mongo: a MongoDB collection, for shared server deployments
//
// Missing charts are reported as errors matching [ErrNotFound] with the
// CHART_NOT_FOUND code.
//
// # Usage
//
//	st, err := store.Open(ctx, store.Config{Backend: "file", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	c, err := st.Get(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    // ...
//	}
package store

import (
	"cmp"
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/observability"
)

// ErrNotFound is returned (wrapped) when a chart id is unknown.
var ErrNotFound = stderrors.New("chart not found")

// Store is a chart collection.
type Store interface {
	// List returns every chart, oldest first.
	List(ctx context.Context) ([]chart.Chart, error)
	// Get returns one chart.
	Get(ctx context.Context, id chart.ID) (chart.Chart, error)
	// Put creates or replaces a chart.
	Put(ctx context.Context, c chart.Chart) error
	// Delete removes a chart.
	Delete(ctx context.Context, id chart.ID) error
	// ReplaceAll makes the collection exactly charts.
	ReplaceAll(ctx context.Context, charts []chart.Chart) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// File backend
	Dir string

	// Mongo backend
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		st, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMongo:
		st, err := NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (memory, file, mongo)", cfg.Backend)
}

func notFound(id chart.ID) error {
	return errors.Wrap(errors.ErrCodeChartNotFound, ErrNotFound, "chart %s", id)
}

func validateID(id chart.ID) error {
	return errors.ValidateChartID(id.String())
}

// observe reports one store call to the registered hooks.
func observe(ctx context.Context, backend, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, backend, op, time.Since(start), err)
}

// sortCharts orders charts oldest first, then by id.
func sortCharts(charts []chart.Chart) {
	slices.SortStableFunc(charts, func(a, b chart.Chart) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
