package cache

import (
	"encoding/json"

	"github.com/matzehuels/organigram/pkg/chart"
)

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Margin   float64 `json:"margin,omitempty"`
	Viewport string  `json:"viewport,omitempty"` // serialized viewport state, empty for full extent
	Images   bool    `json:"images,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	ArtifactKey(chartHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns the key of a rendered artifact.
func (DefaultKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", chartHash, opts)
}

// ScopedKeyer prefixes every key, giving each store or tenant its own
// namespace in a shared cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(chartHash, opts)
}

// ChartHash hashes the rendered content of a chart. The id and creation
// time are excluded, so copies of a chart share artifacts.
func ChartHash(c chart.Chart) string {
	data, _ := json.Marshal(struct {
		Name        string       `json:"name"`
		Blocks      []chart.Node `json:"blocks"`
		Connections []chart.Edge `json:"connections"`
	}{c.Name, c.Blocks, c.Connections})
	return Hash(data)
}
