package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/organigram/pkg/cache"
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/observability"
)

// Format is an export format.
type Format string

const (
	FormatSVG      Format = "svg"
	FormatPDF      Format = "pdf"
	FormatPNG      Format = "png"
	FormatDOT      Format = "dot"      // Graphviz source
	FormatGraphviz Format = "graphviz" // SVG laid out by Graphviz
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every export format.
var Formats = []Format{FormatSVG, FormatPDF, FormatPNG, FormatDOT, FormatGraphviz, FormatJSON, FormatYAML}

// ParseFormat parses a format name, case-insensitively. "yml" is accepted
// for YAML.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return FormatYAML, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG, FormatGraphviz:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/octet-stream"
}

// Extension returns the file extension of f without the dot.
func (f Format) Extension() string {
	if f == FormatGraphviz {
		return "svg"
	}
	return string(f)
}

func (f Format) expensive() bool {
	return f == FormatPDF || f == FormatPNG || f == FormatGraphviz
}

// Options are the render settings shared by all formats.
type Options struct {
	Scale    float64 // PNG scale factor, default 2
	Margin   float64 // page margin, default DefaultMargin
	View     *View   // reproduce an editor viewport instead of the full chart
	NoImages bool
	Detailed bool // Graphviz labels with group and title
}

func (o Options) svgOptions() []SVGOption {
	var opts []SVGOption
	if o.Margin > 0 {
		opts = append(opts, WithMargin(o.Margin))
	}
	if o.View != nil {
		opts = append(opts, WithViewport(*o.View))
	}
	if o.NoImages {
		opts = append(opts, WithoutImages())
	}
	return opts
}

func (o Options) keyOpts(f Format) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: string(f), Scale: o.Scale, Margin: o.Margin, Images: !o.NoImages}
	if o.View != nil {
		k.Viewport = fmt.Sprintf("%g,%g,%g,%g,%g", o.View.State.Offset.X, o.View.State.Offset.Y, o.View.State.Zoom, o.View.Size.W, o.View.Size.H)
	}
	if o.Detailed {
		k.Format += "+detailed"
	}
	return k
}

// Render produces c in format f without caching.
func Render(ctx context.Context, c chart.Chart, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatSVG:
		return RenderSVG(c, opts.svgOptions()...), nil
	case FormatPDF:
		return ToPDF(ctx, RenderSVG(c, opts.svgOptions()...))
	case FormatPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = 2
		}
		return ToPNG(ctx, RenderSVG(c, opts.svgOptions()...), scale)
	case FormatDOT:
		return []byte(ToDOT(c, DOTOptions{Detailed: opts.Detailed})), nil
	case FormatGraphviz:
		return RenderDOT(ctx, ToDOT(c, DOTOptions{Detailed: opts.Detailed}))
	case FormatJSON:
		return chart.Marshal(c, chart.FormatJSON)
	case FormatYAML:
		return chart.Marshal(c, chart.FormatYAML)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported export format %q", f)
}

// Exporter renders charts through an artifact cache.
type Exporter struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewExporter returns an exporter using c for artifacts. A nil cache
// disables caching; a nil keyer selects the default keyer.
func NewExporter(c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Exporter {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Exporter{cache: c, keyer: keyer, ttl: ttl}
}

// Export renders c in format f. PDF, PNG and Graphviz output is served
// from the cache on repeated requests; the cheap formats are always
// rendered. Cache failures are not fatal.
func (e *Exporter) Export(ctx context.Context, c chart.Chart, f Format, opts Options) (data []byte, err error) {
	observability.Render().OnRenderStart(ctx, string(f))
	start := time.Now()
	defer func() {
		observability.Render().OnRenderComplete(ctx, string(f), len(data), time.Since(start), err)
	}()

	if !f.expensive() {
		return Render(ctx, c, f, opts)
	}

	key := e.keyer.ArtifactKey(cache.ChartHash(c), opts.keyOpts(f))
	if cached, hit, cerr := e.cache.Get(ctx, key); cerr == nil && hit {
		return cached, nil
	}

	data, err = Render(ctx, c, f, opts)
	if err != nil {
		return nil, err
	}
	_ = e.cache.Set(ctx, key, data, e.ttl)
	return data, nil
}
