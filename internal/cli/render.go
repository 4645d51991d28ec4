package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/render"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	chartID  string
	output   string   // output file, or base path for several formats
	formats  []string // svg, pdf, png, dot, graphviz, json, yaml
	scale    float64  // PNG scale factor
	margin   float64  // page margin around the blocks
	detailed bool     // group and title in Graphviz labels
	noImages bool
	layout   bool // apply the tree layout before rendering
	noCache  bool
	view     string // editor viewport "offsetX,offsetY,zoom"
	viewSize string // editor canvas "WIDTHxHEIGHT"
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 2, margin: render.DefaultMargin, viewSize: "1200x800"}

	cmd := &cobra.Command{
		Use:   "render CHART",
		Short: "Render a chart to SVG, PDF, PNG or Graphviz",
		Long: `Render a chart as a static document.

CHART is a stored chart id or a JSON/YAML file. The SVG reproduces the
editor canvas: connections run from the parent's bottom centre to the child's
top centre and the page covers every block plus the margin. PDF and PNG are
converted from the SVG with rsvg-convert. "dot" writes Graphviz source and
"graphviz" lets Graphviz lay the chart out as SVG.

With --view the SVG, PDF and PNG show only what an editor canvas of
--view-size would show at that pan offset and zoom.

PDF, PNG and Graphviz output is cached between runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if _, err := parseView(opts.view, opts.viewSize); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.chartID, "chart", "", "chart id when CHART is a file with several charts")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png, dot, graphviz, json, yaml (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().Float64Var(&opts.margin, "margin", opts.margin, "page margin")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include group and title in Graphviz labels")
	cmd.Flags().BoolVar(&opts.noImages, "no-images", false, "omit block images")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "apply the tree layout before rendering")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&opts.view, "view", "", "render an editor viewport: offsetX,offsetY,zoom")
	cmd.Flags().StringVar(&opts.viewSize, "view-size", opts.viewSize, "editor canvas size for --view: WIDTHxHEIGHT")

	return cmd
}

// parseFormats parses the --format flag. If empty, it defaults to svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{string(render.FormatSVG)}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validateFormats checks that every requested format is known.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if _, err := render.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// parseView parses the --view and --view-size flags. An empty view means
// the full chart.
func parseView(view, size string) (*render.View, error) {
	if view == "" {
		return nil, nil
	}
	parts := strings.Split(view, ",")
	if len(parts) != 3 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid view %q: want offsetX,offsetY,zoom", view)
	}
	var nums [3]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid view %q: want offsetX,offsetY,zoom", view)
		}
		nums[i] = n
	}
	if nums[2] <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid view zoom %g", nums[2])
	}

	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if !ok || errW != nil || errH != nil || width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid view size %q: want WIDTHxHEIGHT", size)
	}

	return &render.View{
		State: viewport.State{Offset: geom.Pt(nums[0], nums[1]), Zoom: nums[2]},
		Size:  geom.Sz(width, height),
	}, nil
}

// basePath derives the output path without extension. Without --output
// it is the input file stem or the chart id.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ch, src, err := c.resolveChart(ctx, input, opts.chartID)
	if err != nil {
		return err
	}
	src.close()
	logger.Debug("Loaded chart", "id", ch.ID, "blocks", len(ch.Blocks), "connections", len(ch.Connections))

	if opts.layout {
		var skipped []chart.Edge
		ch, skipped = c.layoutChart(ch, layoutOpts{})
		logger.Debug("Applied layout", "skipped", len(skipped))
	}

	exporter, cc := c.newExporter(ctx, opts.noCache)
	defer cc.Close()

	view, err := parseView(opts.view, opts.viewSize)
	if err != nil {
		return err
	}
	ropts := render.Options{
		Scale:    opts.scale,
		Margin:   opts.margin,
		View:     view,
		NoImages: opts.noImages,
		Detailed: opts.detailed,
	}

	out := cmd.OutOrStdout()
	base := basePath(opts.output, input)
	for _, name := range opts.formats {
		f, _ := render.ParseFormat(name)

		path := base + "." + f.Extension()
		if f == render.FormatGraphviz {
			path = base + ".graphviz.svg"
		}
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}

		if err := c.renderTo(ctx, exporter, ch, f, ropts, path); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		printFile(out, path)
	}
	printSuccess(out, "Rendered %s", StyleValue.Render(displayName(ch)))
	return nil
}

// renderTo exports ch in format f and writes it to path. Slow formats show
// a spinner.
func (c *CLI) renderTo(ctx context.Context, e *render.Exporter, ch chart.Chart, f render.Format, opts render.Options, path string) error {
	var data []byte
	export := func(ctx context.Context) error {
		var err error
		data, err = e.Export(ctx, ch, f, opts)
		return err
	}

	var err error
	if f == render.FormatSVG || f == render.FormatDOT || f == render.FormatJSON || f == render.FormatYAML {
		err = export(ctx)
	} else {
		err = withSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", f), export)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	loggerFromContext(ctx).Debug("Wrote artifact", "path", path, "bytes", len(data))
	return nil
}

func displayName(c chart.Chart) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID.String()
}
