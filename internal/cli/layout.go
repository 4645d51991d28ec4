package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/session"
)

// layoutOpts holds the flags of the layout command. Zero spacing values
// keep the configured ones.
type layoutOpts struct {
	chartID         string
	output          string
	dryRun          bool
	horizontalGap   float64
	verticalSpacing float64
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout CHART",
		Short: "Arrange a chart as a top-down tree",
		Long: `Recompute every block position of a chart.

CHART is a stored chart id or a JSON/YAML file. Each root's subtree is laid
out left to right, with children centred under their parent. Blocks with
several parents are placed under the first; connections that would close a
cycle are reported and left out of the placement.

The result is written back to where the chart came from, or to --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.chartID, "chart", "", "chart id when CHART is a file with several charts")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the laid out chart to this file instead")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "compute the layout without saving it")
	cmd.Flags().Float64Var(&opts.horizontalGap, "horizontal-gap", 0, "gap between sibling subtrees (default from config)")
	cmd.Flags().Float64Var(&opts.verticalSpacing, "vertical-spacing", 0, "distance between levels (default from config)")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, arg string, opts layoutOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ch, src, err := c.resolveChart(ctx, arg, opts.chartID)
	if err != nil {
		return err
	}
	defer src.close()

	prog := newProgress(logger)
	laid, skipped := c.layoutChart(ch, opts)
	prog.done("Laid out chart", "blocks", len(laid.Blocks))

	out := cmd.OutOrStdout()
	for _, e := range skipped {
		printWarning(out, "Connection %d → %d not used for placement", e.From, e.To)
	}

	switch {
	case opts.dryRun:
		printInfo(out, "Dry run, nothing saved")
		return nil
	case opts.output != "":
		if err := chart.WriteFile(opts.output, []chart.Chart{laid}); err != nil {
			return err
		}
		printSuccess(out, "Layout complete")
		printFile(out, opts.output)
	default:
		if err := src.save(ctx, laid); err != nil {
			return err
		}
		printSuccess(out, "Layout complete")
		if src.path != "" {
			printFile(out, src.path)
		}
	}
	printNextStep(out, "Render", fmt.Sprintf("%s render %s -f svg", appName, arg))
	return nil
}

// layoutChart applies the tree layout to ch through an editing session.
func (c *CLI) layoutChart(ch chart.Chart, opts layoutOpts) (chart.Chart, []chart.Edge) {
	cfg := c.settings()
	lo := cfg.LayoutOptions()
	if opts.horizontalGap > 0 {
		lo.HorizontalGap = opts.horizontalGap
	}
	if opts.verticalSpacing > 0 {
		lo.VerticalSpacing = opts.verticalSpacing
	}

	sessOpts := append(cfg.SessionOptions(), session.WithLayout(lo), session.WithLogger(c.Logger))
	sess := session.Open(ch, sessOpts...)
	defer sess.Close()

	res := sess.ResetLayout()
	return sess.Chart(), res.Skipped
}
