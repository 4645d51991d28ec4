package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
)

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	var (
		replace bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import charts from a JSON or YAML file",
		Long: `Import charts into the store.

The file holds an array of charts or an object {"organigrams": [...]}, in
JSON or YAML. Structural problems such as connections to missing blocks are
repaired and reported unless --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			charts, err := chart.ReadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := range charts {
				if strict {
					if err := chart.Validate(&charts[i]); err != nil {
						return err
					}
					continue
				}
				printRepair(out, charts[i], chart.Repair(&charts[i]))
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if replace {
				err = st.ReplaceAll(ctx, charts)
			} else {
				for _, ch := range charts {
					if err = st.Put(ctx, ch); err != nil {
						break
					}
				}
			}
			if err != nil {
				return err
			}
			printSuccess(out, "Imported %s chart(s)", StyleNumber.Render(fmt.Sprint(len(charts))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace all stored charts instead of merging")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject invalid charts instead of repairing them")
	return cmd
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export [ID...]",
		Short: "Export stored charts as JSON or YAML",
		Long:  `Write stored charts as a chart collection. Without ids every chart is exported. The collection goes to stdout unless --output is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := chart.FormatFromPath(output)
			if format != "" {
				var err error
				if f, err = chart.ParseFormat(format); err != nil {
					return err
				}
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var charts []chart.Chart
			if len(args) == 0 {
				if charts, err = st.List(ctx); err != nil {
					return err
				}
			}
			for _, id := range args {
				ch, err := st.Get(ctx, chart.ID(id))
				if err != nil {
					return err
				}
				charts = append(charts, ch)
			}

			if output == "" {
				return chart.Write(cmd.OutOrStdout(), charts, f)
			}
			file, err := os.Create(output)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "create %s", output)
			}
			if err := chart.Write(file, charts, f); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Exported %d chart(s)", len(charts))
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json (default) or yaml; inferred from --output")
	return cmd
}
