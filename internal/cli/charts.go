package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/graph"
)

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	var idsOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored charts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			charts, err := st.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if idsOnly {
				for _, ch := range charts {
					fmt.Fprintln(out, ch.ID)
				}
				return nil
			}
			if len(charts) == 0 {
				printInfo(out, "No charts stored")
				printNextStep(out, "Create one", appName+" new \"Board\"")
				return nil
			}
			fmt.Fprintln(out, chartTable(charts))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&idsOnly, "quiet", "q", false, "print chart ids only")
	return cmd
}

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create an empty chart",
		Long:  `Create a chart in the store. With --root the chart starts with one block of that name.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateChartName(args[0]); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			ch := chart.New(args[0])
			if root != "" {
				m := graph.FromChart(ch, graph.WithDefaultSize(c.settings().NodeSize()))
				m.AddNode(chart.Payload{Name: root})
				ch = m.Chart()
			}
			if err := st.Put(ctx, ch); err != nil {
				return err
			}

			loggerFromContext(ctx).Debug("Created chart", "id", ch.ID)
			out := cmd.OutOrStdout()
			printSuccess(out, "Created %s", StyleValue.Render(ch.Name))
			printKeyValue(out, "id", ch.ID.String())
			printNextStep(out, "Edit it", appName+" edit "+ch.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "name of an initial root block")
	return cmd
}

// deleteCommand creates the "delete" command.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete stored charts",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(ctx, chart.ID(id)); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted %s", id)
			}
			return nil
		},
	}
}
