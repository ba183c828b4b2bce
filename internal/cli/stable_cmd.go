package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/barnlog/internal/cli/formatter"
)

func newBarnCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barn",
		Short: "Manage barns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a barn",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := app.Barns.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created barn %s (%s)\n", formatter.Bold(b.Name), b.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List barns",
			RunE: func(cmd *cobra.Command, args []string) error {
				barns, err := app.Barns.List(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(barns))
				for _, b := range barns {
					rows = append(rows, []string{formatter.Bold(b.Name), formatter.Dim(b.ID)})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"BARN", "ID"}, rows))
				return nil
			},
		},
	)
	return cmd
}

func newRiderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rider",
		Short: "Manage riders",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a rider to the barn",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				barnID, err := app.barn()
				if err != nil {
					return err
				}
				r, err := app.Riders.Add(cmd.Context(), barnID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added rider %s (%s)\n", formatter.Bold(r.Name), r.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the barn's riders",
			RunE: func(cmd *cobra.Command, args []string) error {
				barnID, err := app.barn()
				if err != nil {
					return err
				}
				riders, err := app.Riders.ListByBarn(cmd.Context(), barnID)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(riders))
				for _, r := range riders {
					rows = append(rows, []string{formatter.Bold(r.Name), formatter.Dim(r.ID)})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"RIDER", "ID"}, rows))
				return nil
			},
		},
	)
	return cmd
}

func newHorseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "horse",
		Short: "Manage horses",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a horse to the barn",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				barnID, err := app.barn()
				if err != nil {
					return err
				}
				h, err := app.Horses.Add(cmd.Context(), barnID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added horse %s (%s)\n", formatter.Bold(h.Name), h.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the barn's horses",
			RunE: func(cmd *cobra.Command, args []string) error {
				barnID, err := app.barn()
				if err != nil {
					return err
				}
				horses, err := app.Horses.ListByBarn(cmd.Context(), barnID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHorses(horses))
				return nil
			},
		},
	)
	return cmd
}
