package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/barnlog/internal/cli/formatter"
	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/repository"
)

func (a *App) scopedHorse(cmd *cobra.Command, horseID string) (*domain.Horse, error) {
	barnID, err := a.barn()
	if err != nil {
		return nil, err
	}
	return a.Horses.Get(cmd.Context(), barnID, horseID)
}

func newSignalsCmd(app *App) *cobra.Command {
	var horseID string
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Show the training signals a summary would be built from",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.scopedHorse(cmd, horseID)
			if err != nil {
				return err
			}
			p, err := app.Summaries.Preview(cmd.Context(), h.ID, app.now())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSignals(h.Name, p.Signals, p.RowCount))
			if !p.Eligible {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("\nNot enough recent sessions for a summary yet."))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&horseID, "horse", "", "Horse ID")
	_ = cmd.MarkFlagRequired("horse")
	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate or show a horse's training recap",
	}

	var genHorse string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new recap",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.scopedHorse(cmd, genHorse)
			if err != nil {
				return err
			}
			out, err := app.Summaries.Generate(cmd.Context(), h, app.now())
			var pre *intelligence.PreconditionError
			if errors.As(err, &pre) {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleYellow.Render(pre.Message))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSummary(h.Name, out.Summary, app.now()))
			return nil
		},
	}
	generate.Flags().StringVar(&genHorse, "horse", "", "Horse ID")
	_ = generate.MarkFlagRequired("horse")

	var showHorse string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the latest recap",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.scopedHorse(cmd, showHorse)
			if err != nil {
				return err
			}
			s, err := app.Summaries.Latest(cmd.Context(), h.ID)
			if errors.Is(err, repository.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No recap yet. Run `barnlog summary generate`."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSummary(h.Name, s, app.now()))
			return nil
		},
	}
	show.Flags().StringVar(&showHorse, "horse", "", "Horse ID")
	_ = show.MarkFlagRequired("horse")

	cmd.AddCommand(generate, show)
	return cmd
}
