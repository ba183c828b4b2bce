package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/barnlog/internal/cli/formatter"
	"github.com/alexanderramin/barnlog/internal/domain"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Log and review training sessions",
	}
	cmd.AddCommand(
		newSessionLogCmd(app),
		newSessionListCmd(app),
		newSessionRemoveCmd(app),
	)
	return cmd
}

func newSessionLogCmd(app *App) *cobra.Command {
	var horseID, riderID, workType, date, notes string
	var minutes int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a ride or groundwork session",
		RunE: func(cmd *cobra.Command, args []string) error {
			barnID, err := app.barn()
			if err != nil {
				return err
			}
			day := app.now().UTC().Truncate(24 * time.Hour)
			if date != "" {
				if day, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			s := &domain.Session{
				HorseID:         horseID,
				RiderID:         riderID,
				Date:            day,
				WorkType:        domain.WorkType(strings.ToLower(workType)),
				DurationMinutes: minutes,
				Notes:           notes,
			}
			if err := app.Sessions.LogSession(cmd.Context(), barnID, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s of %s on %s for %s (%s)\n",
				formatter.Minutes(s.DurationMinutes), s.WorkType.Label(), s.Date.Format(time.DateOnly), s.RiderName, s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&horseID, "horse", "", "Horse ID")
	cmd.Flags().StringVar(&riderID, "rider", "", "Rider ID")
	cmd.Flags().StringVar(&workType, "type", string(domain.WorkFlat), "Work type: "+domain.WorkTypeCodes())
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Session duration in minutes")
	cmd.Flags().StringVar(&date, "date", "", "Session date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "How the horse went")
	_ = cmd.MarkFlagRequired("horse")
	_ = cmd.MarkFlagRequired("rider")
	_ = cmd.MarkFlagRequired("minutes")
	return cmd
}

func newSessionListCmd(app *App) *cobra.Command {
	var horseID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a horse's sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			barnID, err := app.barn()
			if err != nil {
				return err
			}
			sessions, err := app.Sessions.ListByHorse(cmd.Context(), barnID, horseID, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSessions(sessions, app.now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&horseID, "horse", "", "Horse ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to show")
	_ = cmd.MarkFlagRequired("horse")
	return cmd
}

func newSessionRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			barnID, err := app.barn()
			if err != nil {
				return err
			}
			if err := app.Sessions.Delete(cmd.Context(), barnID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
