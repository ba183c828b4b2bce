package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/barnlog/internal/auth"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return errors.New("serve is not configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
}

// newTokenCmd mints a credential for local development. Production
// credentials are issued elsewhere.
func newTokenCmd(app *App) *cobra.Command {
	var riderID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development credential for a rider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Verifier == nil {
				return errors.New("BARNLOG_JWT_SECRET is not set")
			}
			rider, err := app.Riders.GetByID(cmd.Context(), riderID)
			if err != nil {
				return err
			}
			token, err := app.Verifier.Sign(auth.Identity{RiderID: rider.ID, BarnID: rider.BarnID}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&riderID, "rider", "", "Rider ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "How long the credential stays valid")
	_ = cmd.MarkFlagRequired("rider")
	return cmd
}
