package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/service"
)

// App holds the services CLI commands call into.
type App struct {
	Barns     service.BarnService
	Riders    service.RiderService
	Horses    service.HorseService
	Sessions  service.SessionService
	Summaries intelligence.SummaryService

	// Verifier is nil when no signing secret is configured.
	Verifier *auth.Verifier
	// Serve runs the HTTP server until ctx is cancelled.
	Serve func(ctx context.Context) error
	// Now defaults to time.Now.
	Now func() time.Time

	barnID string
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

var errNoBarn = errors.New("no barn selected: pass --barn or set BARNLOG_BARN")

func (a *App) barn() (string, error) {
	if a.barnID == "" {
		return "", errNoBarn
	}
	return a.barnID, nil
}

// NewRootCmd creates the top-level "barnlog" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "barnlog",
		Short:         "Training log and AI recaps for horse barns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addBarnFlag(root.PersistentFlags(), &app.barnID)

	root.AddCommand(
		newServeCmd(app),
		newBarnCmd(app),
		newRiderCmd(app),
		newHorseCmd(app),
		newSessionCmd(app),
		newSignalsCmd(app),
		newSummaryCmd(app),
		newTokenCmd(app),
	)
	return root
}

func addBarnFlag(fs *pflag.FlagSet, dst *string) {
	fs.StringVar(dst, "barn", os.Getenv("BARNLOG_BARN"), "Barn ID (defaults to $BARNLOG_BARN)")
}
