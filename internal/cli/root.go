package cli

import (
	"time"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects  service.ProjectService
	WBS       service.WBSService
	Deps      service.DependencyService
	Schedule  service.ScheduleService
	Progress  service.ProgressService
	Baselines service.BaselineService
	Sprints   service.SprintService
	Import    service.ImportService

	// Numbers formats percents for the configured locale.
	Numbers *formatter.Numbers
	// Now stamps execution events recorded without an explicit time.
	Now func() time.Time
}

func (a *App) numbers() *formatter.Numbers {
	if a.Numbers == nil {
		a.Numbers = formatter.NewNumbers("en", 0, 1)
	}
	return a.Numbers
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now()
}

// NewRootCmd creates the top-level "cronograma" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var plain bool

	root := &cobra.Command{
		Use:           "cronograma",
		Short:         "WBS schedule and progress engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if plain {
				formatter.SetPlain(true)
			}
		},
	}
	root.PersistentFlags().BoolVar(&plain, "plain", false, "Disable colors and box glyphs")

	root.AddCommand(
		newProjectCmd(app),
		newWBSCmd(app),
		newSubtaskCmd(app),
		newDepCmd(app),
		newScheduleCmd(app),
		newProgressCmd(app),
		newBaselineCmd(app),
		newSprintCmd(app),
		newImportCmd(app),
	)

	return root
}
