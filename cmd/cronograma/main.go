package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/cronograma/internal/cli"
	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/config"
	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire unit of work and the per-project lock registry shared by all services
	uow := db.NewSQLiteUnitOfWork(database)
	locks := service.NewProjectLocks()
	settings := service.SettingsFromConfig(cfg)

	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	switch {
	case cfg.LogFile != "":
		var closer io.Closer
		observer, closer = service.NewRotatingLogObserver(cfg.LogFile)
		defer closer.Close()
	case cfg.LogCalls:
		observer = service.NewLogUseCaseObserver(os.Stderr)
	}

	app := &cli.App{
		Projects:  service.NewProjectService(uow, locks),
		WBS:       service.NewWBSService(uow, locks, settings, observer),
		Deps:      service.NewDependencyService(uow, locks, observer),
		Schedule:  service.NewScheduleService(uow, locks, observer),
		Progress:  service.NewProgressService(uow, locks, settings),
		Baselines: service.NewBaselineService(uow, locks, observer),
		Sprints:   service.NewSprintService(uow, locks, settings, observer),
		Import:    service.NewImportService(uow, locks, settings, observer),
		Numbers:   formatter.NewNumbers(cfg.Locale, cfg.NodeDecimals, cfg.ProjectDecimals),
	}

	// Pipes and redirects get plain output
	fd := os.Stdout.Fd()
	formatter.SetPlain(!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd))

	return cli.NewRootCmd(app).Execute()
}
