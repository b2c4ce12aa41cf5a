package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"anchorcal/internal/clock"
	"anchorcal/internal/config"
	appLog "anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/nlparse"
	"anchorcal/internal/planner"
	"anchorcal/internal/store"
	"anchorcal/internal/ui"
)

const version = "0.1.0"

// flags holds the global CLI flag values.
type flags struct {
	configPath string
	listen     string
}

func main() {
	var f flags
	root := &cobra.Command{
		Use:           "anchorcal",
		Short:         "Weekly anchors, smart reminders and Do Not Disturb windows",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "./anchorcal.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&f.listen, "listen", "", "HTTP listen address (overrides config if set)")

	root.AddCommand(
		newServeCmd(&f),
		newStatusCmd(&f),
		newOnboardCmd(&f),
		newAddReminderCmd(&f),
		newImportICSCmd(&f),
		newExportICSCmd(&f),
		newSnapshotCmd(&f),
		newMigrateCmd(&f),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.NewStyles(model.ThemeCreative).Bad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies flag overrides and the log
// level, and resolves the display location.
func loadConfig(f *flags) (*config.Config, *time.Location, error) {
	conf, err := config.Load(f.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", f.configPath)
		return nil, nil, err
	}
	if f.listen != "" {
		conf.Listen = f.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	appLog.Debug("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"tick", conf.Tick,
		"storage_driver", conf.Storage.Driver,
		"storage_path", conf.Storage.Path,
		"ics_count", len(conf.ICS),
	)
	return conf, loc, nil
}

// openPlanner opens the configured store and loads the saved state. The
// natural-language parser is optional; without an API key reminders can
// only be added in structured form.
func openPlanner(ctx context.Context, conf *config.Config, loc *time.Location) (*planner.Service, store.Store, error) {
	st, err := store.Open(conf.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", conf.Storage.Driver, err)
	}

	opts := planner.Options{Clock: clock.Real{Loc: loc}, Store: st}
	if p, err := nlparse.New(conf.Parser); err != nil {
		appLog.Warn("natural-language parser disabled", "reason", err.Error())
	} else {
		opts.Parser = p
	}

	svc := planner.New(opts)
	if err := svc.Load(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	return svc, st, nil
}
