package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"anchorcal/internal/capture"
	"anchorcal/internal/config"
	"anchorcal/internal/ics"
	appLog "anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/planner"
	"anchorcal/internal/store"
	"anchorcal/internal/ui"
	"anchorcal/internal/web"
)

func newStatusCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's anchors, upcoming reminders and the current theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprint(cmd.OutOrStdout(), ui.RenderStatus(ui.Status{
				Now:     svc.Now(),
				Theme:   svc.Theme(nil),
				State:   svc.Snapshot(),
				Active:  svc.ActiveReminders(),
				History: svc.History(),
			}))
			return nil
		},
	}
}

func newOnboardCmd(f *flags) *cobra.Command {
	o := planner.DefaultOnboarding()
	var work, sleep, days string
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Replace anchors and Do Not Disturb windows with a work schedule and a sleep window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			block := o.WorkBlocks[0]
			if err := splitRange(work, &block.StartTime, &block.EndTime); err != nil {
				return err
			}
			if err := splitRange(sleep, &o.SleepStart, &o.SleepEnd); err != nil {
				return err
			}
			block.Days = nil
			for _, d := range strings.Split(days, ",") {
				day, err := model.ParseDay(d)
				if err != nil {
					return err
				}
				block.Days = append(block.Days, day)
			}
			o.WorkBlocks = []planner.WorkBlock{block}

			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.Onboard(ctx, o); err != nil {
				return err
			}
			s := ui.NewStyles(model.ThemeCreative)
			fmt.Fprintln(cmd.OutOrStdout(), s.Good.Render("Schedule created"))
			fmt.Fprintln(cmd.OutOrStdout(), s.LabelValue("Work", fmt.Sprintf("%s-%s %s", block.StartTime, block.EndTime, planner.FormatDays(block.Days))))
			fmt.Fprintln(cmd.OutOrStdout(), s.LabelValue("Sleep", o.SleepStart+"-"+o.SleepEnd))
			return nil
		},
	}
	cmd.Flags().StringVar(&work, "work", "09:00-17:00", "Work hours as HH:MM-HH:MM")
	cmd.Flags().StringVar(&days, "days", "mon,tue,wed,thu,fri", "Comma-separated work days")
	cmd.Flags().StringVar(&sleep, "sleep", "23:00-07:00", "Sleep window as HH:MM-HH:MM")
	return cmd
}

func splitRange(s string, start, end *string) error {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return fmt.Errorf("expected HH:MM-HH:MM, got %q", s)
	}
	*start, *end = strings.TrimSpace(a), strings.TrimSpace(b)
	return nil
}

func newAddReminderCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-reminder <text>",
		Short: `Add a reminder from plain text, e.g. "remind me to stretch 10 minutes before Gym"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			created, err := svc.AddReminderFromText(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			s := ui.NewStyles(model.ThemeCreative)
			for _, r := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", s.Good.Render("added"), r.Message, s.Muted.Render(planner.FormatOffset(r.OffsetMinutes)))
			}
			return nil
		},
	}
}

func newImportICSCmd(f *flags) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "import-ics",
		Short: "Import weekly anchors from the configured calendar feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			sources := ics.SourcesFromConfig(conf.ICS)
			if url != "" {
				sources = []ics.Source{{ID: "url", Name: "command line", URL: url}}
			}
			if len(sources) == 0 {
				return errors.New("no calendar feeds configured; add one under ics: or pass --url")
			}

			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			s := ui.NewStyles(model.ThemeCreative)
			results, fetchErrs := ics.NewFetcher(conf.ICSCacheDir).FetchAll(ctx, sources)
			for _, e := range fetchErrs {
				fmt.Fprintln(cmd.ErrOrStderr(), s.Bad.Render(e.Error()))
			}
			for _, res := range results {
				events, err := ics.Parse(res.Source, res.Body)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), s.Bad.Render(res.Source.ID+": "+err.Error()))
					continue
				}
				anchors, skipped := ics.ToAnchors(events, loc)
				for _, sk := range skipped {
					appLog.Debug("ics event skipped", "id", res.Source.ID, "uid", sk.UID, "reason", sk.Reason)
				}
				added, replaced, err := svc.ImportAnchors(ctx, res.Source.ID, anchors)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", s.Key.Render(res.Source.ID+":"),
					fmt.Sprintf("%d added, %d updated, %d skipped", added, replaced, len(skipped)))
			}
			if len(results) == 0 {
				return errors.New("no calendar feed could be fetched")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Import this feed instead of the configured ones")
	return cmd
}

func newExportICSCmd(f *flags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write the anchors as an iCalendar feed with weekly recurrences",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			body := ics.Export(svc.Snapshot().Anchors, svc.Now(), loc)
			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return os.WriteFile(out, []byte(body), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newSnapshotCmd(f *flags) *cobra.Command {
	var url, out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the agenda page to a PNG with headless Chromium",
		Long: "Without --url the agenda is served from a temporary local listener, so no\n" +
			"running serve process is needed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			opts := capture.Options{
				URL:        url,
				OutputPath: conf.Capture.Output,
				Width:      conf.Capture.Width,
				Height:     conf.Capture.Height,
			}
			if out != "" {
				opts.OutputPath = out
			}

			if opts.URL == "" {
				svc, st, err := openPlanner(ctx, conf, loc)
				if err != nil {
					return err
				}
				defer st.Close()

				local := *conf
				local.BasicAuth = nil
				ln, err := net.Listen("tcp", "127.0.0.1:0")
				if err != nil {
					return err
				}
				srv := &http.Server{Handler: web.NewServer(&local, svc).Handler(), ReadHeaderTimeout: 10 * time.Second}
				go srv.Serve(ln)
				defer srv.Shutdown(context.Background())
				opts.URL = "http://" + ln.Addr().String() + "/agenda"
			} else if ba := conf.BasicAuth; ba != nil && ba.Username != "" {
				token := base64.StdEncoding.EncodeToString([]byte(ba.Username + ":" + ba.Password))
				opts.Headers = map[string]any{"Authorization": "Basic " + token}
			}

			if err := capture.AgendaPNG(ctx, opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.NewStyles(model.ThemeCreative).LabelValue("Saved", opts.OutputPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Agenda URL of a running server")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG (default capture.output from config)")
	return cmd
}

func newMigrateCmd(f *flags) *cobra.Command {
	var from, to, fromPath, toPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all saved state from one storage backend to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, _, err := loadConfig(f)
			if err != nil {
				return err
			}
			for _, d := range []string{from, to} {
				if d != config.DriverSQLite && d != config.DriverDiskv {
					return fmt.Errorf("unknown storage driver %q", d)
				}
			}
			srcCfg := storageFor(conf, from, fromPath)
			dstCfg := storageFor(conf, to, toPath)
			if srcCfg == dstCfg {
				return errors.New("source and destination are the same store")
			}

			src, err := store.Open(srcCfg)
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := store.Open(dstCfg)
			if err != nil {
				return err
			}
			defer dst.Close()

			keys, err := store.Migrate(ctx, src, dst)
			if err != nil {
				return err
			}
			appLog.Info("store migrated", "from", srcCfg.Driver, "to", dstCfg.Driver, "documents", len(keys))

			s := ui.NewStyles(model.ThemeCreative)
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), s.Muted.Render("Nothing to migrate."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.LabelValue("Copied", strings.Join(keys, ", ")))
			fmt.Fprintln(cmd.OutOrStdout(), s.Muted.Render(fmt.Sprintf("Set storage.driver: %s and storage.path: %s to use it.", dstCfg.Driver, dstCfg.Path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", config.DriverDiskv, "Source driver (sqlite or diskv)")
	cmd.Flags().StringVar(&to, "to", config.DriverSQLite, "Destination driver (sqlite or diskv)")
	cmd.Flags().StringVar(&fromPath, "from-path", "", "Source path (default: configured or driver default)")
	cmd.Flags().StringVar(&toPath, "to-path", "", "Destination path (default: configured or driver default)")
	return cmd
}

// storageFor resolves driver and path, preferring the configured path when
// the driver matches the configured one.
func storageFor(conf *config.Config, driver, path string) config.StorageConfig {
	if path == "" && driver == conf.Storage.Driver {
		path = conf.Storage.Path
	}
	c := config.Config{Storage: config.StorageConfig{Driver: driver, Path: path}}
	c.Normalize()
	return c.Storage
}
