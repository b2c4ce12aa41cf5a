package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "anchorcal/internal/log"
	"anchorcal/internal/planner"
	"anchorcal/internal/web"
)

func newServeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and agenda page, and evaluate reminders on every tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, loc, err := loadConfig(f)
			if err != nil {
				return err
			}
			appLog.Info("anchorcal starting", "version", version, "listen", conf.Listen, "tick", conf.Tick)

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, st, err := openPlanner(ctx, conf, loc)
			if err != nil {
				return err
			}
			defer st.Close()

			sched := cron.New(
				cron.WithLocation(loc),
				cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
			)
			last := svc.Now()
			if _, err := sched.AddFunc(conf.Tick, func() {
				now := svc.Now()
				reportTick(svc.Tick(last, now))
				last = now
			}); err != nil {
				return err
			}
			sched.Start()
			defer func() {
				<-sched.Stop().Done()
			}()

			err = web.NewServer(conf, svc).ListenAndServe(ctx)
			appLog.Info("anchorcal exiting")
			return err
		},
	}
}

func reportTick(rep planner.TickReport) {
	for _, d := range rep.Due {
		appLog.Info("reminder due",
			"id", d.Reminder.ID,
			"message", d.Reminder.Message,
			"anchor", d.Anchor.Title,
			"trigger_at", d.TriggerAt.Format(time.RFC3339),
			"dnd_shifted", d.DNDShifted,
		)
	}
	if rep.ThemeChanged {
		appLog.Info("theme changed", "theme", rep.Theme)
	}
}
