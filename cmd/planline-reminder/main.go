// Package main runs the approval reminder sweeper as a standalone daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/cmd"
	"github.com/planline/planline/pkg/log"
	"github.com/planline/planline/pkg/reminder"
)

func main() {
	command := &cli.Command{
		Name:                  "planline-reminder",
		Usage:                 "Nudge reviewers about approvals sitting pending",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Session store URL (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the sweep",
				Value:   "*/5 * * * *",
				Sources: cli.EnvVars("REMINDER_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "threshold",
				Usage:   "How long an approval may sit pending before a reminder",
				Value:   30 * time.Minute,
				Sources: cli.EnvVars("REMINDER_THRESHOLD"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("reminder")
			logger.InfoContext(ctx, "Initializing Planline reminder sweeper")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "planline-reminder", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sweeper := reminder.NewSweeper(
				persistence,
				approval.NewGate(logger),
				eventBus,
				logger,
				reminder.WithSchedule(command.String("schedule")),
				reminder.WithThreshold(command.Duration("threshold")),
			)

			err = sweeper.Start(ctx)
			if err != nil {
				return err
			}

			defer sweeper.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down reminder sweeper")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
