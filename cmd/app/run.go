package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
)

// runCMD performs one generation pass in the foreground, outside any schedule.
func runCMD(flags *rootFlags) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and publish one explainer now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := load(flags)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			var req *model.TopicRequest
			if topic != "" {
				req, err = model.NewTopicRequest(topic, "cli")
				if err != nil {
					return err
				}
				if err := a.requests.Save(ctx, repository.NoTX, req); err != nil {
					return fmt.Errorf("save topic request: %w", err)
				}
			}
			record, err := a.content.Execute(ctx, nil, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "content %d: %s (%s)\n", record.ID, record.Title, record.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "explain this topic instead of picking one from the catalog")
	return cmd
}

func reportCMD(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "report weekly|monthly",
		Short:     "Aggregate and publish the last full week or month",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(model.ReportTypeWeekly), string(model.ReportTypeMonthly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := load(flags)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			generate := a.reports.GenerateWeekly
			if args[0] == string(model.ReportTypeMonthly) {
				generate = a.reports.GenerateMonthly
			}
			r, err := generate(ctx)
			if err != nil {
				return err
			}
			printReport(cmd, r)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, r *model.ReportData) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s report %s ~ %s\n", r.Type, r.PeriodStart.Format("2006-01-02"), r.LastDay().Format("2006-01-02"))
	fmt.Fprintf(out, "total=%d success=%d failed=%d retries=%d rate=%.1f%%\n",
		r.TotalCount, r.SuccessCount, r.FailedCount, r.RetryCount, r.SuccessRate())
}
