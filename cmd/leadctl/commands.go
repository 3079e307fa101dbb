package main

import (
	"fmt"
	"strings"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := db.RunMigrations(cmd.Context(), rt.pool); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func runBatchCmd() *cobra.Command {
	var (
		tenant  string
		enqueue bool
	)

	cmd := &cobra.Command{
		Use:   "run-batch",
		Short: "Re-evaluate every active lead now",
		Long: `Runs the automation batch in this process, or queues it for the
scheduler worker with --enqueue. Without --tenant all tenants are covered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := optionalUUID(tenant)
			if err != nil {
				return fmt.Errorf("--tenant: %w", err)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if enqueue {
				client, err := scheduler.NewClient(rt.cfg)
				if err != nil {
					return fmt.Errorf("init scheduler client: %w", err)
				}
				defer func() { _ = client.Close() }()
				if err := client.EnqueueAutomationBatch(cmd.Context(), tenantID); err != nil {
					return fmt.Errorf("enqueue batch: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "batch queued")
				return nil
			}

			result, err := rt.leads.Orchestrator().RunBatch(cmd.Context(), tenantID)
			summary := batchSummary{
				Scope:              result.Scope,
				Skipped:            result.Skipped,
				Processed:          result.Processed,
				Stale:              result.Stale,
				StatusChanges:      result.StatusChanges,
				TemperatureChanges: result.TemperatureChanges,
				Duration:           result.Duration.String(),
			}
			for _, f := range result.Failures {
				summary.Failures = append(summary.Failures, f.Error())
			}
			if printErr := printJSON(cmd.OutOrStdout(), summary); printErr != nil {
				return printErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "restrict the run to one tenant")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "queue the run for the scheduler worker instead")
	return cmd
}

type batchSummary struct {
	Scope              string   `json:"scope"`
	Skipped            bool     `json:"skipped"`
	Processed          int      `json:"processed"`
	Stale              int      `json:"stale"`
	StatusChanges      int      `json:"statusChanges"`
	TemperatureChanges int      `json:"temperatureChanges"`
	Failures           []string `json:"failures,omitempty"`
	Duration           string   `json:"duration"`
}

func scoreCmd() *cobra.Command {
	var (
		tenant string
		leadID int64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Preview a lead's score, temperature and follow-up without saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("--tenant: %w", err)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			preview, err := rt.leads.ManagementService().PreviewScore(cmd.Context(), tenantID, leadID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), preview)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().Int64Var(&leadID, "lead", 0, "lead id")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("lead")
	return cmd
}

func nextFollowUpCmd() *cobra.Command {
	var tenant, temperature, priority string

	cmd := &cobra.Command{
		Use:   "next-followup",
		Short: "Show the follow-up time a lead would get right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("--tenant: %w", err)
			}
			temp, ok := domain.ParseTemperature(temperature)
			if !ok {
				return fmt.Errorf("--temperature: unknown value %q", temperature)
			}
			prio, ok := domain.ParsePriority(priority)
			if !ok {
				return fmt.Errorf("--priority: unknown value %q", priority)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			next := rt.leads.FollowUps().Next(cmd.Context(), tenantID, temp, prio)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"tenantId":         tenantID,
				"temperature":      temp,
				"priority":         prio,
				"nextFollowUpDate": next,
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&temperature, "temperature", string(domain.TemperatureWarm), "HOT, WARM, COLD or FROZEN")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityMedium), "LOW, MEDIUM, HIGH or CRITICAL")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func rewardsCmd() *cobra.Command {
	rewards := &cobra.Command{
		Use:   "rewards",
		Short: "Inspect reward points",
	}

	var user string
	balance := &cobra.Command{
		Use:   "balance",
		Short: "Show a user's reward point balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			points, err := rt.leads.Rewards().Balance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"userId": userID, "points": points})
		},
	}
	balance.Flags().StringVar(&user, "user", "", "user id")
	_ = balance.MarkFlagRequired("user")

	rewards.AddCommand(balance)
	return rewards
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
