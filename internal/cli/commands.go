package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/internal/scheduler"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) distributeCommand() *cobra.Command {
	var (
		force bool
		mode  string
		async bool
	)

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Run a distribution cycle",
		Long:  "Allocate pool leads to every due tenant. --force ignores distribution intervals. --async queues the run for the scheduler worker instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != "" && mode != "top_up" && mode != "rotate" {
				return fmt.Errorf("invalid mode %q (must be 'top_up' or 'rotate')", mode)
			}

			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				if async {
					return enqueueDistribution(ctx, s, out, force, mode)
				}

				result, err := s.Pool.DistributeDailyLeads(ctx, force, mode)
				if err != nil {
					return fmt.Errorf("failed to distribute leads: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintf(w, "Outcome: %s (mode %s, forced %t)\n", result.Outcome, result.Mode, result.Forced)
					for _, line := range result.Details {
						fmt.Fprintf(w, "  %s\n", line)
					}
					fmt.Fprintf(w, "Total allocated: %d\n", result.TotalAllocated)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Distribute to every active tenant regardless of interval")
	cmd.Flags().StringVar(&mode, "mode", "", "Distribution mode (top_up|rotate); defaults to the configured mode")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run on the scheduler instead of running it here")
	return cmd
}

func enqueueDistribution(ctx context.Context, s *Session, out *Formatter, force bool, mode string) error {
	if s.Enqueuer == nil {
		return fmt.Errorf("--async requires REDIS_URL")
	}

	taskID, err := s.Enqueuer.EnqueueDistribution(ctx, scheduler.DistributeLeadsPayload{
		Force:       force,
		Mode:        mode,
		RequestedBy: "cli",
	})
	if err != nil {
		return fmt.Errorf("failed to queue distribution: %w", err)
	}

	result := map[string]string{"taskId": taskID}
	return out.Output(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Distribution queued as task %s\n", taskID)
		return nil
	})
}

func (a *app) recallCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Recall every platform-distributed lead",
		Long:  "Delete every tenant copy of a platform lead and return the pool leads to the available pool. Private uploads are untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("recall must be confirmed with --confirm")
			}

			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.RecallAllPlatformLeads(ctx)
				if err != nil {
					return fmt.Errorf("failed to recall leads: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintln(w, result.Message)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the recall")
	return cmd
}

func (a *app) unlockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Reset every locked lead to available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.ForceUnlockPool(ctx)
				if err != nil {
					return fmt.Errorf("failed to unlock pool: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintln(w, result.Message)
					return nil
				})
			})
		},
	}
}

func (a *app) cleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove unsellable leads from the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.CleanupBadLeads(ctx)
				if err != nil {
					return fmt.Errorf("failed to clean up leads: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintln(w, result.Message)
					return out.Table([]any{"CHECK", "COUNT"}, [][]any{
						{"missing contact", result.Stats.MissingContact},
						{"test data", result.Stats.TestData},
						{"missing names", result.Stats.MissingNames},
						{"placeholder emails", result.Stats.PlaceholderEmails},
						{"short phones", result.Stats.ShortPhones},
						{"duplicate phones", result.Stats.DuplicatePhones},
					})
				})
			})
		},
	}
}

func (a *app) analyticsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show pool supply against tenant demand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.GetLeadSupplyAnalytics(ctx)
				if err != nil {
					return fmt.Errorf("failed to load analytics: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintf(w, "Supply: %d in pool, %d available, %d locked, %d distributed\n",
						result.Supply.TotalInPool, result.Supply.AvailableNow, result.Supply.Locked, result.Supply.Distributed)
					fmt.Fprintf(w, "Demand: %d active companies, daily quota %d\n",
						result.Demand.CompaniesCount, result.Demand.TotalDailyQuota)
					fmt.Fprintf(w, "Health: %s (gap %d)\n", result.Health.Status, result.Health.Gap)
					fmt.Fprintf(w, "Copies: %d platform, %d private\n",
						result.Distribution.TotalDistributedInCirculation, result.Distribution.TotalPrivateUploads)
					return nil
				})
			})
		},
	}
}

func (a *app) companiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List tenant distribution status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.GetCompanyDistributionStatus(ctx)
				if err != nil {
					return fmt.Errorf("failed to load companies: %w", err)
				}
				return out.Output(result, func(w io.Writer) error {
					rows := make([][]any, 0, len(result.Companies))
					for _, c := range result.Companies {
						rows = append(rows, []any{
							c.ID, c.CompanyName, c.IsActive, c.DailyQuota, c.IntervalHours,
							c.PlatformLeadsCount, c.PrivateLeadsCount, formatTime(c.NextDistribution),
						})
					}
					return out.Table([]any{"ID", "COMPANY", "ACTIVE", "QUOTA", "INTERVAL", "PLATFORM", "PRIVATE", "NEXT"}, rows)
				})
			})
		},
	}
}

func (a *app) maintenanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Show or change the maintenance flag",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether maintenance mode is on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.GetMaintenanceMode(ctx)
				if err != nil {
					return fmt.Errorf("failed to read maintenance mode: %w", err)
				}
				return printMaintenance(out, result)
			})
		},
	}

	cmd.AddCommand(status, a.setMaintenanceCommand("on", true), a.setMaintenanceCommand("off", false))
	return cmd
}

func (a *app) setMaintenanceCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn maintenance mode %s", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actorID, err := a.actorID()
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.SetMaintenanceMode(ctx, enabled, actorID)
				if err != nil {
					return fmt.Errorf("failed to set maintenance mode: %w", err)
				}
				return printMaintenance(out, result)
			})
		},
	}
}

func printMaintenance(out *Formatter, result transport.MaintenanceResponse) error {
	return out.Output(result, func(w io.Writer) error {
		state := "off"
		if result.Enabled {
			state = "on"
		}
		fmt.Fprintf(w, "Maintenance mode is %s\n", state)
		return nil
	})
}

func (a *app) tenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant distribution settings",
	}
	cmd.AddCommand(
		a.setTenantActiveCommand("activate", "Include a tenant in distribution", true),
		a.setTenantActiveCommand("deactivate", "Exclude a tenant from distribution", false),
	)
	return cmd
}

func (a *app) setTenantActiveCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tenant id %q: %w", args[0], err)
			}

			return a.run(cmd, func(ctx context.Context, s *Session, out *Formatter) error {
				result, err := s.Pool.SetTenantActive(ctx, tenantID, active)
				if err != nil {
					return fmt.Errorf("failed to %s tenant: %w", use, err)
				}
				return out.Output(result, func(w io.Writer) error {
					fmt.Fprintf(w, "Tenant %s (%s) active=%t\n", result.ID, result.CompanyName, result.IsActive)
					return nil
				})
			})
		},
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
