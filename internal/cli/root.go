// Package cli is the lead pool administration command line. Every command
// calls the same service facade the HTTP API uses.
package cli

import (
	"context"
	"fmt"
	"strings"

	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/internal/scheduler"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PoolService is the facade the commands drive.
type PoolService interface {
	DistributeDailyLeads(ctx context.Context, force bool, mode string) (transport.DistributeResponse, error)
	RecallAllPlatformLeads(ctx context.Context) (transport.RecallResponse, error)
	ForceUnlockPool(ctx context.Context) (transport.UnlockResponse, error)
	CleanupBadLeads(ctx context.Context) (transport.CleanupResponse, error)
	GetLeadSupplyAnalytics(ctx context.Context) (transport.AnalyticsResponse, error)
	GetCompanyDistributionStatus(ctx context.Context) (transport.CompaniesResponse, error)
	GetMaintenanceMode(ctx context.Context) (transport.MaintenanceResponse, error)
	SetMaintenanceMode(ctx context.Context, enabled bool, actorID uuid.UUID) (transport.MaintenanceResponse, error)
	SetTenantActive(ctx context.Context, tenantID uuid.UUID, active bool) (transport.TenantResponse, error)
}

// Session is what a command runs against. Enqueuer is nil when no Redis
// is configured; Close may be nil.
type Session struct {
	Pool     PoolService
	Enqueuer scheduler.DistributionEnqueuer
	Close    func()
}

// Opener connects a Session for one command invocation.
type Opener func(ctx context.Context) (*Session, error)

type app struct {
	open  Opener
	viper *viper.Viper
}

// NewRootCommand builds the leadpool-admin command tree.
func NewRootCommand(open Opener) *cobra.Command {
	a := &app{open: open, viper: viper.New()}
	a.viper.SetEnvPrefix("LEADPOOL")
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()
	a.viper.SetDefault("output", string(FormatText))

	root := &cobra.Command{
		Use:           "leadpool-admin",
		Short:         "Lead pool administration",
		Long:          "Administer the shared lead pool: run distribution, recall, unlock and clean leads, and inspect supply against tenant demand.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("output", "o", string(FormatText), "Output format (text|json)")
	root.PersistentFlags().String("actor-id", "", "Administrator id recorded on maintenance changes")
	_ = a.viper.BindPFlag("output", root.PersistentFlags().Lookup("output"))
	_ = a.viper.BindPFlag("actor-id", root.PersistentFlags().Lookup("actor-id"))

	root.AddCommand(
		a.distributeCommand(),
		a.recallCommand(),
		a.unlockCommand(),
		a.cleanupCommand(),
		a.analyticsCommand(),
		a.companiesCommand(),
		a.maintenanceCommand(),
		a.tenantCommand(),
	)
	return root
}

// run opens a session, calls fn and closes the session.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, s *Session, out *Formatter) error) error {
	format, err := ParseFormat(a.viper.GetString("output"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open lead pool: %w", err)
	}
	if session.Close != nil {
		defer session.Close()
	}

	return fn(ctx, session, NewFormatter(format, cmd.OutOrStdout()))
}

func (a *app) actorID() (uuid.UUID, error) {
	raw := strings.TrimSpace(a.viper.GetString("actor-id"))
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid actor id %q: %w", raw, err)
	}
	return id, nil
}
