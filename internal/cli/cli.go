package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/app"
	"github.com/Additional-Code/portal/internal/migration"
)

// NewRootCommand builds the root portal CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Customer portal toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("token", "", "Bearer token for portal commands (defaults to $PORTAL_TOKEN)")

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newInvoicesCmd())
	root.AddCommand(newOrdersCmd())

	return root
}

// Execute runs the portal CLI until it finishes or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC health services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the activity journal schema",
	}

	migrate := func(fn func(ctx context.Context, mig *migration.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Infra, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				return fn(ctx, mig)
			})
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
	}
	upCmd.RunE = migrate(func(ctx context.Context, mig *migration.Migrator) error {
		if err := mig.Up(ctx); err != nil {
			return err
		}
		fmt.Fprintln(upCmd.OutOrStdout(), "migrations applied")
		return nil
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")
	downCmd.RunE = migrate(func(ctx context.Context, mig *migration.Migrator) error {
		steps, _ := downCmd.Flags().GetInt("steps")
		all, _ := downCmd.Flags().GetBool("all")
		if err := mig.Down(ctx, steps, all); err != nil {
			return err
		}
		fmt.Fprintln(downCmd.OutOrStdout(), "migrations rolled back")
		return nil
	})

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print migration status",
	}
	statusCmd.RunE = migrate(func(ctx context.Context, mig *migration.Migrator) error {
		statuses, err := mig.Status(ctx)
		if err != nil {
			return err
		}
		writeMigrations(statusCmd.OutOrStdout(), statuses)
		return nil
	})

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the cache invalidation worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
