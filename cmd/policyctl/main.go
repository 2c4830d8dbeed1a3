// Command policyctl validates policy documents and publishes them to the
// Redis or Postgres policy sources read by the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"discovery/internal/platform/config"
	"discovery/internal/platform/logger"
	"discovery/internal/platform/postgres"
	"discovery/internal/platform/redis"
	"discovery/internal/policy"
	"discovery/internal/policy/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "policyctl",
		Short:        "Validate and publish location policy documents",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.AddCommand(newValidateCmd(), newPublishCmd(), newMigrateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a document builds a registry snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), args[0], snap)
			return nil
		},
	}
}

func newPublishCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Replace the stored policy with a validated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := store.NewFileSource(args[0]).Load(ctx)
			if err != nil {
				return err
			}
			snap, err := policy.NewSnapshot(doc)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := publish(ctx, cfg, target, doc); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), target, snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", config.PolicySourceRedis, "destination: redis or postgres")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres policy tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := postgres.Open(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("postgres.dsn is not set")
			}
			defer db.Close()
			return store.NewPostgresSource(db).Migrate(cmd.Context())
		},
	}
}

func publish(ctx context.Context, cfg *config.Config, target string, doc policy.Document) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	switch target {
	case config.PolicySourceRedis:
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if rc == nil {
			return errors.New("redis.url is not set")
		}
		defer rc.Close()
		if err := store.NewRedisSource(rc.Client, store.WithKeyPrefix(cfg.Policy.RedisPrefix)).Publish(ctx, doc); err != nil {
			return err
		}
	case config.PolicySourcePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		if db == nil {
			return errors.New("postgres.dsn is not set")
		}
		defer db.Close()
		src := store.NewPostgresSource(db)
		if err := src.Migrate(ctx); err != nil {
			return err
		}
		if err := src.Publish(ctx, doc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown target %q", target)
	}
	log.InfoContext(ctx, "policy published", "target", target, "locations", len(doc.Locations))
	return nil
}

func readSnapshot(ctx context.Context, path string) (*policy.Snapshot, error) {
	doc, err := store.NewFileSource(path).Load(ctx)
	if err != nil {
		return nil, err
	}
	return policy.NewSnapshot(doc)
}

func printSummary(w io.Writer, name string, snap *policy.Snapshot) {
	stats := snap.Stats()
	fmt.Fprintf(w, "%s: %d locations, %d recap customer codes, %d m2 customer codes\n",
		filepath.Base(name), stats.Locations, stats.RecapCustomerCodes, stats.M2CustomerCodes)
	for _, warning := range snap.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
