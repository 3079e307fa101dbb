// leadctl is the operator CLI for the lead engine: migrations, manual batch
// runs and read-only inspection of scores, follow-ups and reward balances.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operate the lead lifecycle engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(runBatchCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(nextFollowUpCmd())
	rootCmd.AddCommand(rewardsCmd())
	return rootCmd
}

// runtime holds the infrastructure one command invocation needs.
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	pool  *pgxpool.Pool
	rdb   *redis.Client
	bus   *events.InMemoryBus
	leads *leads.Module
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, pool: pool}

	if cfg.GetRedisURL() != "" {
		rdb, err := db.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable; using process-local lease and no calendar cache", "error", err)
		} else {
			rt.rdb = rdb
		}
	}

	rt.bus = events.NewInMemoryBus(log)
	var universal redis.UniversalClient
	if rt.rdb != nil {
		universal = rt.rdb
	}
	rt.leads, err = leads.NewModule(pool, rt.bus, universal, validator.New(), cfg, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init leads module: %w", err)
	}
	return rt, nil
}

// Close waits for in-flight event handlers before releasing connections.
func (rt *runtime) Close() {
	if rt.bus != nil {
		rt.bus.Wait()
	}
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
	rt.pool.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
