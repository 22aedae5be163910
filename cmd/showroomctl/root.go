package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/showroomdex/internal/config"
	dbRedis "github.com/kailas-cloud/showroomdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/showroomdex/internal/logger"
	"github.com/kailas-cloud/showroomdex/internal/repository/memory"
	showroomrepo "github.com/kailas-cloud/showroomdex/internal/repository/showroom"
	"github.com/kailas-cloud/showroomdex/internal/version"
	discoveryuc "github.com/kailas-cloud/showroomdex/internal/usecase/discovery"
)

var errNeedsIndex = errors.New("command needs the redis driver")

// backend is an opened data source. repo is nil for the memory driver.
type backend struct {
	source discoveryuc.Source
	repo   *showroomrepo.Repo
	close  func()
}

type cli struct {
	env    string
	load   func(env string) (config.Config, error)
	open   func(ctx context.Context, cfg config.Config) (*backend, error)
	cfg    config.Config
	logger *zap.Logger
}

func newCLI() *cli {
	return &cli{
		env:  config.GetEnv(),
		load: config.Load,
		open: openBackend,
	}
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "showroomctl",
		Short:         "Operate the showroom discovery index",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load(c.env)
			if err != nil {
				return err
			}
			logger, err := logpkg.NewLogger(c.env, cfg.Logging.Level)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.env, "env", c.env, "config environment (local, dev, prod)")

	root.AddCommand(newIndexCommand(c))
	root.AddCommand(newSeedCommand(c))
	root.AddCommand(newQueryCommands(c)...)
	return root
}

// withBackend opens the configured backend for the duration of fn.
func (c *cli) withBackend(ctx context.Context, fn func(b *backend) error) error {
	b, err := c.open(ctx, c.cfg)
	if err != nil {
		return err
	}
	if b.close != nil {
		defer b.close()
	}
	return fn(b)
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.Database.Driver == config.DriverMemory {
		repo, err := memory.Load(cfg.Storage.Fixtures)
		if err != nil {
			return nil, err
		}
		return &backend{source: repo}, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	repo := showroomrepo.New(store, cfg.Storage.KeyPrefix)
	return &backend{source: repo, repo: repo, close: store.Close}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
