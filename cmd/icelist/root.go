package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/iceteam/icelist/internal/app"
	"github.com/iceteam/icelist/internal/config"
	"github.com/iceteam/icelist/pkg/logger"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "icelist",
		Short:         "icelist - ranked demon list kept in a spreadsheet",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides ICELIST_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")

	cmd.AddCommand(
		newServeCmd(opts),
		newPlaceCmd(opts),
		newMoveCmd(opts),
		newRankCmd(opts),
		newStageCmd(opts),
	)
	return cmd
}

// load reads configuration and initializes logging.
func (o *rootOptions) load(ctx context.Context) (*config.Config, logger.Logger, error) {
	if err := logger.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	log := logger.Get()
	if err := logger.SetLevelString(level); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// start loads configuration, opens the configured store and starts a service over it.
func (o *rootOptions) start(ctx context.Context) (*service.Service, *config.Config, error) {
	cfg, log, err := o.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := service.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(
		service.WithStore(store),
		service.WithLogger(log),
		service.WithMaxRank(cfg.MaxRank),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDateLayout(cfg.DateLayout),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "configuration loaded",
		logger.String("backend", cfg.Store.Backend),
		logger.Int("maxRank", cfg.MaxRank))
	return svc, cfg, nil
}
