package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/satlayer/satlayer-restaking/api"
	"github.com/satlayer/satlayer-restaking/app"
	"github.com/satlayer/satlayer-restaking/conf"
	"github.com/satlayer/satlayer-restaking/iac"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
	"github.com/satlayer/satlayer-restaking/metrics"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the app with its API and metrics servers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newLogger(cfg conf.Config) (*logger.RestakingLogger, error) {
	return logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Format:   cfg.Logging.Format,
		Logstash: cfg.Logging.Logstash,
		Node:     cfg.Store.Namespace,
	})
}

func serve(ctx context.Context, cfg conf.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	backend, closeStore, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("closing store", logger.WithField("err", err.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := app.Options{
		Logger:     log,
		Indicators: metrics.NewPromIndicators(reg),
		Clock:      func() time.Time { return time.Now().UTC() },
	}
	if len(cfg.Kafka.Brokers) > 0 {
		events := iac.NewIACFacade(iac.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil)
		defer events.Close()
		opts.Sink = events
	}
	a := app.New(backend, opts)
	reg.MustRegister(metrics.NewVaultCollector(a, log))

	initialized, err := a.Initialized()
	if err != nil {
		return err
	}
	if !initialized && cfg.Genesis != "" {
		g, err := conf.LoadGenesis(cfg.Genesis)
		if err != nil {
			return err
		}
		if err := a.InitGenesis(ctx, types.BlockInfo{Height: 1, Time: opts.Clock()}, g); err != nil {
			return err
		}
	}

	apiErr := api.NewServer(cfg.API.Addr, a, log).Start(ctx)
	var metricsErr <-chan error
	if cfg.Metrics.Addr != "" {
		metricsErr = metrics.NewServer(cfg.Metrics.Addr, log).Start(ctx, reg)
	}

	select {
	case <-ctx.Done():
	case err, ok := <-apiErr:
		if ok && err != nil {
			return err
		}
	case err, ok := <-metricsErr:
		if ok && err != nil {
			return err
		}
	}
	log.Info("shutting down")
	// drain so both servers finish shutting down
	for range apiErr {
	}
	if metricsErr != nil {
		for range metricsErr {
		}
	}
	return nil
}
