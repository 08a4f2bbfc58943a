package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/jit-activation-gateway/activator"
	"github.com/ruteri/jit-activation-gateway/api/gateway"
	"github.com/ruteri/jit-activation-gateway/api/server"
	"github.com/ruteri/jit-activation-gateway/cmd/flags"
	"github.com/ruteri/jit-activation-gateway/common"
	"github.com/ruteri/jit-activation-gateway/metrics"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "jit-gateway",
		Usage: "Scale swarm services from zero on webhook or HTTP triggers",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.WebhookSecretFlag,
			flags.WebhookSecretURIFlag,
			flags.ServiceMapFlag,
			flags.ServiceMapFileFlag,
			flags.OrchestratorFlag,
			flags.DockerBinaryFlag,
			flags.ScaleTimeoutFlag,
			flags.ReplicasFlag,
			flags.TriggerEventsFlag,
			flags.LogServiceFlagFn("jit-gateway"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))

			ctx, cancel := context.WithTimeout(cCtx.Context, time.Minute)
			defer cancel()

			aliases, err := flags.ConfigureAliasTable(ctx, cCtx, logger)
			if err != nil {
				logger.Error("Failed to load service map", "err", err)
				return err
			}
			for _, alias := range aliases.Aliases() {
				logger.Debug("Service mapping", "alias", alias, "service", aliases.Resolve(alias))
			}

			secret, err := flags.ConfigureWebhookSecret(ctx, cCtx, logger)
			if err != nil {
				logger.Error("Failed to load webhook secret", "err", err)
				return err
			}

			scaler, err := flags.ConfigureScaler(cCtx)
			if err != nil {
				logger.Error("Failed to configure orchestrator", "err", err)
				return err
			}

			metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			activationMetrics, err := metrics.NewActivationMetrics(common.PackageName, metricsSrv.Registry)
			if err != nil {
				logger.Error("Failed to register metrics", "err", err)
				return err
			}

			gwCfg := flags.ConfigureGateway(cCtx, secret)
			act := activator.New(aliases, scaler, flags.ConfigureActivator(cCtx), activationMetrics, logger)
			handler := gateway.NewHandler(act, gwCfg, activationMetrics, logger)

			srv := server.New(cfg, metricsSrv, handler)

			ln, err := srv.Listen()
			if err != nil {
				logger.Error("Failed to bind listen address", "listenAddress", cfg.ListenAddr, "err", err)
				return err
			}

			logger.Info("Routes", "/start/*", "OPEN", "/github/*", "AUTH",
				"orchestrator", cCtx.String(flags.OrchestratorFlag.Name), "aliases", aliases.Len())
			if len(gwCfg.Secret) == 0 {
				logger.Warn("No webhook secret configured, authenticated routes accept unsigned requests")
			}

			srv.RunInBackground(ln)

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			srv.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
