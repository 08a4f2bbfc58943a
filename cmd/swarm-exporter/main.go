package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/jit-activation-gateway/cmd/flags"
	"github.com/ruteri/jit-activation-gateway/metrics"
	"github.com/ruteri/jit-activation-gateway/orchestrator"
	"github.com/urfave/cli/v2"
)

var flagsList = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "0.0.0.0:9099",
		Usage:   "address to serve /metrics on",
		EnvVars: []string{"LISTEN_ADDR"},
	},
	&cli.DurationFlag{
		Name:  "scrape-timeout",
		Value: 10 * time.Second,
		Usage: "timeout for reading cluster state on each scrape",
	},
	flags.LogJsonFlag,
	flags.LogDebugFlag,
	flags.LogUidFlag,
	flags.LogServiceFlagFn("swarm-exporter"),
}

func main() {
	app := &cli.App{
		Name:  "swarm-exporter",
		Usage: "Export swarm node and service replica state as Prometheus metrics",
		Flags: flagsList,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			scrapeTimeout := cCtx.Duration("scrape-timeout")
			logger := flags.SetupLogger(cCtx)

			dockerClient, err := orchestrator.NewDockerClient()
			if err != nil {
				logger.Error("Failed to create docker client", "err", err)
				return err
			}
			defer dockerClient.Close()

			srv, err := metrics.New("swarm_exporter", listenAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			collector := metrics.NewSwarmCollector(orchestrator.NewDockerCluster(dockerClient), scrapeTimeout, logger)
			if err := srv.Registry.Register(collector); err != nil {
				logger.Error("Failed to register swarm collector", "err", err)
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting metrics server", "listenAddress", listenAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				logger.Error("Metrics server failed", "err", err)
				return err
			case <-exit:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful metrics server shutdown failed", "err", err)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
