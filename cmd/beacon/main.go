// Command beacon runs the service discovery registry: the control-plane
// endpoint that collaborating services register with and resolve each other
// through.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relatorlabs/beacon/api"
	"github.com/relatorlabs/beacon/component"
	"github.com/relatorlabs/beacon/config"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/registry"
	"github.com/relatorlabs/beacon/server"
	"github.com/relatorlabs/beacon/version"
)

// appConfig is the full daemon configuration. Server and Registry share the
// "beacon" section so a flat BEACON_* environment surface covers both.
type appConfig struct {
	config.ServiceConfig `mapstructure:",squash"`

	Server   server.Config   `yaml:"beacon" mapstructure:"beacon"`
	Registry registry.Config `yaml:"beacon" mapstructure:"beacon"`
}

func (c *appConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = "beacon"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Registry.ApplyDefaults()
}

func (c *appConfig) validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Registry.Validate()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "beacon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.LoadConfig("beacon", &cfg); err != nil {
		return err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting beacon registry", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
		"lease_ttl", cfg.Registry.LeaseTTL.String(),
		"sweep_interval", cfg.Registry.SweepInterval.String(),
	))

	api.RegisterValidators()

	store := registry.NewStore()
	leases := registry.NewLeaseManager(cfg.Registry.LeaseTTL)
	svc := registry.NewService(store, leases, log)
	sweeper := registry.NewSweeper(store, cfg.Registry.SweepInterval, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	api.Routes(srv, api.NewHandlers(svc, log), cfg.Server.APIKey)

	components := component.NewRegistry()
	if err := components.Register(sweeper); err != nil {
		return err
	}
	if err := components.Register(srv); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := components.StartAll(ctx); err != nil {
		return err
	}
	log.Info("beacon registry ready", logger.Fields("addr", srv.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", logger.Fields("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return components.StopAll(shutdownCtx)
}
