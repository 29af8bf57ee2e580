package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"launchpad/config"
	"launchpad/core"
	"launchpad/observability"
	"launchpad/observability/logging"
	"launchpad/rpc"
	"launchpad/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(config.EnvName))
	bootLogger := logging.Setup("launchpadd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		bootLogger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.Setup("launchpadd", env,
		logging.WithLevel(cfg.Log.Level),
		logging.WithFile(logging.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}))

	if err := run(cfg, logger); err != nil {
		logger.Error("launchpadd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	nodeCfg, err := nodeConfig(cfg)
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	node, err := core.NewNode(db, nodeCfg, core.WithLogger(logger))
	if err != nil {
		db.Close()
		return fmt.Errorf("start node: %w", err)
	}
	defer node.Close()
	node.Subscribe(observability.Events())

	server := rpc.NewServer(node, rpc.ServerConfig{
		AuthToken:         cfg.RPC.AuthToken,
		AllowUnsigned:     cfg.RPC.AllowUnsignedCalls,
		RequestsPerMinute: float64(cfg.RPC.RequestsPerMinute),
		Burst:             cfg.RPC.Burst,
	}, logger)
	if strings.TrimSpace(cfg.RPC.AuthToken) == "" {
		logger.Warn("RPC auth token not configured; state-changing methods are disabled",
			slog.String("env", config.EnvRPCToken))
	}
	if cfg.RPC.AllowUnsignedCalls {
		logger.Warn("RPC caller signatures disabled; any token holder may act as any caller")
	}

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	logger.Info("launchpad node started",
		slog.String("network", cfg.NetworkName),
		slog.String("listen", listener.Addr().String()),
		slog.String("superAdmin", nodeCfg.SuperAdmin.Hex()))

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown rpc: %w", err)
	}
	return <-serveErr
}

// nodeConfig translates the file configuration into the node's genesis and
// runtime settings.
func nodeConfig(cfg *config.Config) (core.Config, error) {
	superAdmin, err := cfg.SuperAdminAddress()
	if err != nil {
		return core.Config{}, err
	}
	treasury, err := cfg.TreasuryAddress()
	if err != nil {
		return core.Config{}, err
	}
	admins, err := cfg.AdminAddresses()
	if err != nil {
		return core.Config{}, err
	}
	controllers, err := cfg.ControllerAddresses()
	if err != nil {
		return core.Config{}, err
	}
	balances, err := cfg.GenesisBalances()
	if err != nil {
		return core.Config{}, err
	}
	royaltyCap := cfg.RoyaltyCapBps
	return core.Config{
		SuperAdmin:    superAdmin,
		Treasury:      treasury,
		Admins:        admins,
		Controllers:   controllers,
		RoyaltyCapBps: &royaltyCap,
		Pauses:        cfg.Pauses,
		Balances:      balances,
	}, nil
}
