package main

import (
	"context"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"drawsync/internal/app"
	"drawsync/pkg/config"
	"drawsync/pkg/logger"
	"drawsync/pkg/shutdown"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load(".env")

	addrFlag, dbFlag, cfgFlag, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgFlag, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Explicit flags win over env and file.
	if setFlags["addr"] {
		if h, p, err := net.SplitHostPort(addrFlag); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		}
	}
	if setFlags["db"] {
		cfg.Server.DBPath = dbFlag
	}

	logger.Init(cfg.Logging.Level)
	logger.Info("config_loaded", "path", cfgPath, "env_overrides", envUsed)

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}
}
