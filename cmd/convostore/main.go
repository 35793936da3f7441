package main

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"convostore/internal/app"
	"convostore/pkg/banner"
	"convostore/pkg/config"
	"convostore/pkg/logger"
	"convostore/pkg/shutdown"
	"convostore/pkg/store"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, cfgVal, memory, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	// Flags win over env, env over file.
	addr := cfg.Addr()
	if setFlags["addr"] && addrVal != "" {
		addr = addrVal
	}

	a, err := app.New(cfg, addr, memory, version)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	srcs := []string{"env"}
	if cfgPath != "" {
		srcs = append(srcs, "config")
	}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(addr, a.Backend(), strings.Join(srcs, ", "), verStr)

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_exited", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}
