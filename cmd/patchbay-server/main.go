// patchbay-server runs the patchbay editor's HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/api"
	"github.com/dd0wney/cluso-patchbay/pkg/auth"
	"github.com/dd0wney/cluso-patchbay/pkg/config"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
	"github.com/dd0wney/cluso-patchbay/pkg/metrics"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
	"github.com/dd0wney/cluso-patchbay/pkg/server"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Server port (overrides config)")
	rejectCycles := flag.Bool("reject-cycles", false, "Refuse cables that would close a feedback loop")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.NewDefaultLogger()
	logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
	log := logger.With(logging.Component("main"))

	projects, err := openProjectStore(cfg, log)
	if err != nil {
		log.Error("failed to open project store", logging.Error(err))
		os.Exit(1)
	}
	defer projects.Close()

	users, jwtManager, err := setupAuth(cfg, log)
	if err != nil {
		log.Error("failed to set up auth", logging.Error(err))
		os.Exit(1)
	}

	apiServer := api.NewServer(patch.NewStore(), api.Options{
		Projects:     projects,
		Users:        users,
		JWTManager:   jwtManager,
		Metrics:      metrics.DefaultRegistry(),
		Logger:       logger,
		RejectCycles: *rejectCycles,
		Version:      version,
	})
	defer apiServer.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	gs := server.NewGracefulServer(addr, apiServer.Handler(), cfg.Server, logger)
	gs.SetConfigReloadFunc(func() error {
		reloaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(reloaded.Log.Level))
		return nil
	})

	log.Info("patchbay server starting",
		logging.String("addr", addr),
		logging.String("version", version),
		logging.String("storage", cfg.Storage.Backend))
	if err := gs.Start(); err != nil {
		log.Error("server failed", logging.Error(err))
		os.Exit(1)
	}
}

func openProjectStore(cfg *config.Config, log logging.Logger) (project.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("using postgres project store")
		return project.NewPGStore(ctx, cfg.Storage.DatabaseURL)
	default:
		log.Info("using filesystem project store",
			logging.String("data_dir", cfg.Storage.DataDir),
			logging.Bool("compress", cfg.Storage.Compress))
		return project.NewFSStore(cfg.Storage.DataDir, cfg.Storage.Compress)
	}
}

// setupAuth wires the user store and token manager when a JWT secret is
// configured. Without one the editor runs open, for local use.
func setupAuth(cfg *config.Config, log logging.Logger) (*auth.UserStore, *auth.JWTManager, error) {
	if cfg.Auth.JWTSecret == "" {
		log.Warn("no JWT secret configured, authentication disabled")
		return nil, nil, nil
	}

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err != nil {
		return nil, nil, err
	}

	users := auth.NewUserStore()
	if cfg.Auth.UsersFile != "" {
		if err := users.Load(cfg.Auth.UsersFile); err != nil {
			return nil, nil, err
		}
		log.Info("loaded users", logging.Count(len(users.ListUsers())))
	}
	return users, jwtManager, nil
}
