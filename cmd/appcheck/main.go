// Command appcheck runs one bootstrap pass against a real backend and prints
// the result: the session stage that was recovered, the outcome tag, and
// which preload slots came back populated. With DIAG_ENABLED=true it then
// keeps running and serves the diagnostics HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
	"github.com/sahafa/appcore/internal/core/service"
	"github.com/sahafa/appcore/internal/diag"
	"github.com/sahafa/appcore/internal/infrastructure/backend"
	"github.com/sahafa/appcore/internal/infrastructure/capability"
	"github.com/sahafa/appcore/internal/infrastructure/config"
	"github.com/sahafa/appcore/internal/infrastructure/store/filestore"
	"github.com/sahafa/appcore/internal/infrastructure/store/redisstore"
	"github.com/sahafa/appcore/pkg/logger"
)

type report struct {
	Stage   domain.Stage            `json:"stage"`
	Outcome domain.BootstrapOutcome `json:"outcome"`
	Slots   map[string]bool         `json:"slots"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open durable store")
	}

	api := backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	sessions := service.NewSessionService(store, api, log)
	boot := service.NewBootstrapSequencer(
		sessions,
		api,
		capability.NewPushRegistrar(cfg.API.BaseURL, log),
		capability.NewAdWarmup(cfg.API.BaseURL, log),
		service.BootstrapConfig{
			Ceiling:      cfg.Bootstrap.Ceiling,
			BatchTimeout: cfg.Bootstrap.BatchTimeout,
			MinSplash:    cfg.Bootstrap.MinSplash,
		},
		log,
	)

	bundle, outcome := boot.Run(ctx)

	out := report{
		Stage:   sessions.Stage(),
		Outcome: outcome,
		Slots: map[string]bool{
			"home_articles": bundle.HomeArticles != nil,
			"journalists":   bundle.Journalists != nil,
			"search_index":  bundle.SearchIndex != nil,
			"headlines":     bundle.Headlines != nil,
			"recent_videos": bundle.RecentVideos != nil,
			"profile":       bundle.Profile != nil,
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)

	if !cfg.Diag.Enabled {
		return
	}

	e := diag.NewRouter(sessions, boot, store, log)
	go func() {
		if err := e.Start(cfg.Diag.Addr); err != nil {
			log.Info().Err(err).Msg("diag server stopped")
		}
	}()
	log.Info().Str("addr", cfg.Diag.Addr).Msg("diag server listening")

	<-ctx.Done()
	_ = e.Shutdown(context.Background())
}

func buildStore(ctx context.Context, cfg *config.Config) (ports.DurableStore, error) {
	if cfg.Store.Backend == "redis" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr: cfg.Store.Redis.Addr,
			DB:   cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, cfg.Store.Redis.Prefix), nil
	}
	return filestore.Open(cfg.Store.Path)
}
