package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/heapoverflow/internal/bot"
	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/config"
	"github.com/mesh-intelligence/heapoverflow/internal/discord"
	"github.com/mesh-intelligence/heapoverflow/internal/logging"
	"github.com/mesh-intelligence/heapoverflow/internal/pending"
	"github.com/mesh-intelligence/heapoverflow/internal/server"
	"github.com/mesh-intelligence/heapoverflow/pkg/store"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long: "Connect to Discord and serve questions until interrupted. When http.addr is\n" +
			"set, /health and /metrics are served on it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireToken(); err != nil {
				return userError{err}
			}
			log, err := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Out:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return userError{err}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	checks := map[string]server.Pinger{"store": st}

	var selections pending.Store
	if cfg.RedisURL != "" {
		r, err := pending.NewRedis(ctx, cfg.RedisURL, cfg.PendingTTL)
		if err != nil {
			return err
		}
		defer r.Close()
		selections = r
		checks["redis"] = r
	} else {
		selections = pending.NewMemory(cfg.PendingTTL, clock.Real())
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	client := discord.NewClient(session, cfg.RequestsPerSecond)

	b := bot.New(st, client, selections, cfg.Guilds, clock.Real(), log)
	if err := b.Start(ctx); err != nil {
		return err
	}

	gateway := discord.NewGateway(session, client, b.Commands(), b.Handlers(), log)
	if err := gateway.Open(ctx); err != nil {
		return err
	}
	defer gateway.Close()

	log.Info().
		Str("version", Version).
		Str("backend", cfg.Store.Backend).
		Int("guilds", len(cfg.Guilds)).
		Msg("heapoverflow running")

	if cfg.HTTPAddr == "" {
		<-ctx.Done()
	} else if err := server.New(cfg.HTTPAddr, server.NewRouter(log, Version, checks), log).Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
