/* main.go
 * The "main" method for running the gaming hub server. Serves the GraphQL API, and optionally the Discord bot and the
 * ranking jobs
 * Usage: go run . [-seed] [-bot] [-cron=false]
 * Authors: Zachary Bower
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/api/api"
	"gamehub/api/auth"
	"gamehub/api/store"
	"gamehub/bot"
	"gamehub/config"
	"gamehub/graph"
	"gamehub/jobs"
	"gamehub/obslog"
	"gamehub/web"

	"go.uber.org/zap"
)

// runFlags are the command line switches
type runFlags struct {
	seed bool
	bot  bool
	cron bool
}

func main() {
	seedPtr := flag.Bool("seed", false, "Seed the four ranked leagues and exit")
	botPtr := flag.Bool("bot", false, "Also answer $ commands in the Discord channel")
	cronPtr := flag.Bool("cron", true, "Run the ranking jobs, use -cron=false to disable")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := obslog.Init(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runFlags{seed: *seedPtr, bot: *botPtr, cron: *cronPtr}); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

// run wires every component and blocks until ctx is cancelled
// Preconditions: Receives a validated config and a context cancelled on SIGINT / SIGTERM
// Postconditions: Returns nil after a clean shutdown, or the first start up error
func run(ctx context.Context, cfg *config.Config, flags runFlags) error {
	st, err := store.NewStore(ctx, cfg.MongoDB, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			obslog.L().Warn("failed to close mongo client", zap.Error(err))
		}
	}()
	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}

	options, cleanup, err := collaborators(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := api.NewAPI(st, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), options...)
	if err != nil {
		return err
	}

	if flags.seed {
		if err := a.SeedLeagues(ctx); err != nil {
			return err
		}
		obslog.L().Info("ranked leagues seeded")
		return nil
	}

	if cfg.DiscordEnabled() {
		discord, err := bot.NewBot(cfg.DiscordToken, cfg.DiscordChannelID, a)
		if err != nil {
			return err
		}
		a.Announcer = discord
		go func() {
			if err := discord.Run(ctx, flags.bot); err != nil {
				obslog.L().Error("discord bot stopped", zap.Error(err))
			}
		}()
	} else if flags.bot {
		obslog.L().Warn("-bot needs DISCORD_TOKEN and DISCORD_CHANNEL_ID, the bot is disabled")
	}

	if flags.cron && cfg.CronEnabled {
		scheduler, err := jobs.New(a)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	schema, err := graph.NewSchema(a)
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}
	srv, err := web.NewServer(web.Config{
		API:           a,
		Schema:        schema,
		UploadDir:     cfg.UploadDir,
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx, cfg.Addr())
}
