// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/server-ops/internal/announcer"
	"github.com/keshon/server-ops/internal/commands"
	"github.com/keshon/server-ops/internal/config"
	"github.com/keshon/server-ops/internal/console"
	"github.com/keshon/server-ops/internal/discord"
	"github.com/keshon/server-ops/internal/storage"
	v "github.com/keshon/server-ops/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	bot, err := discord.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	commands.RegisterAll(bot.Engine(), commands.Deps{
		Prefix:    cfg.CommandPrefix,
		Announcer: announcer.New(store, bot.Engine().Delivery()),
		Console:   console.New(),
		StartedAt: time.Now(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
