package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-ops/internal/config"
	"github.com/keshon/server-ops/internal/engine"
)

// Bot is the Discord front of the command engine: it owns the session, feeds
// inbound messages into the engine, and runs until its context is done.
type Bot struct {
	dg  *discordgo.Session
	cfg *config.Config
	svc *engine.Service

	baseCtx context.Context
}

// New creates the session and assembles the engine on top of it. Commands are
// registered by the caller through Engine() before Run.
func New(cfg *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// The delivery channel owns rate-limit backoff; keep the session's own
	// rest retries to a single attempt so 429s surface quickly.
	dg.MaxRestRetries = 1

	svc := engine.NewService(engine.Options{
		Transport:     NewTransport(dg),
		Permissions:   NewResolver(dg, cfg.Masters, cfg.SupportGuilds, cfg.SupportRoles),
		ChannelLevels: engine.ParseChannelLevels(cfg.ChannelLevels),
		JobTimeout:    cfg.JobTimeout,
	})
	svc.RegisterHelp(cfg.CommandPrefix+" help", ".help")

	return &Bot{dg: dg, cfg: cfg, svc: svc}, nil
}

// Engine returns the command engine for command registration and wiring.
func (b *Bot) Engine() *engine.Service { return b.svc }

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.baseCtx = ctx
	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	go b.svc.RunStatusSweeper(ctx, b.cfg.StatusSweepPeriod, b.cfg.StatusRetention)

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

// configureIntents configures the Discord intents.
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsAll
}

// onReady is called when the bot is ready.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}
	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

// onMessageCreate feeds every foreign message into the engine's dispatcher.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	b.svc.HandleMessage(b.baseCtx, engine.InboundMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	})
}
