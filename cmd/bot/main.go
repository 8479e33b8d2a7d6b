// cmd/bot/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "raven-md/internal/plugins/core"
	_ "raven-md/internal/plugins/group"

	"raven-md/internal/command"
	"raven-md/internal/config"
	"raven-md/internal/dispatch"
	"raven-md/internal/logging"
	"raven-md/internal/message"
	"raven-md/internal/plugins"
	"raven-md/internal/plugins/admin"
	"raven-md/internal/storage"
	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

func main() {
	cfg := config.New()
	log := logging.New(cfg.LogLevel, cfg.LogPath)
	log.Info().Str("bot", cfg.BotName).Msg("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer store.Close()

	registry := command.NewRegistry(log)
	registry.Register(plugins.All()...)

	catalog := command.NewCatalog()
	plugins.BindAll(catalog)

	reload := func() error {
		defs, err := command.LoadDir(cfg.CommandsDir, catalog)
		if err != nil {
			return err
		}
		registry.SetManifests(defs)
		return nil
	}
	registry.Register(admin.Reload(reload))
	if err := reload(); err != nil {
		log.Warn().Err(err).Msg("initial manifest load failed, running with builtins")
	}

	cooldowns := command.NewCooldownTracker()
	go cooldowns.RunSweeper(ctx, log)

	watcher := command.NewWatcher(cfg.CommandsDir, 5*time.Second, reload, log)
	go watcher.Run(ctx)

	client, err := transport.NewClient(transport.Config{
		SessionPath: cfg.SessionPath,
		SendRate:    rate.Limit(cfg.SendRate),
		SendBurst:   cfg.SendBurst,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init transport")
	}
	defer client.Close()

	serializer := &message.Serializer{
		Prefix: cfg.Prefix,
		Sender: client,
		Groups: message.NewGroupCache(client, time.Duration(cfg.GroupCacheTTL)*time.Second),
	}
	dispatcher := dispatch.New(dispatch.Deps{
		Config:     cfg,
		Messages:   config.DefaultMessages(),
		Registry:   registry,
		Cooldowns:  cooldowns,
		Gate:       dispatch.NewGate(cfg, store),
		Serializer: serializer,
		Storage:    store,
		Sender:     client,
		Transport:  client,
		Sigils:     dispatch.NewSigilRunner(registry, logging.Audit(log)),
		Log:        log,
	})

	// Connect first (this drives QR pairing on a fresh session), then start
	// routing events; the serializer needs the session's own JID.
	if err := client.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	serializer.Self = client.SelfJID()
	client.OnEvent(func(ctx context.Context, ev *wa.Event) {
		go dispatcher.HandleEvent(ctx, ev)
	})
	log.Info().Str("jid", client.SelfJID()).Int("commands", len(registry.Commands())).Msg("connected")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case <-ctx.Done():
	}

	log.Info().Msg("exited cleanly")
}
