package clients

import (
	"hlwatch/clients/discord"
	"hlwatch/clients/hyperliquid"
	"hlwatch/clients/hyperliquidevents"
	"hlwatch/clients/notifier"
	"hlwatch/clients/telegram"
	"hlwatch/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord           *discord.DiscordClient
	Telegram          *telegram.TelegramClient
	Notifier          notifier.Notifier // Combined notifier for all channels
	Hyperliquid       *hyperliquid.Client
	HyperliquidEvents *hyperliquidevents.Client
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)
	consoleNotifier := notifier.NewConsoleNotifier(logger)

	// Console always receives alerts; chat sinks no-op when unconfigured.
	multiNotifier := notifier.NewMultiNotifier(consoleNotifier, discordClient, telegramClient)

	c := &Clients{
		Logger:      logger,
		Discord:     discordClient,
		Telegram:    telegramClient,
		Notifier:    multiNotifier,
		Hyperliquid: hyperliquid.NewClient(logger, cfg),
	}

	// Only create WebSocket client if configured to use it
	if cfg.Hyperliquid.UseWebSocket {
		c.HyperliquidEvents = hyperliquidevents.NewClient(logger, cfg.Hyperliquid.WSURL)
	}

	return c
}
