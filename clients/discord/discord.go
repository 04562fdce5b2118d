package discord

import (
	"fmt"
	"hlwatch/clients/notifier"
	"hlwatch/config"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordClient sends alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// SendAlert sends a rich embedded alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendAlert(alert notifier.Alert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := dc.buildEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("address", alert.Address),
	)
}

func (dc *DiscordClient) buildEmbed(alert notifier.Alert) *discordgo.MessageEmbed {
	// Green for buys, red for sells, grey for status changes
	color := 0x95A5A6
	switch alert.Side {
	case "buy":
		color = 0x2ECC71
	case "sell":
		color = 0xE74C3C
	}

	embed := &discordgo.MessageEmbed{
		Title:       embedTitle(alert.Kind),
		Description: alert.Message,
		Color:       color,
		Timestamp:   alert.Timestamp.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: alert.Address,
		},
	}

	if alert.Coin != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Token",
			Value:  alert.Coin,
			Inline: true,
		})
	}
	if alert.Notional > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Volume",
			Value:  fmt.Sprintf("$%.2f", alert.Notional),
			Inline: true,
		})
	}
	if alert.Count > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Events",
			Value:  fmt.Sprintf("%d", alert.Count),
			Inline: true,
		})
	}

	return embed
}

func embedTitle(kind notifier.AlertKind) string {
	switch kind {
	case notifier.AlertKindOrder:
		return "📋 New Open Order"
	case notifier.AlertKindFill:
		return "💱 New Fill"
	case notifier.AlertKindStatusChange:
		return "🔁 Order Status Change"
	case notifier.AlertKindOrderSummary:
		return "📊 Order Activity Summary"
	case notifier.AlertKindFillSummary:
		return "📊 Fill Activity Summary"
	}
	return "Wallet Activity"
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session == nil {
		return nil
	}
	return dc.session.Close()
}
