// Package bot wires the Telegram transport to the conversation engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/parkcheep/parkcheep-bot/internal/bot/keyboard"
	"github.com/parkcheep/parkcheep-bot/internal/conversation"
	"github.com/parkcheep/parkcheep-bot/internal/idempotency"
	"github.com/parkcheep/parkcheep-bot/internal/ratelimit"
	"github.com/parkcheep/parkcheep-bot/pkg/config"
)

// Bot wraps telebot.Bot with the conversation dispatcher.
type Bot struct {
	telebot    *telebot.Bot
	dispatcher *conversation.Dispatcher
	log        *slog.Logger
	cfg        config.Config
}

// New builds a telegram bot instance configured according to the application
// settings. The returned bot owns the conversation dispatcher wiring; callers
// still need to Start it.
func New(
	cfg config.Config,
	log *slog.Logger,
	dispatcher *conversation.Dispatcher,
	limiter ratelimit.Limiter,
	dedup idempotency.Manager,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.WebhookListen,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:    tb,
		dispatcher: dispatcher,
		log:        log,
		cfg:        cfg,
	}

	tb.Use(RecoveryMiddleware(log))
	tb.Use(LoggingMiddleware(log))
	tb.Use(RateLimitMiddleware(limiter, cfg.RateLimit, log))
	tb.Use(IdempotencyMiddleware(dedup, log))

	tb.Handle(telebot.OnText, b.handleText)
	tb.Handle(telebot.OnCallback, b.handleCallback)

	return b, nil
}

// Start announces the command menu and runs the event loop. Blocks until Stop.
func (b *Bot) Start() {
	if err := b.telebot.SetCommands([]telebot.Command{
		{Text: "start", Description: "Start finding carparks at your destination"},
		{Text: "stop", Description: "Stop the current search"},
		{Text: "feedback", Description: "Send feedback to the team"},
	}); err != nil {
		b.log.Warn("failed to publish command menu", slog.Any("error", err))
	}

	b.log.Info("starting telegram bot", slog.String("mode", b.cfg.Bot.Mode))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such
// as the messenger adapter and health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) handleText(c telebot.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	// Dispatch failures already apologized and reset; nothing for telebot to do.
	_ = b.dispatcher.HandleMessage(context.Background(), chat.ID, c.Text())

	return nil
}

func (b *Bot) handleCallback(c telebot.Context) error {
	callback := c.Callback()
	if callback == nil || callback.Sender == nil {
		return nil
	}

	data := keyboard.NormalizeData(callback.Data)
	_ = b.dispatcher.HandleCallback(context.Background(), callback.Sender.ID, data)

	return c.Respond(&telebot.CallbackResponse{})
}
