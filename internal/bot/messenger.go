package bot

import (
	"context"
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/parkcheep/parkcheep-bot/internal/bot/keyboard"
	"github.com/parkcheep/parkcheep-bot/internal/conversation"
	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
)

// TelebotMessenger adapts telebot's send API to the conversation.Messenger
// surface the states depend on.
type TelebotMessenger struct {
	bot *telebot.Bot
}

var _ conversation.Messenger = (*TelebotMessenger)(nil)

// NewTelebotMessenger wraps a telebot instance.
func NewTelebotMessenger(bot *telebot.Bot) *TelebotMessenger {
	return &TelebotMessenger{bot: bot}
}

func (m *TelebotMessenger) SendText(ctx context.Context, chatID int64, text string, opts ...conversation.SendOption) error {
	options := conversation.ApplySendOptions(opts)

	sendOpts := &telebot.SendOptions{}
	if options.Markdown {
		sendOpts.ParseMode = telebot.ModeMarkdownV2
	}
	if markup := keyboard.Inline(options.Buttons); markup != nil {
		sendOpts.ReplyMarkup = markup
	}

	if _, err := m.bot.Send(telebot.ChatID(chatID), text, sendOpts); err != nil {
		return apperrors.NewTransportError(fmt.Errorf("send text to chat %d: %w", chatID, err))
	}

	return nil
}

func (m *TelebotMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL string) error {
	photo := &telebot.Photo{File: telebot.FromURL(photoURL)}

	if _, err := m.bot.Send(telebot.ChatID(chatID), photo); err != nil {
		return apperrors.NewTransportError(fmt.Errorf("send photo to chat %d: %w", chatID, err))
	}

	return nil
}
