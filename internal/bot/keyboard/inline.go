// Package keyboard renders inline reply markup for conversation prompts.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/parkcheep/parkcheep-bot/internal/conversation"
)

// Inline converts conversation button rows into telebot inline markup.
// Returns nil for empty input so callers can pass the result straight to
// Send.
func Inline(rows [][]conversation.Button) *telebot.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}

	inlineKeyboard := make([][]telebot.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		buttons := make([]telebot.InlineButton, 0, len(row))
		for _, btn := range row {
			// A button Telegram would reject takes down the whole message;
			// dropping it keeps the prompt deliverable.
			if err := ValidateData(btn.Data); err != nil {
				continue
			}

			buttons = append(buttons, telebot.InlineButton{
				Text: btn.Text,
				Data: btn.Data,
			})
		}
		if len(buttons) == 0 {
			continue
		}
		inlineKeyboard = append(inlineKeyboard, buttons)
	}

	if len(inlineKeyboard) == 0 {
		return nil
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}
}
