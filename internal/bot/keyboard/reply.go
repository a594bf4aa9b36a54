package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// MainMenu builds the persistent reply keyboard with the read-only machine commands.
func MainMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	markup.Reply(
		markup.Row(markup.Text("/display"), markup.Text("/tray")),
		markup.Row(markup.Text("/status"), markup.Text("/return")),
	)

	return markup
}
