// Package keyboard builds the bot's inline and reply keyboards.
package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/vending"
)

// Callback prefixes of the machine keyboard.
const (
	CallbackCoin    = "coin"
	CallbackProduct = "product"
	CallbackReturn  = "return"
	CallbackDisplay = "display"
)

// Builder creates the machine keyboards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{log: log}
}

// CoinButtons builds one button per coin, pennies included so customers can watch them bounce.
func (b *Builder) CoinButtons() []InlineButton {
	coins := vending.Coins()
	buttons := make([]InlineButton, 0, len(coins))
	for _, coin := range coins {
		buttons = append(buttons, InlineButton{
			Text:   fmt.Sprintf("%s %d¢", coin, coin.Value()),
			Unique: CallbackCoin,
			Data:   coin.String(),
		})
	}

	return buttons
}

// ProductButtons builds one button per product, labelled with its price.
func (b *Builder) ProductButtons() []InlineButton {
	products := vending.Products()
	buttons := make([]InlineButton, 0, len(products))
	for _, product := range products {
		price, _ := product.Price()
		buttons = append(buttons, InlineButton{
			Text:   fmt.Sprintf("%s %s", product, vending.FormatCents(price)),
			Unique: CallbackProduct,
			Data:   product.String(),
		})
	}

	return buttons
}

// MachineMenu builds the full machine front: coin slot, product buttons, coin return and display.
func (b *Builder) MachineMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup, err := NewInlineKeyboard().
		AddRow(b.CoinButtons()...).
		AddRow(b.ProductButtons()...).
		AddRow(
			InlineButton{Text: translated(t, "menu.return", "Coin return"), Unique: CallbackReturn},
			InlineButton{Text: translated(t, "menu.display", "Display"), Unique: CallbackDisplay},
		).
		Build()
	if err != nil {
		// Every payload is a fixed coin or product name, far below the callback size limit.
		b.log.Error("failed to build machine menu", slog.Any("error", err))
		return &telebot.ReplyMarkup{}
	}

	return markup
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	if text := t.T(key); text != "" && text != key {
		return text
	}

	return fallback
}
