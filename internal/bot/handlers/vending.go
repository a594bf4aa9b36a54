package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/keyboard"
	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/journal"
	"github.com/Proton-105/vending-machine/internal/vending"
)

const historyLimit = 10

// Fleet is the part of fleet.Service the bot drives.
type Fleet interface {
	Deposit(ctx context.Context, machineID string, coin vending.Coin) (bool, error)
	Select(ctx context.Context, machineID string, product vending.Product) (vending.Product, error)
	Return(ctx context.Context, machineID string) ([]vending.Coin, error)
	Display(ctx context.Context, machineID string) (string, error)
	Tray(ctx context.Context, machineID string) ([]vending.Coin, error)
	Snapshot(ctx context.Context, machineID string) (vending.Snapshot, error)
	Reset(ctx context.Context, machineID string) error
	History(ctx context.Context, machineID string, limit int) ([]journal.Entry, error)
}

// Vending serves the machine commands of one bot.
type Vending struct {
	fleet        Fleet
	keyboard     *keyboard.Builder
	translations *i18n.Manager
	log          *slog.Logger
}

// NewVending builds the machine command handlers.
func NewVending(fleet Fleet, kb *keyboard.Builder, translations *i18n.Manager, log *slog.Logger) *Vending {
	if log == nil {
		log = slog.Default()
	}
	if kb == nil {
		kb = keyboard.NewBuilder(log)
	}

	return &Vending{
		fleet:        fleet,
		keyboard:     kb,
		translations: translations,
		log:          log,
	}
}

// Start greets the customer and shows the machine front.
func (v *Vending) Start(c telebot.Context) error {
	t := v.translator(c)

	if err := c.Send(t.T("start"), keyboard.MainMenu()); err != nil {
		return err
	}

	return c.Send(t.T("menu.coins"), v.keyboard.MachineMenu(t))
}

// Insert handles "/insert <coin>".
func (v *Vending) Insert(c telebot.Context) error {
	_, args := ParseCommand(c.Text())
	if len(args) == 0 {
		return c.Send(v.translator(c).T("insert.usage"))
	}

	return v.deposit(c, args[0])
}

// Select handles "/select <product>".
func (v *Vending) Select(c telebot.Context) error {
	_, args := ParseCommand(c.Text())
	if len(args) == 0 {
		return c.Send(v.translator(c).T("select.usage"))
	}

	return v.selectProduct(c, args[0])
}

// Return presses the coin return button.
func (v *Vending) Return(c telebot.Context) error {
	t := v.translator(c)

	returned, err := v.fleet.Return(RequestContext(c), MachineID(c))
	if err != nil {
		return err
	}

	if len(returned) == 0 {
		return c.Send(t.T("return.empty"))
	}

	return c.Send(t.Tf("return.done", FormatCoins(returned)))
}

// Display reads the machine display.
func (v *Vending) Display(c telebot.Context) error {
	message, err := v.fleet.Display(RequestContext(c), MachineID(c))
	if err != nil {
		return err
	}

	return c.Send(v.translator(c).Tf("display", message))
}

// Tray shows the coin return slot.
func (v *Vending) Tray(c telebot.Context) error {
	t := v.translator(c)

	tray, err := v.fleet.Tray(RequestContext(c), MachineID(c))
	if err != nil {
		return err
	}

	if len(tray) == 0 {
		return c.Send(t.T("tray.empty"))
	}

	return c.Send(t.Tf("tray.coins", FormatCoins(tray)))
}

// Status shows the machine's ledgers without touching the display.
func (v *Vending) Status(c telebot.Context) error {
	snap, err := v.fleet.Snapshot(RequestContext(c), MachineID(c))
	if err != nil {
		return err
	}

	stock := make([]string, 0, len(snap.Inventory))
	for _, product := range vending.Products() {
		stock = append(stock, fmt.Sprintf("%s %d", product, snap.Inventory[product]))
	}

	tray := FormatCoins(snap.Tray)
	if tray == "" {
		tray = "-"
	}

	return c.Send(v.translator(c).Tf("status",
		snap.State,
		vending.FormatCents(snap.Balance),
		strings.Join(stock, ", "),
		tray,
	))
}

// Reset restocks the chat's machine.
func (v *Vending) Reset(c telebot.Context) error {
	if err := v.fleet.Reset(RequestContext(c), MachineID(c)); err != nil {
		return err
	}

	return c.Send(v.translator(c).T("reset"))
}

// History lists the machine's most recent journal entries.
func (v *Vending) History(c telebot.Context) error {
	t := v.translator(c)

	entries, err := v.fleet.History(RequestContext(c), MachineID(c), historyLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return c.Send(t.T("history.empty"))
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, t.T("history.title"))
	for _, entry := range entries {
		lines = append(lines, formatEntry(entry))
	}

	return c.Send(strings.Join(lines, "\n"))
}

// Text treats a bare coin or product name as the matching button press.
func (v *Vending) Text(c telebot.Context) error {
	word := strings.TrimSpace(c.Text())

	if _, err := vending.ParseCoin(word); err == nil {
		return v.deposit(c, word)
	}
	if _, err := vending.ParseProduct(word); err == nil {
		return v.selectProduct(c, word)
	}

	return c.Send(v.translator(c).T("unknown"))
}

// Callback handles the machine keyboard.
func (v *Vending) Callback(c telebot.Context) error {
	if err := c.Respond(); err != nil {
		v.log.Warn("failed to answer callback", slog.Any("error", err))
	}

	unique, data, err := keyboard.DecodeCallback(c.Callback().Data)
	if err != nil {
		return err
	}

	switch unique {
	case keyboard.CallbackCoin:
		return v.deposit(c, data)
	case keyboard.CallbackProduct:
		return v.selectProduct(c, data)
	case keyboard.CallbackReturn:
		return v.Return(c)
	case keyboard.CallbackDisplay:
		return v.Display(c)
	default:
		v.log.Info("unknown machine callback", slog.String("data", c.Callback().Data))
		return nil
	}
}

func (v *Vending) deposit(c telebot.Context, name string) error {
	t := v.translator(c)

	coin, err := vending.ParseCoin(name)
	if err != nil {
		return c.Send(t.T("errors.invalid_coin"))
	}

	ctx := RequestContext(c)
	machineID := MachineID(c)

	accepted, err := v.fleet.Deposit(ctx, machineID, coin)
	if err != nil {
		return err
	}

	if !accepted {
		return c.Send(t.Tf("insert.rejected", coin))
	}

	message, err := v.fleet.Display(ctx, machineID)
	if err != nil {
		return err
	}

	return c.Send(t.Tf("insert.accepted", coin, message))
}

func (v *Vending) selectProduct(c telebot.Context, name string) error {
	t := v.translator(c)

	product, err := vending.ParseProduct(name)
	if err != nil {
		return c.Send(t.T("errors.invalid_product"))
	}

	ctx := RequestContext(c)
	machineID := MachineID(c)

	got, err := v.fleet.Select(ctx, machineID, product)
	if err != nil {
		return err
	}

	if got == vending.ProductNone {
		// The display explains why: sold out, price or exact change only.
		message, err := v.fleet.Display(ctx, machineID)
		if err != nil {
			return err
		}
		return c.Send(t.Tf("select.not_dispensed", message))
	}

	reply := t.Tf("select.dispensed", got)

	change, err := v.fleet.Tray(ctx, machineID)
	if err != nil {
		return err
	}
	if len(change) > 0 {
		reply += "\n" + t.Tf("select.change", FormatCoins(change))
	}

	return c.Send(reply)
}

func (v *Vending) translator(c telebot.Context) i18n.Translator {
	return v.translations.Translator(LanguageCode(c))
}

// FormatCoins renders coins as "quarter, dime".
func FormatCoins(coins []vending.Coin) string {
	names := make([]string, 0, len(coins))
	for _, coin := range coins {
		names = append(names, coin.String())
	}

	return strings.Join(names, ", ")
}

func formatEntry(entry journal.Entry) string {
	line := entry.At.Format("15:04:05") + " " + string(entry.Kind)
	if entry.Product != "" {
		line += " " + entry.Product + " " + vending.FormatCents(entry.Price)
	}
	if len(entry.Coins) > 0 {
		line += " [" + strings.Join(entry.Coins, ", ") + "]"
	}

	return line
}
