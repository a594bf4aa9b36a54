package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/fleet"
	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/journal"
	"github.com/Proton-105/vending-machine/internal/vending"
)

// fakeContext implements the subset of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context

	text      string
	chat      *telebot.Chat
	sender    *telebot.User
	callback  *telebot.Callback
	sent      []string
	responded bool
	store     map[string]interface{}
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{
		text:   text,
		chat:   &telebot.Chat{ID: chatID},
		sender: &telebot.User{ID: chatID, LanguageCode: "en"},
		store:  make(map[string]interface{}),
	}
}

func (c *fakeContext) Text() string                { return c.text }
func (c *fakeContext) Chat() *telebot.Chat         { return c.chat }
func (c *fakeContext) Sender() *telebot.User       { return c.sender }
func (c *fakeContext) Callback() *telebot.Callback { return c.callback }
func (c *fakeContext) Get(key string) interface{}  { return c.store[key] }
func (c *fakeContext) Set(key string, val interface{}) {
	c.store[key] = val
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) Respond(_ ...*telebot.CallbackResponse) error {
	c.responded = true
	return nil
}

func (c *fakeContext) last() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestVending(t *testing.T) (*Vending, *fleet.Service) {
	t.Helper()

	translations, err := i18n.Load("en")
	require.NoError(t, err)

	service := fleet.NewService(fleet.Options{
		DefaultStock: 1,
		Journal:      journal.NewMemoryJournal(10),
		Log:          testLogger(),
	})

	return NewVending(service, nil, translations, testLogger()), service
}

func send(t *testing.T, h Handler, chatID int64, text string) *fakeContext {
	t.Helper()

	c := newFakeContext(chatID, text)
	require.NoError(t, h(c))
	return c
}

func TestVending_PurchaseFlow(t *testing.T) {
	v, service := newTestVending(t)

	assert.Equal(t, "quarter accepted. Display: $0.25", send(t, v.Insert, 1, "/insert quarter").last())
	assert.Equal(t, "quarter accepted. Display: $0.50", send(t, v.Insert, 1, "/insert@vending_bot QUARTER").last())
	assert.Equal(t, "dime accepted. Display: $0.60", send(t, v.Insert, 1, "/insert dime").last())
	assert.Equal(t, "The penny was rejected and dropped into the coin return.", send(t, v.Insert, 1, "/insert penny").last())

	assert.Equal(t, "Here is your chips!\nYour change: dime", send(t, v.Select, 1, "/select chips").last())
	assert.Equal(t, "Coin return: dime", send(t, v.Tray, 1, "/tray").last())
	assert.Equal(t, "Display: THANK YOU", send(t, v.Display, 1, "/display").last())
	assert.Equal(t, "Display: INSERT COIN", send(t, v.Display, 1, "/display").last())

	// Stock was one unit.
	send(t, v.Insert, 1, "/insert quarter")
	send(t, v.Insert, 1, "/insert quarter")
	assert.Equal(t, "Nothing dispensed. Display: SOLD OUT", send(t, v.Select, 1, "/select chips").last())

	snap, err := service.Snapshot(context.Background(), "chat:1")
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Balance)
}

func TestVending_PriceAndReturn(t *testing.T) {
	v, _ := newTestVending(t)

	send(t, v.Insert, 2, "/insert dime")
	assert.Equal(t, "Nothing dispensed. Display: PRICE $1.00", send(t, v.Select, 2, "/select cola").last())
	assert.Equal(t, "Returned: dime", send(t, v.Return, 2, "/return").last())
	assert.Equal(t, "There are no coins to return.", send(t, v.Return, 2, "/return").last())
	assert.Equal(t, "The coin return is empty.", send(t, v.Tray, 2, "/tray").last())
}

func TestVending_StatusAndHistory(t *testing.T) {
	v, _ := newTestVending(t)

	assert.Equal(t, "Nothing has happened at this machine yet.", send(t, v.History, 3, "/history").last())

	send(t, v.Insert, 3, "/insert quarter")
	assert.Equal(t,
		"State: has_customer_coins\nBalance: $0.25\nStock: cola 1, chips 1, candy 1\nCoin return: -",
		send(t, v.Status, 3, "/status").last(),
	)

	send(t, v.Return, 3, "/return")
	history := send(t, v.History, 3, "/history").last()
	assert.Contains(t, history, "Recent activity:")
	assert.Contains(t, history, "coin_return [quarter]")

	assert.Equal(t, "The machine was reset and restocked.", send(t, v.Reset, 3, "/reset").last())
}

func TestVending_UsageAndInvalidInput(t *testing.T) {
	v, _ := newTestVending(t)

	testCases := []struct {
		name     string
		handler  Handler
		text     string
		expected string
	}{
		{name: "insert without coin", handler: v.Insert, text: "/insert", expected: "Usage: /insert <nickel|dime|quarter|penny>"},
		{name: "select without product", handler: v.Select, text: "/select", expected: "Usage: /select <cola|chips|candy>"},
		{name: "unknown coin", handler: v.Insert, text: "/insert doubloon", expected: "That is not a coin this machine knows. Try nickel, dime, quarter or penny."},
		{name: "unknown product", handler: v.Select, text: "/select gum", expected: "That product is not sold here. Try cola, chips or candy."},
		{name: "free text coin", handler: v.Text, text: "nickel", expected: "nickel accepted. Display: $0.05"},
		{name: "free text product", handler: v.Text, text: "Candy", expected: "Nothing dispensed. Display: PRICE $0.65"},
		{name: "free text gibberish", handler: v.Text, text: "hello", expected: "Unknown command. Send /start for help."},
	}

	for i, tc := range testCases {
		tc := tc
		chatID := int64(100 + i)
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, send(t, tc.handler, chatID, tc.text).last())
		})
	}
}

func TestVending_Callbacks(t *testing.T) {
	v, _ := newTestVending(t)

	press := func(data string) *fakeContext {
		c := newFakeContext(4, "")
		c.callback = &telebot.Callback{Data: data}
		require.NoError(t, v.Callback(c))
		assert.True(t, c.responded)
		return c
	}

	assert.Equal(t, "quarter accepted. Display: $0.25", press("coin_quarter").last())
	assert.Equal(t, "Display: $0.25", press("display").last())
	assert.Equal(t, "Nothing dispensed. Display: PRICE $0.50", press("product_chips").last())
	assert.Equal(t, "Returned: quarter", press("return").last())
	assert.Empty(t, press("unknown_thing").sent)
}

func TestVending_StartLocalized(t *testing.T) {
	v, _ := newTestVending(t)

	c := newFakeContext(5, "/start")
	c.sender.LanguageCode = "ru"
	require.NoError(t, v.Start(c))

	require.Len(t, c.sent, 2)
	assert.Contains(t, c.sent[0], "Добро пожаловать")
	assert.Equal(t, "Бросьте монету:", c.sent[1])
}

type failingFleet struct {
	Fleet
}

func (failingFleet) Display(context.Context, string) (string, error) {
	return "", errors.New("fleet unavailable")
}

func TestVending_FleetErrorsPropagate(t *testing.T) {
	translations, err := i18n.Load("en")
	require.NoError(t, err)

	v := NewVending(failingFleet{}, nil, translations, testLogger())
	assert.Error(t, v.Display(newFakeContext(6, "/display")))
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		text    string
		command string
		args    []string
	}{
		{text: "/insert quarter", command: "/insert", args: []string{"quarter"}},
		{text: "/Status@vending_bot", command: "/status", args: []string{}},
		{text: "quarter", command: "", args: []string{"quarter"}},
		{text: "   ", command: "", args: []string{}},
	}

	for _, tc := range testCases {
		command, args := ParseCommand(tc.text)
		assert.Equal(t, tc.command, command, tc.text)
		assert.ElementsMatch(t, tc.args, args, tc.text)
	}
}

func TestRequestContext(t *testing.T) {
	c := newFakeContext(1, "")
	assert.Equal(t, context.Background(), RequestContext(c))

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	c.Set(RequestContextKey, ctx)
	assert.Equal(t, ctx, RequestContext(c))

	assert.Equal(t, "chat:1", MachineID(c))
	assert.Equal(t, "", MachineID(nil))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "quarter, nickel", FormatCoins([]vending.Coin{vending.CoinQuarter, vending.CoinNickel}))
	assert.Equal(t, "", FormatCoins(nil))
}
