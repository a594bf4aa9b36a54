package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/vending-machine/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) Tf(key string, _ ...any) string {
	return m.T(key)
}

func (m *mockTranslator) Lang() string {
	return "en"
}

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{name: "with data", unique: "coin", data: "quarter", want: "coin_quarter"},
		{name: "without data", unique: "return", want: "return"},
		{name: "exceeds limit", unique: "product", data: strings.Repeat("x", keyboard.CallbackDataLimitBytes), wantError: true},
		{name: "bare unique exceeds limit", unique: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{name: "coin", input: "coin_dime", wantUnique: "coin", wantData: "dime"},
		{name: "no payload", input: "display", wantUnique: "display"},
		{name: "multiple separators", input: "product_a_b", wantUnique: "product", wantData: "a_b"},
		{name: "empty input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnique, unique)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		markup, err := keyboard.NewInlineKeyboard().
			AddRow(
				keyboard.InlineButton{Text: "Dime", Unique: "coin", Data: "dime"},
				keyboard.InlineButton{Text: "Quarter", Unique: "coin", Data: "quarter"},
			).
			AddRow().
			AddRow(keyboard.InlineButton{Text: "Display", Unique: "display"}).
			Build()
		require.NoError(t, err)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Equal(t, "coin_quarter", markup.InlineKeyboard[0][1].Data)
		assert.Equal(t, "display", markup.InlineKeyboard[1][0].Data)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		_, err := keyboard.NewInlineKeyboard().
			AddRow(keyboard.InlineButton{Text: "Too big", Unique: "coin", Data: strings.Repeat("x", keyboard.CallbackDataLimitBytes)}).
			Build()
		assert.Error(t, err)
	})
}

func TestBuilder_MachineMenu(t *testing.T) {
	b := keyboard.NewBuilder(nil)
	markup := b.MachineMenu(&mockTranslator{translations: map[string]string{"menu.return": "Return coins"}})

	require.Len(t, markup.InlineKeyboard, 3)

	coins := markup.InlineKeyboard[0]
	require.Len(t, coins, 4)
	assert.Equal(t, "coin_quarter", coins[0].Data)
	assert.Equal(t, "quarter 25¢", coins[0].Text)
	assert.Equal(t, "coin_penny", coins[3].Data)

	products := markup.InlineKeyboard[1]
	require.Len(t, products, 3)
	assert.Equal(t, "product_cola", products[0].Data)
	assert.Equal(t, "cola $1.00", products[0].Text)
	assert.Equal(t, "candy $0.65", products[2].Text)

	assert.Equal(t, "Return coins", markup.InlineKeyboard[2][0].Text)
	assert.Equal(t, "return", markup.InlineKeyboard[2][0].Data)
	// Missing translations fall back to English labels.
	assert.Equal(t, "Display", markup.InlineKeyboard[2][1].Text)
}

func TestMainMenu(t *testing.T) {
	markup := keyboard.MainMenu()

	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.ReplyKeyboard, 2)
	assert.Equal(t, "/display", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "/return", markup.ReplyKeyboard[1][1].Text)
}
