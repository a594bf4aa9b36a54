// Package handlers implements the bot's commands and callbacks on top of the vending fleet.
package handlers

import (
	"context"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// RequestContextKey is the telebot context key holding the update's context.Context.
const RequestContextKey = "request_context"

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// ParseCommand splits "/insert@vending_bot quarter" into "/insert" and ["quarter"].
// Text that is not a command yields an empty command.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", fields
	}

	command, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(command), fields[1:]
}

// MachineID maps a chat to the machine it operates. Every chat gets its own machine.
func MachineID(c telebot.Context) string {
	if c == nil || c.Chat() == nil {
		return ""
	}

	return "chat:" + strconv.FormatInt(c.Chat().ID, 10)
}

// LanguageCode returns the sender's Telegram language, if any.
func LanguageCode(c telebot.Context) string {
	if c == nil || c.Sender() == nil {
		return ""
	}

	return c.Sender().LanguageCode
}

// RequestContext returns the context for fleet calls made on behalf of the update.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(RequestContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}

	return context.Background()
}
