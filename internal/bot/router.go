package bot

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
)

type callbackRoute struct {
	prefix  string
	handler handlers.CallbackHandler
}

// Router dispatches commands, callbacks and free text.
// Every dispatched handler runs inside the middleware chain in registration order.
type Router struct {
	mu        sync.RWMutex
	commands  map[string]handlers.Handler
	callbacks []callbackRoute // longest prefix first
	fallback  handlers.Handler
	chain     []handlers.Middleware
	log       *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands: make(map[string]handlers.Handler),
		log:      log,
	}
}

// RegisterCommand binds a command such as "/insert".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	r.commands[strings.ToLower(cmd)] = h
	r.mu.Unlock()
}

// RegisterCallback binds callback data starting with prefix. Re-registering a prefix replaces it.
func (r *Router) RegisterCallback(prefix string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.callbacks {
		if r.callbacks[i].prefix == prefix {
			r.callbacks[i].handler = h
			return
		}
	}

	r.callbacks = append(r.callbacks, callbackRoute{prefix: prefix, handler: h})
	sort.SliceStable(r.callbacks, func(i, j int) bool {
		return len(r.callbacks[i].prefix) > len(r.callbacks[j].prefix)
	})
}

// Use appends a middleware; the first one registered is the outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	r.chain = append(r.chain, mw)
	r.mu.Unlock()
}

// SetDefault sets the handler for text that is not a known command.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	r.fallback = h
	r.mu.Unlock()
}

// Route runs the handler matching the update, if any.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	h, chain := r.resolve(c)
	if h == nil {
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h(c)
}

// resolve picks the handler under the read lock and returns it with a copy of the chain.
func (r *Router) resolve(c telebot.Context) (handlers.Handler, []handlers.Middleware) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := append([]handlers.Middleware(nil), r.chain...)

	if cb := c.Callback(); cb != nil {
		for _, route := range r.callbacks {
			if strings.HasPrefix(cb.Data, route.prefix) {
				return handlers.Handler(route.handler), chain
			}
		}
		r.log.Info("no callback handler found", slog.String("data", cb.Data))
		return nil, nil
	}

	if command, _ := handlers.ParseCommand(c.Text()); command != "" {
		if h, ok := r.commands[command]; ok {
			return h, chain
		}
	}

	return r.fallback, chain
}
