package notifier

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// CommandFunc handles one slash command; args is the text after the
// command word. An empty return suppresses the reply.
type CommandFunc func(args string) string

// CommandMux routes incoming chat commands to handlers.
type CommandMux struct {
	handlers map[string]CommandFunc
	fallback CommandFunc
}

func NewCommandMux() *CommandMux {
	return &CommandMux{handlers: make(map[string]CommandFunc)}
}

// Handle registers a handler for a command word such as "/status".
func (m *CommandMux) Handle(command string, fn CommandFunc) {
	m.handlers[command] = fn
}

// Fallback registers the handler for unrecognized input.
func (m *CommandMux) Fallback(fn CommandFunc) {
	m.fallback = fn
}

// Dispatch routes one message text and returns the reply.
func (m *CommandMux) Dispatch(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	command, args, _ := strings.Cut(text, " ")
	if fn, ok := m.handlers[command]; ok {
		return fn(strings.TrimSpace(args))
	}
	if m.fallback != nil {
		return m.fallback(text)
	}
	return ""
}

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling long-polls the Bot API for operator commands and
// dispatches them through the mux. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, mux *CommandMux) {
	offset := 0
	for ctx.Err() == nil {
		updates, next, err := t.fetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] poll updates: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			text := strings.TrimSpace(u.Message.Text)
			log.Printf("[INFO] received command: %s", text)
			if reply := mux.Dispatch(text); reply != "" {
				if err := t.Send(reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

// fetchUpdates runs one getUpdates long poll and returns the updates
// with the next offset to acknowledge them.
func (t *TelegramNotifier) fetchUpdates(ctx context.Context, offset int) ([]update, int, error) {
	var envelope struct {
		OK     bool     `json:"ok"`
		Result []update `json:"result"`
	}
	payload := map[string]int{"offset": offset, "timeout": 30}
	if err := t.call(ctx, "getUpdates", payload, &envelope); err != nil {
		return nil, offset, err
	}
	if !envelope.OK {
		return nil, offset, errors.New("getUpdates returned ok=false")
	}
	next := offset
	for _, u := range envelope.Result {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return envelope.Result, next, nil
}
