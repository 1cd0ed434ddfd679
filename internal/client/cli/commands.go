package cli

import (
	"context"
	"fmt"
	"time"

	"pollchat/internal/client/models"
)

// ActiveKey returns the active conversation key for the prompt.
func (a *App) ActiveKey() string {
	return a.service.Active()
}

// Tabs prints every conversation with its unread counter.
func (a *App) Tabs(ctx context.Context) error {
	active := a.service.Active()
	for _, key := range a.service.Conversations() {
		marker := " "
		if key == active {
			marker = "*"
		}
		if n := a.service.UnreadCount(key); n > 0 {
			printlnFn(fmt.Sprintf("%s %s (%d unread)", marker, key, n))
		} else {
			printlnFn(fmt.Sprintf("%s %s", marker, key))
		}
	}
	return nil
}

// Open switches the active conversation, clears its unread counter and shows
// its history.
func (a *App) Open(ctx context.Context, key string) error {
	a.service.Activate(key)
	// A direct conversation only gets polled while it is active.
	a.loop.Trigger()
	return a.Show(ctx)
}

// Send posts text to the active conversation.
func (a *App) Send(ctx context.Context, text string) error {
	m, err := a.service.Send(ctx, a.service.Active(), text, "")
	if err != nil {
		return err
	}
	printlnFn("sent", m.ID)
	return nil
}

// Reply posts a threaded reply to a message in the active conversation.
func (a *App) Reply(ctx context.Context, id, text string) error {
	m, err := a.service.Send(ctx, a.service.Active(), text, id)
	if err != nil {
		return err
	}
	printlnFn("sent", m.ID)
	return nil
}

// Del removes a message from the active conversation.
func (a *App) Del(ctx context.Context, id string) error {
	return a.service.Delete(ctx, a.service.Active(), id)
}

// Show prints the history of the active conversation.
func (a *App) Show(ctx context.Context) error {
	key := a.service.Active()
	msgs := a.service.Messages(key)
	if len(msgs) == 0 {
		printlnFn("(no messages)")
		return nil
	}
	for _, m := range msgs {
		printlnFn(formatMessage(m))
	}
	return nil
}

// Sync forces an immediate poll cycle instead of waiting for the next tick.
func (a *App) Sync(ctx context.Context) error {
	a.loop.Trigger()
	return nil
}

func formatMessage(m models.Message) string {
	ts := time.UnixMilli(m.Timestamp).Format("15:04:05")
	body := m.Text
	if m.FileURL != "" {
		body = fmt.Sprintf("[file] %s (%s)", m.FileName, m.FileURL)
	}
	line := fmt.Sprintf("%s %s <%s> %s", ts, m.ID, m.From, body)
	if m.Provisional() {
		line += " (sending)"
	}
	if m.ReplyTo != "" {
		line += fmt.Sprintf(" [re: %s]", m.ReplyTo)
	}
	return line
}
