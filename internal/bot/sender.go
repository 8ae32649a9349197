package bot

import (
	"context"
	"fmt"
	"strconv"

	kit "weatherbot/internal/transport"
)

// AlertSender delivers dispatch alerts through the chat adapter.
type AlertSender struct {
	Adapter kit.Adapter
}

func (s AlertSender) SendHTML(ctx context.Context, chatID string, html string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("chat id %q: %w", chatID, err)
	}
	_, err = s.Adapter.SendText(ctx, kit.ChatTarget{ChatID: id}, html, &kit.SendOptions{ParseMode: "HTML", DisablePreview: true})
	return err
}
