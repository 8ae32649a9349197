package transport

import (
	"context"
	"time"
)

// Update is one inbound chat event. Only messages are consumed.
type Update struct {
	ID      int
	Message *Message
}

type Message struct {
	ID       int
	ChatID   int64
	FromID   int64
	Username string
	First    string
	Last     string
	IsBot    bool
	// Text is empty for non-text messages (stickers, photos, ...).
	Text    string
	IsGroup bool
	Time    time.Time
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	// Keyboard renders a reply keyboard, one slice per row.
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Adapter is the chat transport.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is implemented by adapters that can publish a command
// menu (Telegram setMyCommands).
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}
