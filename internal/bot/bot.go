// Package bot binds the chat commands and the /configure conversation to
// storage, and tracks every sender as a subscriber.
package bot

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"weatherbot/internal/conversation"
	"weatherbot/internal/storage"
	kit "weatherbot/internal/transport"
	"weatherbot/internal/transport/telegram/router"
	"weatherbot/pkg/logx"
)

// defaultRetentionDays is how long an unsubscribed user is kept before the
// purge when no window is configured.
const defaultRetentionDays = 30

// SubscriberStore is the storage surface the handlers use.
type SubscriberStore interface {
	TrackSubscriber(ctx context.Context, p storage.Profile) error
	SetActive(ctx context.Context, userID string, active bool) (storage.Subscriber, bool, error)
}

// MenuPublisher pushes the command menu to the chat platform.
type MenuPublisher interface {
	PublishMenu(ctx context.Context) error
}

type Bot struct {
	store SubscriberStore
	convo *conversation.Machine
	menu  MenuPublisher
	log   logx.Logger
	now   func() time.Time

	retentionDays atomic.Int32
}

func New(store SubscriberStore, convo *conversation.Machine, menu MenuPublisher, log logx.Logger) *Bot {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Bot{
		store: store,
		convo: convo,
		menu:  menu,
		log:   log.With(logx.String("comp", "bot")),
		now:   time.Now,
	}
}

// Commands returns the router registry in menu order. Everything except
// configure also works in the middle of a configure dialog.
func (b *Bot) Commands(timeout time.Duration) []router.Command {
	return []router.Command{
		{Name: "start", Description: descStart, AnyState: true, Timeout: timeout, Handle: b.handleStart},
		{Name: "configure", Description: descConfigure, Timeout: timeout, Handle: b.handleConfigure},
		{Name: "subscribe", Description: descSubscribe, AnyState: true, Timeout: timeout, Handle: b.handleSubscribe},
		{Name: "unsubscribe", Description: descUnsubscribe, AnyState: true, Timeout: timeout, Handle: b.handleUnsubscribe},
	}
}

func (b *Bot) handleStart(ctx context.Context, req *router.Request) error {
	if b.menu != nil {
		if err := b.menu.PublishMenu(ctx); err != nil {
			req.Logger.Warn("publish menu failed", logx.Err(err))
		}
	}
	return reply(ctx, req, welcomeHTML, &kit.SendOptions{ParseMode: "HTML"})
}

func (b *Bot) handleSubscribe(ctx context.Context, req *router.Request) error {
	if err := b.ensureTracked(ctx, req.Message); err != nil {
		return err
	}
	_, changed, err := b.store.SetActive(ctx, userKey(req.FromID), true)
	switch {
	case errors.Is(err, storage.ErrNotFound), err == nil && !changed:
		return reply(ctx, req, textAlreadySubscribed, nil)
	case err != nil:
		return err
	}
	req.Logger.Info("subscriber reactivated")
	return reply(ctx, req, textResubscribed, nil)
}

func (b *Bot) handleUnsubscribe(ctx context.Context, req *router.Request) error {
	if err := b.ensureTracked(ctx, req.Message); err != nil {
		return err
	}
	sub, changed, err := b.store.SetActive(ctx, userKey(req.FromID), false)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !changed {
		return reply(ctx, req, alreadyUnsubscribedHTML(b.daysLeft(sub.UpdatedAt)), &kit.SendOptions{ParseMode: "HTML"})
	}
	req.Logger.Info("subscriber deactivated")
	return reply(ctx, req, unsubscribedHTML(b.retention()), &kit.SendOptions{ParseMode: "HTML"})
}

func (b *Bot) handleConfigure(ctx context.Context, req *router.Request) error {
	if err := b.ensureTracked(ctx, req.Message); err != nil {
		return err
	}
	return b.render(ctx, req, b.convo.Begin(userKey(req.FromID)))
}

// HandleText is the router's text handler: it feeds the conversation and
// ignores messages from users who are not in one.
func (b *Bot) HandleText(ctx context.Context, req *router.Request) error {
	r, ok := b.convo.Handle(ctx, conversation.Event{UserID: userKey(req.FromID), Text: req.Message.Text})
	if !ok {
		return nil
	}
	return b.render(ctx, req, r)
}

func (b *Bot) render(ctx context.Context, req *router.Request, r conversation.Reply) error {
	opt := &kit.SendOptions{Keyboard: r.Keyboard, RemoveKeyboard: r.RemoveKeyboard}
	if r.HTML {
		opt.ParseMode = "HTML"
	}
	return reply(ctx, req, r.Text, opt)
}

// daysLeft counts whole calendar days remaining before the purge, never
// below zero.
func (b *Bot) daysLeft(since time.Time) int {
	days := b.retention()
	if since.IsZero() {
		return days
	}
	now := b.now()
	y1, m1, d1 := since.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	elapsed := int(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	return max(0, days-elapsed)
}

// SetRetentionDays sets the purge window quoted to users; <=0 means 30.
// It follows jobs.purge_after_days, including live reloads.
func (b *Bot) SetRetentionDays(days int) { b.retentionDays.Store(int32(days)) }

func (b *Bot) retention() int {
	if d := int(b.retentionDays.Load()); d > 0 {
		return d
	}
	return defaultRetentionDays
}

// ensureTracked makes sure the sender has a row before a command touches it.
// The tracker lane does the same asynchronously for every message.
func (b *Bot) ensureTracked(ctx context.Context, m *kit.Message) error {
	if m == nil || m.IsBot {
		return nil
	}
	return b.store.TrackSubscriber(ctx, profileOf(*m))
}

func profileOf(m kit.Message) storage.Profile {
	return storage.Profile{
		UserID:    userKey(m.FromID),
		ChatID:    strconv.FormatInt(m.ChatID, 10),
		Username:  m.Username,
		FirstName: m.First,
		LastName:  m.Last,
	}
}

func userKey(id int64) string { return strconv.FormatInt(id, 10) }

func reply(ctx context.Context, req *router.Request, text string, opt *kit.SendOptions) error {
	if req.Adapter == nil {
		return errors.New("no adapter")
	}
	_, err := req.Adapter.SendText(ctx, req.Chat, text, opt)
	return err
}
