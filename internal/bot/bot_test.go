package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"weatherbot/internal/conversation"
	"weatherbot/internal/eventbus"
	"weatherbot/internal/storage"
	kit "weatherbot/internal/transport"
	"weatherbot/internal/transport/telegram/router"
	"weatherbot/pkg/logx"
)

type sent struct {
	chat int64
	text string
	opt  kit.SendOptions
}

type fakeAdapter struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }
func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var o kit.SendOptions
	if opt != nil {
		o = *opt
	}
	f.sent = append(f.sent, sent{chat: to.ChatID, text: text, opt: o})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

// fakeStore keeps subscribers and preferences in memory.
type fakeStore struct {
	mu      sync.Mutex
	now     time.Time
	subs    map[string]storage.Subscriber
	prefs   map[string]storage.Preference
	tracked int
}

func newFakeStore(now time.Time) *fakeStore {
	return &fakeStore{now: now, subs: map[string]storage.Subscriber{}, prefs: map[string]storage.Preference{}}
}

func (f *fakeStore) TrackSubscriber(_ context.Context, p storage.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked++
	s, ok := f.subs[p.UserID]
	if !ok {
		s = storage.Subscriber{UserID: p.UserID, Active: true, UpdatedAt: f.now}
		f.prefs[p.UserID] = storage.Preference{SubscriberID: p.UserID, AlertStart: storage.DefaultAlertStart, AlertEnd: storage.DefaultAlertEnd}
	}
	s.ChatID, s.Username = p.ChatID, p.Username
	f.subs[p.UserID] = s
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, userID string, active bool) (storage.Subscriber, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[userID]
	if !ok {
		return storage.Subscriber{}, false, storage.ErrNotFound
	}
	if s.Active == active {
		return s, false, nil
	}
	s.Active, s.UpdatedAt = active, f.now
	f.subs[userID] = s
	return s, true, nil
}

func (f *fakeStore) GetPreference(_ context.Context, id string) (storage.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[id]
	if !ok {
		return storage.Preference{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SavePreference(_ context.Context, p storage.Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[p.SubscriberID] = p
	return nil
}

type fakeMenu struct{ calls int }

func (f *fakeMenu) PublishMenu(context.Context) error { f.calls++; return nil }

var fixedNow = time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)

func newTestBot() (*Bot, *fakeStore, *fakeAdapter, *fakeMenu) {
	store := newFakeStore(fixedNow)
	menu := &fakeMenu{}
	b := New(store, conversation.New(store, logx.Nop()), menu, logx.Nop())
	b.now = func() time.Time { return fixedNow }
	return b, store, &fakeAdapter{}, menu
}

func request(ad kit.Adapter, from int64, text string) *router.Request {
	m := &kit.Message{FromID: from, ChatID: from, Text: text}
	return &router.Request{Message: m, Chat: kit.ChatTarget{ChatID: from}, FromID: from, Adapter: ad, Logger: logx.Nop()}
}

func TestStartPublishesMenuAndWelcomes(t *testing.T) {
	t.Parallel()

	b, _, ad, menu := newTestBot()
	if err := b.handleStart(context.Background(), request(ad, 1, "/start")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if menu.calls != 1 {
		t.Fatalf("menu published %d times, want 1", menu.calls)
	}
	got := ad.last(t)
	if got.opt.ParseMode != "HTML" || !strings.Contains(got.text, "/configure") {
		t.Fatalf("welcome = %+v", got)
	}
}

func TestSubscribeLifecycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retention int
		wantDays  string
		wantLeft  int
	}{
		{"default retention", 0, "<strong>30</strong>", 20},
		{"configured retention", 7, "<strong>7</strong>", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, store, ad, _ := newTestBot()
			b.SetRetentionDays(tt.retention)
			ctx := context.Background()

			if err := b.handleSubscribe(ctx, request(ad, 5, "/subscribe")); err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			if got := ad.last(t).text; got != textAlreadySubscribed {
				t.Fatalf("first subscribe reply = %q", got)
			}

			if err := b.handleUnsubscribe(ctx, request(ad, 5, "/unsubscribe")); err != nil {
				t.Fatalf("unsubscribe: %v", err)
			}
			got := ad.last(t).text
			if got != unsubscribedHTML(b.retention()) || !strings.Contains(got, tt.wantDays) {
				t.Fatalf("unsubscribe reply = %q, want it to quote %s", got, tt.wantDays)
			}
			if store.subs["5"].Active {
				t.Fatalf("subscriber still active")
			}

			// Ten days later the reminder quotes the remaining window.
			b.now = func() time.Time { return fixedNow.AddDate(0, 0, 10) }
			if err := b.handleUnsubscribe(ctx, request(ad, 5, "/unsubscribe")); err != nil {
				t.Fatalf("second unsubscribe: %v", err)
			}
			if got := ad.last(t).text; got != alreadyUnsubscribedHTML(tt.wantLeft) {
				t.Fatalf("second unsubscribe reply = %q", got)
			}

			if err := b.handleSubscribe(ctx, request(ad, 5, "/subscribe")); err != nil {
				t.Fatalf("resubscribe: %v", err)
			}
			if got := ad.last(t).text; got != textResubscribed {
				t.Fatalf("resubscribe reply = %q", got)
			}
			if !store.subs["5"].Active {
				t.Fatalf("subscriber not reactivated")
			}
		})
	}
}

func TestCommandsMenuOrder(t *testing.T) {
	t.Parallel()

	b, _, _, _ := newTestBot()
	var names []string
	for _, c := range b.Commands(time.Second) {
		names = append(names, c.Name)
		if c.AnyState == (c.Name == "configure") {
			t.Fatalf("%s AnyState = %v", c.Name, c.AnyState)
		}
	}
	if got := strings.Join(names, ","); got != "start,configure,subscribe,unsubscribe" {
		t.Fatalf("order = %s", got)
	}
}

func TestDaysLeft(t *testing.T) {
	t.Parallel()

	b, _, _, _ := newTestBot()
	tests := []struct {
		name  string
		since time.Time
		want  int
	}{
		{"today", fixedNow, 30},
		{"late yesterday", time.Date(2025, 3, 19, 23, 59, 0, 0, time.UTC), 29},
		{"past the window", fixedNow.AddDate(0, 0, -45), 0},
		{"unknown", time.Time{}, 30},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := b.daysLeft(tt.since); got != tt.want {
				t.Fatalf("daysLeft = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigureConversation(t *testing.T) {
	t.Parallel()

	b, store, ad, _ := newTestBot()
	ctx := context.Background()

	if err := b.handleConfigure(ctx, request(ad, 8, "/configure")); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if kb := ad.last(t).opt.Keyboard; len(kb) != 3 {
		t.Fatalf("option keyboard = %v", kb)
	}

	steps := []string{conversation.OptionAlertEnd, "21:30"}
	for _, s := range steps {
		if err := b.HandleText(ctx, request(ad, 8, s)); err != nil {
			t.Fatalf("text %q: %v", s, err)
		}
	}
	last := ad.last(t)
	if !last.opt.RemoveKeyboard || last.opt.ParseMode != "HTML" {
		t.Fatalf("final reply options = %+v", last.opt)
	}
	if got := store.prefs["8"].AlertEnd; got != (storage.TimeOfDay{Hour: 21, Minute: 30}) {
		t.Fatalf("alert end = %v", got)
	}

	// Idle users get no reply to plain text.
	before := len(ad.sent)
	if err := b.HandleText(ctx, request(ad, 8, "hi")); err != nil {
		t.Fatalf("idle text: %v", err)
	}
	if len(ad.sent) != before {
		t.Fatalf("idle text produced a reply")
	}
}

func TestTrackerSkipsBots(t *testing.T) {
	t.Parallel()

	store := newFakeStore(fixedNow)
	bus := eventbus.New()
	tr := NewTracker(store, bus, logx.Nop())
	tr.track(context.Background(), kit.Message{FromID: 3, ChatID: 3, IsBot: true})
	tr.track(context.Background(), kit.Message{FromID: 4, ChatID: 4, Username: "u"})

	if _, ok := store.subs["3"]; ok {
		t.Fatalf("bot sender tracked")
	}
	if s := store.subs["4"]; s.ChatID != "4" || s.Username != "u" {
		t.Fatalf("tracked subscriber = %+v", s)
	}
}

func TestAlertSender(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := AlertSender{Adapter: ad}
	if err := s.SendHTML(context.Background(), "123", "<b>rain</b>"); err != nil {
		t.Fatalf("SendHTML: %v", err)
	}
	if got := ad.last(t); got.chat != 123 || got.opt.ParseMode != "HTML" {
		t.Fatalf("sent = %+v", got)
	}
	if err := s.SendHTML(context.Background(), "abc", "x"); err == nil {
		t.Fatalf("bad chat id accepted")
	}
}
