// Package conversation implements the /configure dialog that edits a
// subscriber's alert window.
//
//	Idle --/configure--> SelectingOption
//	SelectingOption --cancel--> Idle
//	SelectingOption --option--> AwaitingTime
//	SelectingOption --other text--> SelectingOption (re-prompt)
//	AwaitingTime --cancel--> Idle
//	AwaitingTime --HH:MM--> Idle (preference saved)
//	AwaitingTime --other text--> AwaitingTime (re-prompt)
//	any --unhandled--> Fallback --> Idle
package conversation

import (
	"context"
	"errors"
	"sync"

	"weatherbot/internal/storage"
	"weatherbot/pkg/logx"
)

type State int

const (
	Idle State = iota
	SelectingOption
	AwaitingTime
	Fallback
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectingOption:
		return "selecting_option"
	case AwaitingTime:
		return "awaiting_time"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Reply is what the bot should send back. The transport decides how to
// render the keyboard.
type Reply struct {
	Text           string
	HTML           bool
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Event is one inbound message from a user.
type Event struct {
	UserID string
	// Text is empty for non-text messages (stickers, photos, ...).
	Text string
}

// PreferenceStore is the slice of storage the conversation needs.
type PreferenceStore interface {
	GetPreference(ctx context.Context, subscriberID string) (storage.Preference, error)
	SavePreference(ctx context.Context, p storage.Preference) error
}

type session struct {
	state State
	field storage.PreferenceField
}

// Machine keeps one session per user. Calls for the same user must be
// serialized by the caller; the session map itself is safe for concurrent use.
type Machine struct {
	store PreferenceStore
	log   logx.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(store PreferenceStore, log logx.Logger) *Machine {
	return &Machine{
		store:    store,
		log:      log.With(logx.String("comp", "conversation")),
		sessions: map[string]*session{},
	}
}

// State returns the user's current state; Idle when there is no session.
func (m *Machine) State(userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.state
	}
	return Idle
}

// Active reports whether the user is mid-conversation. While active, every
// message from the user belongs to the conversation, commands included.
func (m *Machine) Active(userID string) bool { return m.State(userID) != Idle }

// Begin enters SelectingOption, replacing any previous session.
func (m *Machine) Begin(userID string) Reply {
	m.set(userID, &session{state: SelectingOption})
	return Reply{Text: textSelectOption, Keyboard: optionKeyboard()}
}

// Handle advances the user's conversation. It returns ok=false when the user
// is Idle and the event is not part of a conversation.
func (m *Machine) Handle(ctx context.Context, ev Event) (Reply, bool) {
	m.mu.Lock()
	s, ok := m.sessions[ev.UserID]
	var cur session
	if ok {
		cur = *s
	}
	m.mu.Unlock()
	if !ok || cur.state == Idle {
		return Reply{}, false
	}

	if ev.Text == "" {
		return m.fallback(ev.UserID, "non-text message"), true
	}
	if ev.Text == CancelToken {
		return m.end(ev.UserID, Reply{Text: textCancelled}), true
	}

	switch cur.state {
	case SelectingOption:
		field, ok := optionFields[ev.Text]
		if !ok {
			return Reply{Text: textInvalidOption}, true
		}
		m.set(ev.UserID, &session{state: AwaitingTime, field: field})
		return Reply{Text: instruction(field), HTML: true, Keyboard: [][]string{{CancelToken}}}, true

	case AwaitingTime:
		t, err := storage.ParseTimeOfDay(ev.Text)
		if err != nil {
			return Reply{Text: textInvalidTime}, true
		}
		return m.saveTime(ctx, ev.UserID, cur.field, t), true

	default:
		return m.fallback(ev.UserID, "unexpected state "+cur.state.String()), true
	}
}

func (m *Machine) saveTime(ctx context.Context, userID string, field storage.PreferenceField, t storage.TimeOfDay) Reply {
	pref, err := m.store.GetPreference(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("load preference failed", logx.String("user", userID), logx.Err(err))
		}
		return m.fallback(userID, "preference unavailable")
	}
	if err := m.store.SavePreference(ctx, pref.Set(field, t)); err != nil {
		m.log.Warn("save preference failed", logx.String("user", userID), logx.Err(err))
		return m.fallback(userID, "preference not saved")
	}
	m.log.Info("preference updated", logx.String("user", userID), logx.String("field", optionLabel(field)), logx.String("value", t.String()))
	return m.end(userID, Reply{Text: updated(optionLabel(field), t.String()), HTML: true})
}

// fallback passes through the Fallback state and lands in Idle.
func (m *Machine) fallback(userID, reason string) Reply {
	m.set(userID, &session{state: Fallback})
	m.log.Debug("conversation fallback", logx.String("user", userID), logx.String("reason", reason))
	return m.end(userID, Reply{Text: textFallback})
}

// end clears the session; every path into Idle goes through here.
func (m *Machine) end(userID string, r Reply) Reply {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	r.Keyboard = nil
	r.RemoveKeyboard = true
	return r
}

func (m *Machine) set(userID string, s *session) {
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
}

func optionLabel(f storage.PreferenceField) string {
	for label, field := range optionFields {
		if field == f {
			return label
		}
	}
	return ""
}
