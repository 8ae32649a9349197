package storage

import (
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrNotFound = errors.New("not found")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": database file at Path
//   - "postgres": DSN (postgres://...)
type Config struct {
	Driver       string
	Path         string
	DSN          string
	BusyTimeout  time.Duration // sqlite only; 0 means default
	MaxOpenConns int           // postgres only; 0 means default
}

// Subscriber is an end user tracked by the bot.
type Subscriber struct {
	UserID    string
	ChatID    string
	Username  string
	FirstName string
	LastName  string
	Active    bool
	UpdatedAt time.Time
}

// Profile is the identity carried by every inbound chat event.
type Profile struct {
	UserID    string
	ChatID    string
	Username  string
	FirstName string
	LastName  string
}

// Preference is a subscriber's daily alert window.
type Preference struct {
	SubscriberID string
	AlertStart   TimeOfDay
	AlertEnd     TimeOfDay
}

// PreferenceField selects which end of the window an update touches.
type PreferenceField int

const (
	AlertStart PreferenceField = iota + 1
	AlertEnd
)

// EligibleSubscriber is one row of the dispatch selection: an active
// subscriber joined with its preference window.
type EligibleSubscriber struct {
	UserID     string
	ChatID     string
	AlertStart TimeOfDay
	AlertEnd   TimeOfDay
}

var (
	DefaultAlertStart = TimeOfDay{Hour: 7}
	DefaultAlertEnd   = TimeOfDay{Hour: 22}
)
