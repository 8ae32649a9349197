package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetPreference returns ErrNotFound when the subscriber has no preference row.
func (s *Store) GetPreference(ctx context.Context, subscriberID string) (Preference, error) {
	var start, end string
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT alert_start, alert_end FROM preference WHERE subscriber_id = ?`), subscriberID,
	).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return Preference{}, ErrNotFound
	}
	if err != nil {
		return Preference{}, fmt.Errorf("get preference: %w", err)
	}
	return Preference{
		SubscriberID: subscriberID,
		AlertStart:   parseStoredTime(start, DefaultAlertStart),
		AlertEnd:     parseStoredTime(end, DefaultAlertEnd),
	}, nil
}

// SavePreference persists both ends of the window. The row must exist.
func (s *Store) SavePreference(ctx context.Context, p Preference) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE preference SET alert_start = ?, alert_end = ? WHERE subscriber_id = ?`),
		p.AlertStart.String(), p.AlertEnd.String(), p.SubscriberID,
	)
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Set returns a copy of p with field overwritten.
func (p Preference) Set(field PreferenceField, t TimeOfDay) Preference {
	switch field {
	case AlertStart:
		p.AlertStart = t
	case AlertEnd:
		p.AlertEnd = t
	}
	return p
}
