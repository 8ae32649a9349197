package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TrackSubscriber upserts the subscriber keyed by user id and creates a
// default preference when none exists, in one transaction. Profile-only
// changes do not touch active or updated_at.
func (s *Store) TrackSubscriber(ctx context.Context, p Profile) error {
	if p.UserID == "" {
		return errors.New("track subscriber: empty user id")
	}
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO subscriber(user_id, chat_id, username, first_name, last_name, active, updated_at)
			 VALUES(?,?,?,?,?,?,?)
			 ON CONFLICT(user_id) DO UPDATE SET
			   chat_id=excluded.chat_id,
			   username=excluded.username,
			   first_name=excluded.first_name,
			   last_name=excluded.last_name`),
			p.UserID, p.ChatID, nullStr(p.Username), nullStr(p.FirstName), nullStr(p.LastName), true, s.now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert subscriber: %w", err)
		}
		_, err = tx.ExecContext(ctx, s.q(
			`INSERT INTO preference(subscriber_id, alert_start, alert_end) VALUES(?,?,?)
			 ON CONFLICT(subscriber_id) DO NOTHING`),
			p.UserID, DefaultAlertStart.String(), DefaultAlertEnd.String(),
		)
		if err != nil {
			return fmt.Errorf("create default preference: %w", err)
		}
		return nil
	})
}

// GetSubscriber returns ErrNotFound for unknown users.
func (s *Store) GetSubscriber(ctx context.Context, userID string) (Subscriber, error) {
	return s.getSubscriber(ctx, s.db, userID)
}

func (s *Store) getSubscriber(ctx context.Context, qr querier, userID string) (Subscriber, error) {
	var (
		sub               Subscriber
		user, first, last sql.NullString
		updatedAt         int64
	)
	err := qr.QueryRowContext(ctx, s.q(
		`SELECT user_id, chat_id, username, first_name, last_name, active, updated_at
		 FROM subscriber WHERE user_id = ?`), userID,
	).Scan(&sub.UserID, &sub.ChatID, &user, &first, &last, &sub.Active, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("get subscriber: %w", err)
	}
	sub.Username, sub.FirstName, sub.LastName = user.String, first.String, last.String
	sub.UpdatedAt = time.Unix(updatedAt, 0)
	return sub, nil
}

// SetActive flips the subscription status. It only writes (and bumps
// updated_at) when the status actually changes, so repeating an unsubscribe
// keeps the original deactivation time. It returns the subscriber as stored
// after the call and whether a flip happened.
func (s *Store) SetActive(ctx context.Context, userID string, active bool) (Subscriber, bool, error) {
	var (
		sub     Subscriber
		changed bool
	)
	err := s.RunInTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.getSubscriber(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cur.Active == active {
			sub = cur
			return nil
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, s.q(
			`UPDATE subscriber SET active = ?, updated_at = ? WHERE user_id = ? AND active = ?`),
			active, now.Unix(), userID, !active,
		)
		if err != nil {
			return fmt.Errorf("set active: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		changed = n > 0
		sub = cur
		if changed {
			sub.Active = active
			sub.UpdatedAt = time.Unix(now.Unix(), 0)
		}
		return nil
	})
	if err != nil {
		return Subscriber{}, false, err
	}
	return sub, changed, nil
}

// ListEligibleSubscribers returns every active subscriber joined with its
// preference window. Window filtering is left to the caller.
func (s *Store) ListEligibleSubscribers(ctx context.Context) ([]EligibleSubscriber, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT s.user_id, s.chat_id, p.alert_start, p.alert_end
		 FROM subscriber s
		 JOIN preference p ON p.subscriber_id = s.user_id
		 WHERE s.active = ?`), true)
	if err != nil {
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	defer rows.Close()

	var out []EligibleSubscriber
	for rows.Next() {
		var (
			e          EligibleSubscriber
			start, end string
		)
		if err := rows.Scan(&e.UserID, &e.ChatID, &start, &end); err != nil {
			return nil, fmt.Errorf("list eligible: %w", err)
		}
		e.AlertStart = parseStoredTime(start, DefaultAlertStart)
		e.AlertEnd = parseStoredTime(end, DefaultAlertEnd)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PurgeInactive deletes subscribers that have been inactive since before
// cutoff. Their preferences go with them through the foreign key cascade.
func (s *Store) PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.RunInTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(
			`DELETE FROM subscriber WHERE active = ? AND updated_at <= ?`), false, cutoff.Unix())
		if err != nil {
			return fmt.Errorf("purge inactive: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func parseStoredTime(v string, def TimeOfDay) TimeOfDay {
	t, err := ParseTimeOfDay(v)
	if err != nil {
		return def
	}
	return t
}
