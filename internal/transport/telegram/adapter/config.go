package adapter

import "time"

type Config struct {
	Token       string
	PollTimeout time.Duration
	// SendRatePerSec caps outbound messages; Telegram rejects bursts above ~30/s.
	SendRatePerSec int
	// DropPending discards updates queued while the bot was offline.
	DropPending bool
	// Offline skips the getMe handshake (tests only).
	Offline bool
}
