// Package systemd speaks the sd_notify protocol. Every call is a no-op when
// the process was not started by systemd (NOTIFY_SOCKET unset).
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

func notify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}

func Ready() error { return notify(daemon.SdNotifyReady) }

func Stopping() error { return notify(daemon.SdNotifyStopping) }

func Status(msg string) error { return notify("STATUS=" + msg) }

// Failed reports a fatal status and errno before the process exits.
func Failed(msg string, errno int) error {
	return notify(fmt.Sprintf("STATUS=%s\nERRNO=%d", msg, errno))
}

// Watchdog pings WATCHDOG=1 at half the unit's WatchdogSec until ctx is done.
// It returns immediately when the watchdog is not enabled.
func Watchdog(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return err
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := notify(daemon.SdNotifyWatchdog); err != nil {
				return err
			}
		}
	}
}
