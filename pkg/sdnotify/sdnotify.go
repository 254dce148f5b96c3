// Package sdnotify sends service readiness to systemd when running under it.
// Outside systemd (no NOTIFY_SOCKET) every call is a no-op.
package sdnotify

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
)

func Ready() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

func Stopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

func Reloading() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReloading)
}

// Status updates the free-form status line shown by systemctl status.
func Status(format string, args ...any) {
	_, _ = daemon.SdNotify(false, "STATUS="+fmt.Sprintf(format, args...))
}
