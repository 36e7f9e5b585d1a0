// Package notify delivers phase-completion signals to the desktop.
package notify

import (
	"github.com/gen2brain/beeep"

	"pomoclock/internal/pomodoro"
)

// Notifier is a pomodoro.Signaler backed by beeep. Disabled channels are
// silent no-ops.
type Notifier struct {
	notifications bool
	sound         bool

	notify func(title, message string) error
	beep   func() error
}

var _ pomodoro.Signaler = (*Notifier)(nil)

func New(notifications, sound bool) *Notifier {
	beeep.AppName = "pomoclock"
	return &Notifier{
		notifications: notifications,
		sound:         sound,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

func (n *Notifier) PlayCompletionSound() error {
	if !n.sound {
		return nil
	}
	return n.beep()
}

// RequestNotificationPermission is a no-op: desktop notification daemons do
// not gate senders.
func (n *Notifier) RequestNotificationPermission() error {
	return nil
}

func (n *Notifier) ShowNotification(title, body string) error {
	if !n.notifications {
		return nil
	}
	return n.notify(title, body)
}
