package commsutil

import (
	"strings"
)

// Default COMMS subjects.
const (
	SubjectRequest     = "socket.request"
	SubjectEventPrefix = "socket.event"
	SubjectIntake      = "intent.dispatch"
	SubjectState       = "intent.state"
	SubjectNotify      = "intent.notify"
)

// BuildEventSubject builds the subject a remote event is published on.
// Slashes become tokens and whitespace or wildcards are replaced.
func BuildEventSubject(prefix, event string) string {
	return prefix + "." + subjectToken(event)
}

// BuildNotifySubject builds the granular subject for a notification type.
func BuildNotifySubject(prefix, notificationType string) string {
	return prefix + "." + subjectToken(notificationType)
}

func subjectToken(s string) string {
	s = strings.Trim(s, "/.")
	s = strings.ReplaceAll(s, "/", ".")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n', '*', '>':
			return '_'
		}
		return r
	}, s)
}
