package chat

import "github.com/apex/log"

// Severity grades a user-visible notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notifier surfaces messages to the user. Calls are fire-and-forget.
type Notifier interface {
	Notify(title, description string, severity Severity)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, description string, severity Severity)

func (f NotifierFunc) Notify(title, description string, severity Severity) {
	f(title, description, severity)
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger log.Interface
}

func (n LogNotifier) Notify(title, description string, severity Severity) {
	logger := n.Logger
	if logger == nil {
		logger = log.Log
	}
	entry := logger.WithFields(log.Fields{
		"title":    title,
		"severity": severity.String(),
	})
	switch severity {
	case SeverityError:
		entry.Error(description)
	case SeverityWarning:
		entry.Warn(description)
	default:
		entry.Info(description)
	}
}
