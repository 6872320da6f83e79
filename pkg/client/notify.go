package client

import "go.uber.org/zap"

// Notifier shows short user-facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type logNotifier struct {
	log *zap.Logger
}

// LogNotifier sends notifications to a logger.
func LogNotifier(log *zap.Logger) Notifier {
	return logNotifier{log: log}
}

func (n logNotifier) Success(msg string) { n.log.Info(msg) }
func (n logNotifier) Error(msg string)   { n.log.Warn(msg) }
