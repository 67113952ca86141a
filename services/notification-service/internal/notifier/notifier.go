package notifier

import "log"

// Notifier abstracts the delivery channel (email/Slack/pager later).
type Notifier interface {
	Notify(subject, message string) error
}

// ConsoleNotifier logs to stdout. Good enough until an ops channel exists.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	log.Printf("[notify] %s :: %s\n", subject, message)
	return nil
}
