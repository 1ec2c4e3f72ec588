package mailer

import (
	"fmt"
	"time"
)

// Job kinds on the security-email queue.
const (
	JobPasswordChanged = "password_changed"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for the notifier
// worker. Kind selects the rendered message; At is when the triggering
// event happened.
type EmailJob struct {
	To       string    `json:"to"`
	Kind     string    `json:"kind"`
	Username string    `json:"username,omitempty"`
	At       time.Time `json:"at,omitempty"`
}

// Render produces the subject and plain-text body for a job.
func (j EmailJob) Render() (subject, text string, err error) {
	switch j.Kind {
	case JobPasswordChanged:
		return "Your password was changed",
			fmt.Sprintf("Hi %s,\n\nYour account password was changed at %s. If this wasn't you, reset your password immediately.\n",
				j.Username, j.At.UTC().Format("02 January 2006, 15:04 MST")),
			nil
	default:
		return "", "", fmt.Errorf("unknown email job kind %q", j.Kind)
	}
}
