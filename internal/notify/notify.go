package notify

import (
	"context"
	"fmt"
	"strconv"

	"safeher/internal/domain"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Channel delivers a text message to a single recipient.
// Implementations must be safe for concurrent use.
type Channel interface {
	Name() string
	// Configured reports whether the channel has everything it needs to send.
	Configured() bool
	Send(ctx context.Context, recipient, body string) error
}

// Config is resolved once at startup and injected into the dispatcher.
type Config struct {
	Recipients []string
	SMS        TwilioChannelConfig
	WhatsApp   TwilioChannelConfig
}

type TwilioChannelConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	APIURL     string
}

func (c TwilioChannelConfig) complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// Report summarizes one dispatch. It exists for logs and tests only.
type Report struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
}

func (r Report) add(o Report) Report {
	return Report{
		Attempted: r.Attempted + o.Attempted,
		Succeeded: r.Succeeded + o.Succeeded,
		Failed:    r.Failed + o.Failed,
		Skipped:   r.Skipped + o.Skipped,
	}
}

// NotificationAttempt is logged once per (channel, recipient) send.
type NotificationAttempt struct {
	Channel   string
	Recipient string
	AlertID   string
	Err       error
}

func ComposeMessage(task domain.DispatchTask) string {
	return fmt.Sprintf("SOS ALERT: %s needs help at https://www.google.com/maps/search/?api=1&query=%s,%s",
		task.UserID,
		strconv.FormatFloat(task.Lat, 'f', -1, 64),
		strconv.FormatFloat(task.Lng, 'f', -1, 64),
	)
}
