package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"safeher/pkg/e"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTwilioURL = "https://api.twilio.com"
	messagesPath     = "/2010-04-01/Accounts/{sid}/Messages.json"
	twilioTimeout    = 15 * time.Second
	whatsAppPrefix   = "whatsapp:"
)

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// TwilioClient posts messages to the Twilio Messages API.
type TwilioClient struct {
	httpClient *resty.Client
	accountSID string
}

func NewTwilioClient(cfg TwilioChannelConfig) *TwilioClient {
	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = defaultTwilioURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(twilioTimeout).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")

	return &TwilioClient{
		httpClient: client,
		accountSID: cfg.AccountSID,
	}
}

// SendMessage returns the Twilio message sid on success.
func (c *TwilioClient) SendMessage(ctx context.Context, from, to, body string) (string, error) {
	var (
		msg    twilioMessage
		apiErr twilioError
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", c.accountSID).
		SetFormData(map[string]string{
			"From": from,
			"To":   to,
			"Body": body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		Post(messagesPath)
	if err != nil {
		return "", fmt.Errorf("%w: twilio request: %w", e.ErrNotification, err)
	}

	if resp.IsError() {
		if apiErr.Message != "" {
			return "", fmt.Errorf("%w: twilio %d (code %d): %s", e.ErrNotification, resp.StatusCode(), apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("%w: twilio returned status %d", e.ErrNotification, resp.StatusCode())
	}

	return msg.SID, nil
}

type smsChannel struct {
	cfg    TwilioChannelConfig
	client *TwilioClient
}

// NewSMSChannel sends plain SMS from cfg.From.
func NewSMSChannel(cfg TwilioChannelConfig) Channel {
	return &smsChannel{cfg: cfg, client: NewTwilioClient(cfg)}
}

func (c *smsChannel) Name() string { return ChannelSMS }

func (c *smsChannel) Configured() bool { return c.cfg.complete() }

func (c *smsChannel) Send(ctx context.Context, recipient, body string) error {
	if !c.Configured() {
		return fmt.Errorf("%s: %w", ChannelSMS, e.ErrChannelDisabled)
	}
	_, err := c.client.SendMessage(ctx, c.cfg.From, recipient, body)
	return err
}

type whatsAppChannel struct {
	cfg    TwilioChannelConfig
	client *TwilioClient
}

// NewWhatsAppChannel sends through the Twilio WhatsApp sender. Both addresses
// are prefixed with "whatsapp:" unless already present.
func NewWhatsAppChannel(cfg TwilioChannelConfig) Channel {
	return &whatsAppChannel{cfg: cfg, client: NewTwilioClient(cfg)}
}

func (c *whatsAppChannel) Name() string { return ChannelWhatsApp }

func (c *whatsAppChannel) Configured() bool { return c.cfg.complete() }

func (c *whatsAppChannel) Send(ctx context.Context, recipient, body string) error {
	if !c.Configured() {
		return fmt.Errorf("%s: %w", ChannelWhatsApp, e.ErrChannelDisabled)
	}
	_, err := c.client.SendMessage(ctx, whatsAppAddress(c.cfg.From), whatsAppAddress(recipient), body)
	return err
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}
