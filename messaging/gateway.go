/*
gateway.go - Renewal reminders through a text messaging provider

PURPOSE:
  Implements crm.Gateway. One call to Send is at most one outbound request
  to the provider; nothing is kept between calls.

MODES:
  Simulated: any of account SID, auth token or sender is missing. The
             message is logged and reported as simulated. No network I/O.
  Live:      Twilio Messages API over the WhatsApp channel. A provider
             message SID means sent; an error or a missing SID means failed.

  The mode is fixed when the Gateway is built. It is never re-derived from
  the environment per call.

TIMEOUTS:
  There are no retries, backoff or per-call timeouts here. Whatever the
  provider client is configured with applies.

SEE ALSO:
  - crm/notifier.go: Drives Send over a due set
  - config/config.go: Loads Config from the environment
*/
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/warp/renewal-crm/crm"
)

// DefaultChannel is the destination prefix used when Config.Channel is empty.
const DefaultChannel = "whatsapp"

// Config holds provider credentials. All three of AccountSID, AuthToken
// and From must be set for live sends.
type Config struct {
	AccountSID string `env:"SID"`
	AuthToken  string `env:"TOKEN"`
	From       string `env:"WHATSAPP_FROM"`
	Channel    string `env:"CHANNEL" envDefault:"whatsapp"`
}

// Complete reports whether live sending is possible.
func (c Config) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// MessageCreator is the part of the Twilio API the gateway uses.
// *twilioApi.ApiService satisfies it.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Gateway sends messages or simulates them.
type Gateway struct {
	creator MessageCreator // nil in simulated mode
	from    string
	channel string
	logger  *slog.Logger
}

var _ crm.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMessageCreator replaces the Twilio client. It only takes effect when
// the config is complete; an incomplete config always simulates.
func WithMessageCreator(mc MessageCreator) Option {
	return func(g *Gateway) {
		if g.creator != nil {
			g.creator = mc
		}
	}
}

// NewGateway builds a gateway and decides its mode from cfg.
func NewGateway(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		channel: cfg.Channel,
		logger:  slog.Default(),
	}
	if g.channel == "" {
		g.channel = DefaultChannel
	}

	if cfg.Complete() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		g.creator = client.Api
		g.from = g.address(cfg.From)
	}

	for _, opt := range opts {
		opt(g)
	}

	g.logger.Info("Messaging gateway ready", "simulated", g.Simulated(), "channel", g.channel)
	return g
}

// Simulated reports whether the gateway only logs messages.
func (g *Gateway) Simulated() bool {
	return g.creator == nil
}

// Send delivers one message. The context is accepted for interface
// symmetry; the provider client has no cancellation hook.
func (g *Gateway) Send(_ context.Context, to, body string) crm.Delivery {
	if g.Simulated() {
		g.logger.Info("[SIMULATION] Would send message", "to", to, "body", body)
		return crm.Delivery{Status: crm.DeliverySimulated}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(g.address(to))
	params.SetFrom(g.from)
	params.SetBody(body)

	msg, err := g.creator.CreateMessage(params)
	if err != nil {
		g.logger.Error("Provider send failed", "to", to, "error", err)
		sentry.CaptureException(err)
		return crm.Delivery{Status: crm.DeliveryFailed, Err: err}
	}
	if msg == nil || msg.Sid == nil || *msg.Sid == "" {
		g.logger.Error("Provider returned no message SID", "to", to)
		return crm.Delivery{Status: crm.DeliveryFailed, Err: crm.ErrNoMessageID}
	}

	if msg.ErrorCode != nil {
		err := errors.New(derefString(msg.ErrorMessage))
		g.logger.Error("Provider rejected message", "to", to, "code", *msg.ErrorCode, "error", err)
		return crm.Delivery{Status: crm.DeliveryFailed, Err: err}
	}

	return crm.Delivery{Status: crm.DeliverySent, MessageID: *msg.Sid}
}

// address prefixes a number with the channel, e.g. "whatsapp:+15551234".
func (g *Gateway) address(number string) string {
	number = strings.TrimSpace(number)
	prefix := g.channel + ":"
	if strings.HasPrefix(number, prefix) {
		return number
	}
	return prefix + number
}

func derefString(s *string) string {
	if s == nil {
		return "provider error"
	}
	return *s
}
