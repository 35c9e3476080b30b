/*
notifier.go - Bulk renewal reminders

PURPOSE:
  Sends one reminder per due policy through a Gateway and tallies the
  outcomes. This is the only place where the system talks to the outside
  world on the user's behalf.

BATCH SEMANTICS:
  - The template is validated once, before the first send. A bad template
    aborts the batch with nothing sent.
  - Recipients are processed one at a time, in input order.
  - A recipient without a phone counts as failed; no gateway call.
  - A failure never stops the batch. There are no retries.
  - Re-running a batch messages everyone again.
  - Once started, a batch runs to completion even if the caller goes away.

OUTCOMES:
  simulated: gateway has no credentials, message only logged
  sent:      provider accepted and returned a message id
  failed:    no phone, provider error, or no message id

SEE ALSO:
  - template.go: Placeholder rendering
  - messaging/gateway.go: Gateway implementation
*/
package crm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// GATEWAY CONTRACT
// =============================================================================

// DeliveryStatus classifies a single send.
type DeliveryStatus string

const (
	DeliverySimulated DeliveryStatus = "simulated"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery is what a Gateway reports for one message.
type Delivery struct {
	Status    DeliveryStatus
	MessageID string // provider id, set when Status is sent
	Err       error  // set when Status is failed
}

// Gateway sends a single text message.
type Gateway interface {
	Send(ctx context.Context, to, body string) Delivery
}

// =============================================================================
// NOTIFIER
// =============================================================================

// RecipientOutcome records what happened to one due policy.
type RecipientOutcome struct {
	PolicyID   PolicyID
	ClientName string
	Phone      string
	PolicyNo   string
	Message    string
	Status     DeliveryStatus
	MessageID  string
	Err        error
}

// Summary is the result of one batch.
type Summary struct {
	BatchID   string
	Sent      int
	Failed    int
	Simulated int
	Outcomes  []RecipientOutcome
}

// Total is the number of recipients processed.
func (s Summary) Total() int {
	return s.Sent + s.Failed + s.Simulated
}

// DryRun reports a batch where messages were only simulated. It must not be
// presented as a successful send.
func (s Summary) DryRun() bool {
	return s.Simulated > 0 && s.Sent == 0
}

func (s *Summary) record(o RecipientOutcome) {
	switch o.Status {
	case DeliverySent:
		s.Sent++
	case DeliverySimulated:
		s.Simulated++
	default:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Notifier drives a Gateway over a due set.
type Notifier struct {
	gateway  Gateway
	logger   *slog.Logger
	observer func(RecipientOutcome)
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithLogger sets the logger used for per-recipient lines.
func WithLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// WithObserver registers a callback invoked after each recipient.
func WithObserver(fn func(RecipientOutcome)) NotifierOption {
	return func(n *Notifier) { n.observer = fn }
}

func NewNotifier(gateway Gateway, opts ...NotifierOption) *Notifier {
	n := &Notifier{gateway: gateway, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends the rendered template to every policy in due. The only
// error it returns is a *RenderError for an invalid template; per-recipient
// failures are counted in the Summary.
func (n *Notifier) Notify(ctx context.Context, due []PolicyView, template string) (Summary, error) {
	tmpl, err := ParseTemplate(template)
	if err != nil {
		n.logger.Error("Reminder template rejected", "error", err)
		return Summary{}, err
	}

	ctx = context.WithoutCancel(ctx)
	summary := Summary{BatchID: uuid.NewString(), Outcomes: make([]RecipientOutcome, 0, len(due))}
	log := n.logger.With("batch_id", summary.BatchID)
	log.Info("Reminder batch started", "recipients", len(due))

	for _, p := range due {
		outcome := n.notifyOne(ctx, tmpl, p)
		summary.record(outcome)

		if outcome.Status == DeliveryFailed {
			log.Warn("Reminder failed",
				"policy_id", outcome.PolicyID,
				"policy_no", outcome.PolicyNo,
				"phone", outcome.Phone,
				"error", outcome.Err,
			)
		} else {
			log.Debug("Reminder dispatched",
				"policy_id", outcome.PolicyID,
				"status", outcome.Status,
				"message_id", outcome.MessageID,
			)
		}
		if n.observer != nil {
			n.observer(outcome)
		}
	}

	log.Info("Reminder batch finished",
		"sent", summary.Sent,
		"simulated", summary.Simulated,
		"failed", summary.Failed,
		"dry_run", summary.DryRun(),
	)
	return summary, nil
}

func (n *Notifier) notifyOne(ctx context.Context, tmpl *Template, p PolicyView) RecipientOutcome {
	outcome := RecipientOutcome{
		PolicyID:   p.ID,
		ClientName: p.ClientName,
		Phone:      strings.TrimSpace(p.ClientPhone),
		PolicyNo:   p.PolicyNo,
	}
	if outcome.Phone == "" {
		outcome.Status = DeliveryFailed
		outcome.Err = ErrMissingPhone
		return outcome
	}

	outcome.Message = tmpl.Render(ValuesFor(p))
	d := n.gateway.Send(ctx, outcome.Phone, outcome.Message)

	switch d.Status {
	case DeliverySimulated:
		outcome.Status = DeliverySimulated
	case DeliverySent:
		if d.MessageID == "" {
			outcome.Status = DeliveryFailed
			outcome.Err = ErrNoMessageID
			break
		}
		outcome.Status = DeliverySent
		outcome.MessageID = d.MessageID
	default:
		outcome.Status = DeliveryFailed
		outcome.Err = d.Err
		if outcome.Err == nil {
			outcome.Err = errors.New("gateway reported failure")
		}
	}
	return outcome
}
