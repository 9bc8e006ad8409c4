package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/mail"

	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go/v7"

	"event-ticketing/models"
	"event-ticketing/monitoring"
)

const TicketAttachmentName = "event-ticket.png"

// Delivery is everything a channel needs to hand a ticket to its holder.
type Delivery struct {
	UserID         string
	Email          string
	Name           string
	EventName      string
	RegistrationID string
	Ticket         *models.Ticket
}

// Dispatcher delivers an issued ticket over one or more channels.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, d Delivery) error
}

var ticketEmailTmpl = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>Your payment was received and you are registered for <strong>{{.EventName}}</strong>.</p>
<p>Your entry ticket is attached as a QR code. Present it at the venue.</p>
<p>Registration: {{.RegistrationID}}<br>Valid until: {{.ExpiresAt}}</p>
</body>
</html>`))

// EmailNotifier mails the ticket QR code as a PNG attachment.
type EmailNotifier struct {
	mailer mailer.Mailer
	from   mail.Address
}

func NewEmailNotifier(m mailer.Mailer, fromAddress, fromName string) *EmailNotifier {
	return &EmailNotifier{
		mailer: m,
		from:   mail.Address{Address: fromAddress, Name: fromName},
	}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Dispatch(ctx context.Context, d Delivery) error {
	if d.Email == "" {
		return errors.New("email: recipient has no address")
	}
	if d.Ticket == nil || len(d.Ticket.Image) == 0 {
		return errors.New("email: ticket image missing")
	}

	var body bytes.Buffer
	err := ticketEmailTmpl.Execute(&body, map[string]string{
		"Name":           d.Name,
		"EventName":      d.EventName,
		"RegistrationID": d.RegistrationID,
		"ExpiresAt":      d.Ticket.ExpiresAt.UTC().Format("02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("email: render body: %w", err)
	}

	msg := &mailer.Message{
		From:    n.from,
		To:      []mail.Address{{Address: d.Email, Name: d.Name}},
		Subject: fmt.Sprintf("Your ticket for %s", d.EventName),
		HTML:    body.String(),
		Attachments: map[string]io.Reader{
			TicketAttachmentName: bytes.NewReader(d.Ticket.Image),
		},
	}

	if err := n.mailer.Send(msg); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

// Publisher pushes a message to a realtime channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// PubNubPublisher publishes through a PubNub client. The client should be
// configured with MaxWorkers = 0; the SDK's worker queue drops requests whose
// context ends before they are queued without ever answering the caller.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) Publish(ctx context.Context, channel string, message any) error {
	_, st, err := p.pn.PublishWithContext(ctx).
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish %s: %w", channel, err)
	}
	if st.StatusCode >= 400 {
		return fmt.Errorf("pubnub publish %s: status %d", channel, st.StatusCode)
	}
	return nil
}

// UserChannel is the per-user realtime channel the client subscribes to.
func UserChannel(userID string) string {
	return "user-" + userID
}

// RealtimeNotifier tells a connected client that its ticket is ready.
type RealtimeNotifier struct {
	publisher Publisher
}

func NewRealtimeNotifier(p Publisher) *RealtimeNotifier {
	return &RealtimeNotifier{publisher: p}
}

func (n *RealtimeNotifier) Name() string { return "realtime" }

func (n *RealtimeNotifier) Dispatch(ctx context.Context, d Delivery) error {
	if d.UserID == "" {
		return errors.New("realtime: empty user id")
	}

	msg := map[string]any{
		"type":           "ticket_issued",
		"registrationId": d.RegistrationID,
		"eventName":      d.EventName,
	}
	if d.Ticket != nil {
		msg["expiresAt"] = d.Ticket.ExpiresAt.Unix()
	}

	return n.publisher.Publish(ctx, UserChannel(d.UserID), msg)
}

// MultiNotifier fans a delivery out to every channel. One failing channel
// does not stop the others.
type MultiNotifier struct {
	dispatchers []Dispatcher
}

func NewMultiNotifier(dispatchers ...Dispatcher) *MultiNotifier {
	return &MultiNotifier{dispatchers: dispatchers}
}

func (m *MultiNotifier) Name() string { return "multi" }

func (m *MultiNotifier) Dispatch(ctx context.Context, d Delivery) error {
	var errs []error
	for _, dp := range m.dispatchers {
		if err := dp.Dispatch(ctx, d); err != nil {
			monitoring.TrackDispatchFailure(dp.Name())
			slog.ErrorContext(ctx, "ticket dispatch failed",
				"channel", dp.Name(),
				"registration_id", d.RegistrationID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
