// Package notify delivers notification emails. A Dispatcher either hands the mail to the message broker for the
// mailer service, queues it in the store's mail outbox or sends it straight over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/idefi-ai/agents/lib/msg"
	"github.com/idefi-ai/agents/lib/store"
)

// Dispatchers available through config.ServiceConfig.MailType.
const (
	AMQP   = "amqp"
	OUTBOX = "outbox"
	SMTP   = "smtp"
)

// ErrNoRecipient is returned when a mail has no destination address.
var ErrNoRecipient = errors.New("mail has no recipient")

// Mail is a notification mail job.
type Mail = msg.MailReq

// Dispatcher sends a notification with subject and body (html) to the given email address.
type Dispatcher interface {
	Send(ctx context.Context, subject, body, to string) error
}

// Publisher is the part of msg.MsgBroker used by BrokerDispatcher.
type Publisher interface {
	SendMail(m msg.MailReq) error
}

// BrokerDispatcher publishes mails to the broker for the mailer service to deliver.
type BrokerDispatcher struct {
	pub Publisher
}

// NewBrokerDispatcher returns a Dispatcher publishing to pub.
func NewBrokerDispatcher(pub Publisher) *BrokerDispatcher {
	return &BrokerDispatcher{pub: pub}
}

// Send publishes the mail job with a fresh id.
func (d *BrokerDispatcher) Send(_ context.Context, subject, body, to string) error {
	if to == "" {
		return ErrNoRecipient
	}

	m := Mail{ID: uuid.NewString(), To: to, Subject: subject, HTML: body}
	if err := d.pub.SendMail(m); err != nil {
		return fmt.Errorf("cannot publish mail to %s: %w", to, err)
	}

	return nil
}

// Outbox is the part of store.DB used by OutboxDispatcher.
type Outbox interface {
	QueueMail(ctx context.Context, m store.OutboxMail) error
}

// OutboxDispatcher writes mails into the store's mail outbox.
type OutboxDispatcher struct {
	db Outbox
}

// NewOutboxDispatcher returns a Dispatcher queueing into db.
func NewOutboxDispatcher(db Outbox) *OutboxDispatcher {
	return &OutboxDispatcher{db: db}
}

// Send queues the mail.
func (d *OutboxDispatcher) Send(ctx context.Context, subject, body, to string) error {
	if to == "" {
		return ErrNoRecipient
	}

	m := store.OutboxMail{To: to, Message: store.MailMessage{Subject: subject, HTML: body}}
	if err := d.db.QueueMail(ctx, m); err != nil {
		return fmt.Errorf("cannot queue mail to %s: %w", to, err)
	}

	return nil
}
