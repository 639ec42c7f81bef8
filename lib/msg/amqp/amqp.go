// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/idefi-ai/agents/lib/msg"
)

// Exchange, queue and consumer names.
const (
	Exchange = "nm" // notification mails
	Queue    = "nmmailer"
	Consumer = "mailer"
	Routing  = "mail.send"
)

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection
	l    sync.Mutex // guards ch
	ch   *amqp.Channel
	done chan struct{} // closed by Close to release the consumers
	once sync.Once
}

// New instantiates a new amqp broker.
func New(uri string) (*Amqp, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("cannot dial amqp broker: %w", err)
	}

	return &Amqp{conn: conn, done: make(chan struct{})}, nil
}

// Setup obtains an amqp channel and declares the "nm" ("notification mails") exchange the portal publishes to.
func (r *Amqp) Setup(x interface{}) error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	return channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
}

// Close terminates gracefully the connection to the AMQP message broker
func (r *Amqp) Close() error {
	r.once.Do(func() { close(r.done) })

	r.l.Lock()
	if r.ch != nil {
		_ = r.ch.Close()
		r.ch = nil
	}
	r.l.Unlock()

	return r.conn.Close()
}

func (r *Amqp) channel() (*amqp.Channel, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.ch == nil {
		ch, err := r.conn.Channel()
		if err != nil {
			return nil, err
		}

		r.ch = ch
	}

	return r.ch, nil
}

// SendMail publishes a mail job to the "nm" exchange.
func (r *Amqp) SendMail(m msg.MailReq) error {
	jsonDoc, err := json.Marshal(m)
	if err != nil {
		return err
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		Headers:      amqp.Table{"x-mail-id": m.ID},
		Body:         jsonDoc,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    m.ID,
	}

	if err = ch.Publish(Exchange, Routing, false, false, pub); err != nil {
		return fmt.Errorf("cannot publish mail %s: %w", m.ID, err)
	}

	return nil
}

// GetMails consumes mail jobs from the "nm" exchange pushing them to the returned channel. The Mutex pointer is
// provided to ensure the consumed message has been fully dealt with by the management function, so the message
// consumed is only acknowledged when the mutex is unlocked. Both channels are closed once the broker stops delivering
// or Close is called; a mail nobody received before Close is left unacknowledged for redelivery.
func (r *Amqp) GetMails(mut *sync.Mutex) (<-chan msg.MailReq, <-chan error, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, nil, err
	}

	if _, err = ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
		return nil, nil, err
	}

	if err = ch.QueueBind(Queue, "mail.*", Exchange, false, nil); err != nil {
		return nil, nil, err
	}

	deliveries, err := ch.Consume(Queue, Consumer, false, false, false, false, nil)
	if err != nil {
		return nil, nil, err
	}

	mails, errs := consume(deliveries, mut, r.done)

	return mails, errs, nil
}

// consume decodes deliveries into mails until deliveries is closed or done is.
func consume(deliveries <-chan amqp.Delivery, mut *sync.Mutex, done <-chan struct{}) (<-chan msg.MailReq, <-chan error) {
	mails := make(chan msg.MailReq)
	errs := make(chan error)

	// start routine to consume messages from broker
	go func() {
		defer close(mails)
		defer close(errs)

		for {
			var d amqp.Delivery

			select {
			case <-done:
				return
			case dd, ok := <-deliveries:
				if !ok {
					return
				}

				d = dd
			}

			var m msg.MailReq
			if err := json.Unmarshal(d.Body, &m); err != nil {
				_ = d.Nack(false, false) // malformed, drop it

				select {
				case errs <- err:
				case <-done:
					return
				}

				continue
			}

			select {
			case mails <- m:
			case <-done:
				return
			}

			mut.Lock() // wait for mailer to finish processing the mail
			_ = d.Ack(false)
		}
	}()

	return mails, errs
}
