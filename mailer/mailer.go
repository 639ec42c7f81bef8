// Package mailer implements the mailer microservice. The mailer consumes the notification mails published by the
// portal to the message broker and delivers them over SMTP. A mail is acknowledged to the broker once its delivery
// has been attempted, whatever the outcome.
package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/msg"
	"github.com/idefi-ai/agents/lib/notify"
)

// SendTimeout bounds the delivery of one mail.
const SendTimeout = 30 * time.Second

var sends = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "idefi",
	Subsystem: "mailer",
	Name:      "sends_total",
	Help:      "Mails delivered by result.",
}, []string{"result"})

// Consumer is the part of msg.MsgBroker used by the mailer.
type Consumer interface {
	GetMails(mut *sync.Mutex) (<-chan msg.MailReq, <-chan error, error)
}

// Mailer implements a mailer service.
type Mailer struct {
	mb   Consumer
	s    notify.Dispatcher
	log  *logrus.Logger
	stop chan struct{}
	once sync.Once
}

// New instantiates a new mailer service delivering the mails consumed from mb with s.
func New(mb Consumer, s notify.Dispatcher, log *logrus.Logger) *Mailer {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Mailer{mb: mb, s: s, log: log, stop: make(chan struct{})}
}

// Run starts a go routine consuming mails from the broker. The returned channel receives a message when the
// consumption ends, either because Stop was called or because the broker closed the delivery channel.
func (m *Mailer) Run() (chan string, error) {
	mut := new(sync.Mutex)
	mut.Lock()

	mails, errs, err := m.mb.GetMails(mut)
	if err != nil {
		return nil, fmt.Errorf("mailer: cannot get mails: %w", err)
	}

	ret := make(chan string, 1)

	go func() {
		var n int

		m.log.Info("Start listening to mail channel")

		defer func() { ret <- fmt.Sprintf("Done! %d mails processed", n) }()

		for {
			select {
			case <-m.stop:
				return
			case mail, ok := <-mails:
				if !ok {
					m.log.Info("Stop listening to mail channel")

					return
				}

				m.deliver(mail)
				n++
				mut.Unlock() // let the broker acknowledge the mail
			case e, ok := <-errs:
				if !ok {
					errs = nil

					continue
				}

				m.log.WithError(e).Warn("Received error from broker")
			}
		}
	}()

	return ret, nil
}

// Stop ends the consumption of mails. The mail being delivered, if any, is finished first.
func (m *Mailer) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Mailer) deliver(mail msg.MailReq) {
	ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
	defer cancel()

	log := m.log.WithFields(logrus.Fields{"id": mail.ID, "to": mail.To})

	if err := m.s.Send(ctx, mail.Subject, mail.HTML, mail.To); err != nil {
		sends.WithLabelValues("error").Inc()
		log.WithError(err).Error("Error delivering mail")

		return
	}

	sends.WithLabelValues("ok").Inc()
	log.Info("Mail delivered")
}
