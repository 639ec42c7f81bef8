// Package msg defines the interface for different message brokers.
//
// The portal publishes notification mails to the broker and the mailer service consumes and delivers them.
package msg

import (
	"sync"
)

// MailReq defines the message that the portal publishes for the mailer to deliver.
type MailReq struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// MsgBroker is implemented by the supported brokers.
type MsgBroker interface { //nolint:revive // name kept for symmetry with the broker packages
	Setup(interface{}) error
	Close() error

	// methods for portal service
	SendMail(m MailReq) error

	// methods for mailer service
	GetMails(mut *sync.Mutex) (<-chan MailReq, <-chan error, error)
}
