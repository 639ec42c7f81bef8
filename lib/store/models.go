package store

import (
	"github.com/idefi-ai/agents/lib/prefs"
)

// UserSettings is the per-user document of the preference store.
type UserSettings struct {
	UserID        string            `json:"userId" bson:"userId"`
	UserEmail     string            `json:"userEmail" bson:"userEmail"`
	WalletAddress string            `json:"walletAddress" bson:"walletAddress"`
	Preferences   prefs.Preferences `json:"notificationPreferences" bson:"notificationPreferences"`
}

// Insight is an append-only record describing a monitoring event. Timestamp is in epoch milliseconds.
type Insight struct {
	UserAddress string `json:"userAddress" bson:"userAddress"`
	Insights    string `json:"insights" bson:"insights"`
	Timestamp   int64  `json:"timestamp" bson:"timestamp"`
}

// OutboxMail is a mail waiting in the outbox to be delivered by a mail extension of the backend.
type OutboxMail struct {
	To      string      `json:"to" bson:"to"`
	Message MailMessage `json:"message" bson:"message"`
}

// MailMessage is the content of an OutboxMail.
type MailMessage struct {
	Subject string `json:"subject" bson:"subject"`
	HTML    string `json:"html" bson:"html"`
}

// Address contains the fields for a monitored address saved to DB. Name holds the owner's user id.
type Address struct {
	ID   []byte `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// ListenedAddresses contains the fields of monitored objects saved to DB.
type ListenedAddresses struct {
	Net  string    `json:"net"`
	Addr []Address `json:"addresses"`
}
