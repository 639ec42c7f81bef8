// Package store defines the interface for database implementations used by the portal and mailer microservices.
package store

import (
	"context"
	"errors"
)

// DB defines required methods for the portal. Implementations must be safe for concurrent use.
type DB interface {
	// notification preferences
	LoadSettings(ctx context.Context, userID string) (UserSettings, error)
	SaveSettings(ctx context.Context, s UserSettings) error
	// insight log
	AddInsight(ctx context.Context, i Insight) error
	GetInsights(ctx context.Context, address string) ([]Insight, error)
	// mail outbox
	QueueMail(ctx context.Context, m OutboxMail) error
	// monitored addresses
	AddAddress(ctx context.Context, a Address, net string) ([]byte, error)
	RemoveAddress(ctx context.Context, a Address, net string) error
	GetAddresses(ctx context.Context, nets []string) ([]ListenedAddresses, error)
}

// Errors returned
var (
	ErrAddrNotFound = errors.New("address was not found in store")
	ErrDataNotFound = errors.New("data was not found in store")
	ErrNoUser       = errors.New("user id is required")
)
