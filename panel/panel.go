// Package panel keeps the notification preferences panel of each signed-in user: the cached preferences, the wallet
// address and email being edited, the alerts produced by monitor calls and the last monitoring data.
//
// A Panel is shared by all the requests of one user, so its state is guarded by a mutex. Remote calls (store and
// monitor) are made without holding it.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/prefs"
	"github.com/idefi-ai/agents/lib/session"
	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/monitor"
)

// Store is the part of store.DB used by panels.
type Store interface {
	LoadSettings(ctx context.Context, userID string) (store.UserSettings, error)
	SaveSettings(ctx context.Context, s store.UserSettings) error
	AddAddress(ctx context.Context, a store.Address, net string) ([]byte, error)
}

// Monitor runs monitor calls.
type Monitor interface {
	Monitor(ctx context.Context, r monitor.Request) monitor.Report
}

// Panel is the state of one user's panel.
type Panel struct {
	s   session.Session
	db  Store
	mon Monitor
	net string
	log *logrus.Entry

	mu      sync.Mutex
	loaded  bool
	prefs   prefs.Preferences
	address string
	email   string
	alerts  []string
	data    json.RawMessage
}

// State is a snapshot of a Panel.
type State struct {
	WalletAddress     string            `json:"walletAddress"`
	NotificationEmail string            `json:"notificationEmail"`
	Preferences       prefs.Preferences `json:"notificationPreferences"`
	Alerts            []string          `json:"alerts"`
	Data              json.RawMessage   `json:"monitoringData,omitempty"`
}

// New returns the panel of session s. Successfully monitored addresses are registered under net. The notification
// email starts empty: the sign-in address is only stored as the owner's email of the settings.
func New(s session.Session, db Store, mon Monitor, net string, log *logrus.Logger) *Panel {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Panel{
		s:      s,
		db:     db,
		mon:    mon,
		net:    net,
		log:    log.WithField("user", s.UserID),
		prefs:  prefs.Default(),
		alerts: []string{},
	}
}

// Load reads the stored preferences and wallet address once. Users without stored settings get the defaults. On a
// store error the defaults stay in place and Load will be retried on next use.
func (p *Panel) Load(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()

	if loaded {
		return nil
	}

	us, err := p.db.LoadSettings(ctx, p.s.UserID)
	if err != nil && !errors.Is(err, store.ErrDataNotFound) {
		p.log.WithError(err).Error("Error loading preferences")

		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded { // loaded concurrently
		return nil
	}

	p.loaded = true

	if err != nil {
		p.log.Debug("No stored preferences, using defaults")

		return nil
	}

	p.prefs = us.Preferences
	if us.WalletAddress != "" && p.address == "" {
		p.address = us.WalletAddress
	}

	return nil
}

// SetWalletAddress sets the address that Monitor will check.
func (p *Panel) SetWalletAddress(address string) {
	p.mu.Lock()
	p.address = address
	p.mu.Unlock()
}

// SetNotificationEmail sets the recipient of dusting notifications.
func (p *Panel) SetNotificationEmail(email string) {
	p.mu.Lock()
	p.email = email
	p.mu.Unlock()
}

// Toggle flips preference k and persists the whole record together with the wallet address. A failed save is logged
// and counted but does not undo the toggle.
func (p *Panel) Toggle(ctx context.Context, k prefs.Key) (prefs.Preferences, error) {
	if _, err := prefs.ParseKey(string(k)); err != nil {
		return prefs.Preferences{}, err
	}

	if err := p.Load(ctx); err != nil {
		p.log.WithError(err).Warn("Toggling on default preferences")
	}

	p.mu.Lock()

	np, err := p.prefs.Toggle(k)
	if err != nil {
		p.mu.Unlock()

		return prefs.Preferences{}, err
	}

	p.prefs = np
	us := store.UserSettings{UserID: p.s.UserID, UserEmail: p.s.Email, WalletAddress: p.address, Preferences: np}
	p.mu.Unlock()

	if err = p.db.SaveSettings(ctx, us); err != nil {
		prefSaves.WithLabelValues(resultError).Inc()
		p.log.WithError(err).WithField("key", k).Error("Error saving preferences")
	} else {
		prefSaves.WithLabelValues(resultOK).Inc()
	}

	return np, nil
}

// Monitor checks the current wallet address, appends the resulting alert and, on success, keeps the monitoring data
// and registers the address as monitored.
func (p *Panel) Monitor(ctx context.Context) monitor.Report {
	p.mu.Lock()
	req := monitor.Request{WalletAddress: p.address, NotificationEmail: p.email}
	p.mu.Unlock()

	rep := p.mon.Monitor(ctx, req)

	p.mu.Lock()
	p.alerts = append(p.alerts, rep.Alert)
	if rep.Err == nil {
		p.data = rep.Data
	}
	p.mu.Unlock()

	if rep.Err == nil {
		a := store.Address{Name: p.s.UserID, Addr: req.WalletAddress}
		if _, err := p.db.AddAddress(ctx, a, p.net); err != nil {
			p.log.WithError(err).WithField("net", p.net).Warn("Error registering monitored address")
		}
	}

	return rep
}

// Alerts returns a copy of the alert list in insertion order.
func (p *Panel) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string{}, p.alerts...)
}

// Preferences returns the cached preferences.
func (p *Panel) Preferences() prefs.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.prefs
}

// State returns a snapshot of the panel.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return State{
		WalletAddress:     p.address,
		NotificationEmail: p.email,
		Preferences:       p.prefs,
		Alerts:            append([]string{}, p.alerts...),
		Data:              p.data,
	}
}
