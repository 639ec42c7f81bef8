package panel

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/session"
)

// Registry holds one Panel per user.
type Registry struct {
	db  Store
	mon Monitor
	net string
	log *logrus.Logger

	mu     sync.Mutex
	panels map[string]*Panel
}

// NewRegistry returns an empty registry whose panels use db, mon and net.
func NewRegistry(db Store, mon Monitor, net string, log *logrus.Logger) *Registry {
	return &Registry{db: db, mon: mon, net: net, log: log, panels: make(map[string]*Panel)}
}

// Get returns the panel of s, creating it on first use.
func (r *Registry) Get(s session.Session) *Panel {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.panels[s.UserID]
	if !ok {
		p = New(s, r.db, r.mon, r.net, r.log)
		r.panels[s.UserID] = p
	}

	return p
}

// Reset discards the panel of s. Its alerts are lost and preferences are loaded again on next use.
func (r *Registry) Reset(s session.Session) {
	r.mu.Lock()
	delete(r.panels, s.UserID)
	r.mu.Unlock()
}
