// Package memory implements the store interface in process memory. It backs tests and store-less development runs.
package memory

import (
	"context"
	"crypto/rand"
	"sort"
	"sync"

	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/util"
)

// Memory is a store.DB kept in maps.
type Memory struct {
	l        sync.RWMutex
	settings map[string]store.UserSettings
	insights []store.Insight
	outbox   []store.OutboxMail
	addrs    map[string][]store.Address
}

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{
		settings: make(map[string]store.UserSettings),
		addrs:    make(map[string][]store.Address),
	}
}

// LoadSettings returns store.ErrDataNotFound for users that never saved.
func (m *Memory) LoadSettings(_ context.Context, userID string) (store.UserSettings, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return store.UserSettings{}, store.ErrDataNotFound
	}

	return s, nil
}

// SaveSettings overwrites the settings of s.UserID.
func (m *Memory) SaveSettings(_ context.Context, s store.UserSettings) error {
	if s.UserID == "" {
		return store.ErrNoUser
	}

	m.l.Lock()
	m.settings[s.UserID] = s
	m.l.Unlock()

	return nil
}

// AddInsight appends i to the log.
func (m *Memory) AddInsight(_ context.Context, i store.Insight) error {
	m.l.Lock()
	m.insights = append(m.insights, i)
	m.l.Unlock()

	return nil
}

// GetInsights returns the records of address ordered by timestamp.
func (m *Memory) GetInsights(_ context.Context, address string) ([]store.Insight, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	r := []store.Insight{}

	for _, i := range m.insights {
		if i.UserAddress == address {
			r = append(r, i)
		}
	}

	sort.SliceStable(r, func(a, b int) bool { return r[a].Timestamp < r[b].Timestamp })

	return r, nil
}

// QueueMail appends mail to the outbox.
func (m *Memory) QueueMail(_ context.Context, mail store.OutboxMail) error {
	m.l.Lock()
	m.outbox = append(m.outbox, mail)
	m.l.Unlock()

	return nil
}

// Outbox returns a copy of the queued mails.
func (m *Memory) Outbox() []store.OutboxMail {
	m.l.RLock()
	defer m.l.RUnlock()

	return append([]store.OutboxMail(nil), m.outbox...)
}

// AddAddress saves an address for its owner (a.Name) if the pair does not already exist for net and returns its id.
func (m *Memory) AddAddress(_ context.Context, a store.Address, net string) ([]byte, error) {
	m.l.Lock()
	defer m.l.Unlock()

	for _, x := range m.addrs[net] {
		if x.Addr == a.Addr && x.Name == a.Name {
			return x.ID, nil
		}
	}

	a.ID = make([]byte, 12)
	if _, err := rand.Read(a.ID); err != nil {
		return nil, err
	}

	m.addrs[net] = append(m.addrs[net], a)

	return a.ID, nil
}

// RemoveAddress deletes the entry of a.Name for a.Addr from net.
func (m *Memory) RemoveAddress(_ context.Context, a store.Address, net string) error {
	m.l.Lock()
	defer m.l.Unlock()

	list := m.addrs[net]
	for i, x := range list {
		if x.Addr == a.Addr && x.Name == a.Name {
			m.addrs[net] = append(list[:i:i], list[i+1:]...)

			return nil
		}
	}

	return store.ErrAddrNotFound
}

// GetAddresses returns the monitored addresses for the networks in nets, or all of them if nets is empty.
func (m *Memory) GetAddresses(_ context.Context, nets []string) ([]store.ListenedAddresses, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	names := make([]string, 0, len(m.addrs))
	for net := range m.addrs {
		names = append(names, net)
	}

	sort.Strings(names)

	r := []store.ListenedAddresses{}

	for _, net := range names {
		if len(nets) == 0 || util.In(nets, net) {
			r = append(r, store.ListenedAddresses{Net: net, Addr: append([]store.Address{}, m.addrs[net]...)})
		}
	}

	return r, nil
}
