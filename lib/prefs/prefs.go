// Package prefs defines the notification preferences a user can opt into. The set of categories is closed: three
// agent categories and two component categories.
package prefs

import (
	"errors"
)

// Key names one notification category.
type Key string

// Notification categories.
const (
	Agent1     Key = "agent1"
	Agent2     Key = "agent2"
	Agent3     Key = "agent3"
	ComponentA Key = "componentA"
	ComponentB Key = "componentB"
)

// Keys lists every category in display order.
var Keys = []Key{Agent1, Agent2, Agent3, ComponentA, ComponentB} //nolint:gochecknoglobals // closed set

// ErrUnknownKey is returned for a category outside the closed set.
var ErrUnknownKey = errors.New("unknown notification preference")

// Preferences holds one flag per category. Keys missing from a stored document decode as false.
type Preferences struct {
	Agent1     bool `json:"agent1" bson:"agent1"`
	Agent2     bool `json:"agent2" bson:"agent2"`
	Agent3     bool `json:"agent3" bson:"agent3"`
	ComponentA bool `json:"componentA" bson:"componentA"`
	ComponentB bool `json:"componentB" bson:"componentB"`
}

// Default returns preferences with every category disabled.
func Default() Preferences {
	return Preferences{}
}

// ParseKey validates s against the closed set of categories.
func ParseKey(s string) (Key, error) {
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}

	return "", ErrUnknownKey
}

func (p *Preferences) field(k Key) (*bool, error) {
	switch k {
	case Agent1:
		return &p.Agent1, nil
	case Agent2:
		return &p.Agent2, nil
	case Agent3:
		return &p.Agent3, nil
	case ComponentA:
		return &p.ComponentA, nil
	case ComponentB:
		return &p.ComponentB, nil
	}

	return nil, ErrUnknownKey
}

// Get returns the flag for k.
func (p Preferences) Get(k Key) (bool, error) {
	f, err := p.field(k)
	if err != nil {
		return false, err
	}

	return *f, nil
}

// Toggle returns a copy of p with only k flipped.
func (p Preferences) Toggle(k Key) (Preferences, error) {
	f, err := p.field(k)
	if err != nil {
		return p, err
	}

	*f = !*f

	return p, nil
}

// Map returns the preferences as a category to flag map with every key present.
func (p Preferences) Map() map[Key]bool {
	m := make(map[Key]bool, len(Keys))
	for _, k := range Keys {
		m[k], _ = p.Get(k)
	}

	return m
}
