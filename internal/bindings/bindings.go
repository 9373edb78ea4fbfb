// Package bindings maps key names (as produced by tui.KeyName) to editor actions. The built-in table can be overridden per action; an override replaces
// every default key of that action.
package bindings

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codalotl/drafter/internal/q/tui"
)

// Map resolves key names to actions.
type Map struct {
	single  map[string]ActionID
	actions map[ActionID][]string
}

// HelpRow is one line of the help screen.
type HelpRow struct {
	Action      ActionID
	Keys        []string
	Description string
}

// DefaultMap builds the built-in bindings.
func DefaultMap() *Map {
	m, err := New(nil)
	if err != nil {
		panic(err)
	}
	return m
}

// New builds a Map from the defaults plus overrides (action id → key names, as written in a config file). Unknown actions, unknown key names, and a
// key bound to two actions are errors.
func New(overrides map[string][]string) (*Map, error) {
	byAction := make(map[ActionID][]string, len(definitions))
	for _, def := range definitions {
		byAction[def.id] = append([]string(nil), def.defaults...)
	}

	// Sorted so the first reported error doesn't depend on map order.
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id := ActionID(strings.TrimSpace(name))
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		keys := make([]string, 0, len(overrides[name]))
		for _, spec := range overrides[name] {
			key, ok := tui.ParseKeyName(spec)
			if !ok {
				return nil, fmt.Errorf("action %q: unknown key %q", name, spec)
			}
			keys = append(keys, key)
		}
		byAction[id] = keys
	}

	m := &Map{
		single:  make(map[string]ActionID),
		actions: make(map[ActionID][]string, len(byAction)),
	}
	for _, def := range definitions {
		seen := make(map[string]struct{})
		for _, key := range byAction[def.id] {
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("action %s: duplicate binding %q", def.id, key)
			}
			seen[key] = struct{}{}
			if existing, ok := m.single[key]; ok {
				return nil, fmt.Errorf("binding %q assigned to both %s and %s", key, existing, def.id)
			}
			m.single[key] = def.id
			m.actions[def.id] = append(m.actions[def.id], key)
		}
	}
	return m, nil
}

// Resolve returns the action bound to key, a name in tui.KeyName form.
func (m *Map) Resolve(key string) (ActionID, bool) {
	if m == nil || key == "" {
		return "", false
	}
	id, ok := m.single[key]
	return id, ok
}

// ResolveEvent is Resolve(tui.KeyName(ev)).
func (m *Map) ResolveEvent(ev tui.KeyEvent) (ActionID, bool) {
	return m.Resolve(tui.KeyName(ev))
}

// Keys returns the keys bound to id. An action may have no keys if an override unbound it.
func (m *Map) Keys(id ActionID) []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.actions[id]...)
}

// FirstKey returns the first key bound to id, or "" if none.
func (m *Map) FirstKey(id ActionID) string {
	if m == nil || len(m.actions[id]) == 0 {
		return ""
	}
	return m.actions[id][0]
}

// Help returns one row per action in help-screen order.
func (m *Map) Help() []HelpRow {
	rows := make([]HelpRow, 0, len(definitions))
	for _, def := range definitions {
		rows = append(rows, HelpRow{Action: def.id, Keys: m.Keys(def.id), Description: def.description})
	}
	return rows
}

// ErrUnbound is returned by Require when an essential action has no key.
var ErrUnbound = errors.New("bindings: essential action has no key")

// Require checks that every id has at least one key.
func (m *Map) Require(ids ...ActionID) error {
	for _, id := range ids {
		if len(m.Keys(id)) == 0 {
			return fmt.Errorf("%w: %s", ErrUnbound, id)
		}
	}
	return nil
}
