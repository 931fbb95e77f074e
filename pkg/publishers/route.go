package publishers

import (
	"fmt"
	"path"
	"strings"
)

// Route selects the events a publisher receives. An empty list matches
// everything. Collection entries are path.Match patterns, so "docs-*" routes
// every collection with that prefix.
type Route struct {
	Collections []string
	EventTypes  []string
}

// IsZero reports whether the route accepts every event.
func (r Route) IsZero() bool {
	return len(r.Collections) == 0 && len(r.EventTypes) == 0
}

// Matches reports whether evt passes both lists.
func (r Route) Matches(evt Event) bool {
	return r.matchesType(evt.Type) && r.matchesCollection(evt.Collection)
}

func (r Route) matchesType(typ string) bool {
	if len(r.EventTypes) == 0 {
		return true
	}
	for _, t := range r.EventTypes {
		if strings.EqualFold(t, typ) {
			return true
		}
	}
	return false
}

func (r Route) matchesCollection(name string) bool {
	if len(r.Collections) == 0 {
		return true
	}
	for _, pattern := range r.Collections {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (r Route) validate() error {
	for _, pattern := range r.Collections {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid collections pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// routedPublisher drops events its route does not match.
type routedPublisher struct {
	Publisher
	route Route
}

// WithRoute restricts pub to the events matched by route.
func WithRoute(pub Publisher, route Route) Publisher {
	if pub == nil || route.IsZero() {
		return pub
	}
	return &routedPublisher{Publisher: pub, route: route}
}

// Accepts reports whether the event should be delivered.
func (p *routedPublisher) Accepts(evt Event) bool { return p.route.Matches(evt) }

func (p *routedPublisher) Close() error { return closePublisher(p.Publisher) }
