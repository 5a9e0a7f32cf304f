// Package catalog holds the static route table: every route the operator
// serves, as an ordered list of named stops. The catalog is immutable after
// Load and safe for unbounded concurrent readers.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

var (
	// ErrRouteNotFound means no route in the catalog has both stops.
	ErrRouteNotFound = errors.New("no route found connecting these locations")
	// ErrWrongDirection means at least one route has both stops, but only
	// with the origin at or after the destination.
	ErrWrongDirection = errors.New("from location must be before to location on the route")
)

type Stop struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Order     int     `yaml:"order" json:"order"`
}

type Route struct {
	Number string `yaml:"number" json:"routeNumber"`
	Name   string `yaml:"name" json:"name"`
	Stops  []Stop `yaml:"stops" json:"stops"`
}

type RouteSummary struct {
	RouteNumber string `json:"routeNumber"`
	Name        string `json:"name"`
	TotalStops  int    `json:"totalStops"`
}

// Catalog keeps routes in declaration order. Resolution is first-match, so
// declaration order is part of the observable behavior: a stop name that
// appears on several routes always resolves to the earliest declared route.
type Catalog struct {
	routes   []Route
	byNumber map[string]*Route
}

type catalogFile struct {
	Routes []Route `yaml:"routes"`
}

// Load parses a YAML catalog document and validates it: route numbers must
// be unique, every route needs at least two stops, and stop order must be
// strictly increasing within a route.
func Load(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse route catalog: %w", err)
	}
	if len(doc.Routes) == 0 {
		return nil, errors.New("route catalog is empty")
	}

	c := &Catalog{
		routes:   doc.Routes,
		byNumber: make(map[string]*Route, len(doc.Routes)),
	}
	for i := range c.routes {
		r := &c.routes[i]
		if r.Number == "" {
			return nil, fmt.Errorf("route at index %d has no number", i)
		}
		if _, dup := c.byNumber[r.Number]; dup {
			return nil, fmt.Errorf("duplicate route number %q", r.Number)
		}
		if len(r.Stops) < 2 {
			return nil, fmt.Errorf("route %s needs at least two stops", r.Number)
		}
		for j, s := range r.Stops {
			if s.Name == "" {
				return nil, fmt.Errorf("route %s: stop at index %d has no name", r.Number, j)
			}
			if j > 0 && s.Order <= r.Stops[j-1].Order {
				return nil, fmt.Errorf("route %s: stop order must be strictly increasing at %q", r.Number, s.Name)
			}
		}
		c.byNumber[r.Number] = r
	}
	return c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route catalog: %w", err)
	}
	return Load(data)
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Load(defaultRoutes)
	if err != nil {
		// The embedded catalog is validated by tests; a failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded route catalog invalid: %v", err))
	}
	return c
}

func (c *Catalog) Get(number string) (*Route, bool) {
	r, ok := c.byNumber[number]
	return r, ok
}

func (c *Catalog) List() []RouteSummary {
	out := make([]RouteSummary, 0, len(c.routes))
	for _, r := range c.routes {
		out = append(out, RouteSummary{
			RouteNumber: r.Number,
			Name:        r.Name,
			TotalStops:  len(r.Stops),
		})
	}
	return out
}

// StopNames returns the unique stop names across all routes, sorted.
func (c *Catalog) StopNames() []string {
	seen := make(map[string]struct{})
	for _, r := range c.routes {
		for _, s := range r.Stops {
			seen[s.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match is a resolved origin/destination pair on a single route.
type Match struct {
	Route *Route
	From  *Stop
	To    *Stop
}

// Resolve finds the first declared route where fromName appears strictly
// before toName. Matching is exact and case-sensitive. When some route has
// both stops but only in the reverse order, ErrWrongDirection is returned
// instead of ErrRouteNotFound so callers can distinguish a bad direction
// from an unserved pair.
func (c *Catalog) Resolve(fromName, toName string) (*Match, error) {
	wrongDirection := false
	for i := range c.routes {
		r := &c.routes[i]
		from := r.findStop(fromName)
		to := r.findStop(toName)
		if from == nil || to == nil {
			continue
		}
		if from.Order >= to.Order {
			wrongDirection = true
			continue
		}
		return &Match{Route: r, From: from, To: to}, nil
	}
	if wrongDirection {
		return nil, ErrWrongDirection
	}
	return nil, ErrRouteNotFound
}

// StopsBetween returns the stops of the matched route with order in the
// inclusive range [From.Order, To.Order], in travel order.
func (m *Match) StopsBetween() []Stop {
	var out []Stop
	for _, s := range m.Route.Stops {
		if s.Order >= m.From.Order && s.Order <= m.To.Order {
			out = append(out, s)
		}
	}
	return out
}

func (r *Route) findStop(name string) *Stop {
	for i := range r.Stops {
		if r.Stops[i].Name == name {
			return &r.Stops[i]
		}
	}
	return nil
}
