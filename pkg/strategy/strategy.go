// Package strategy maps request paths to caching strategies.
//
// A Table is an ordered list of (Predicate, Strategy) rules. It is
// compiled once into a Resolver; the first rule whose predicate matches
// wins and unmatched paths get the fallback strategy.
package strategy

import (
	"fmt"
	"strings"
)

// Strategy is one of the fixed cache-versus-network policies.
type Strategy int

const (
	// CacheFirst serves from cache and only goes to the network on a miss.
	CacheFirst Strategy = iota + 1

	// NetworkFirst tries the network and falls back to cache on failure.
	NetworkFirst

	// StaleWhileRevalidate serves cache immediately and refreshes it in
	// the background.
	StaleWhileRevalidate
)

// String returns the metric/log label for the strategy.
func (s Strategy) String() string {
	switch s {
	case CacheFirst:
		return "cache_first"
	case NetworkFirst:
		return "network_first"
	case StaleWhileRevalidate:
		return "stale_while_revalidate"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	return s >= CacheFirst && s <= StaleWhileRevalidate
}

// Parse converts a label (as returned by String, or its kebab-case form)
// into a Strategy.
func Parse(label string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "-", "_") {
	case "cache_first":
		return CacheFirst, nil
	case "network_first":
		return NetworkFirst, nil
	case "stale_while_revalidate":
		return StaleWhileRevalidate, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", label)
	}
}

// Predicate decides whether a rule applies to a request path.
type Predicate interface {
	Matches(path string) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(path string) bool

// Matches calls f(path).
func (f PredicateFunc) Matches(path string) bool {
	return f(path)
}

// PathPrefix matches paths starting with any of its prefixes.
type PathPrefix []string

// Matches reports whether path starts with one of the prefixes.
func (p PathPrefix) Matches(path string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Rule pairs a predicate with the strategy it selects.
type Rule struct {
	Match    Predicate
	Strategy Strategy
}

// Table is an ordered rule list; earlier rules take precedence.
type Table []Rule

// DefaultTable returns the portfolio routing table.
// Precedence: cache-first, then network-first, then stale-while-revalidate.
func DefaultTable() Table {
	return Table{
		{
			Match:    PathPrefix{"/_next/static/", "/icons/", "/images/", "/videos/"},
			Strategy: CacheFirst,
		},
		{
			Match:    PathPrefix{"/api/", "/projects/", "/about/", "/contact/"},
			Strategy: NetworkFirst,
		},
		{
			Match:    PathPrefix{"/"},
			Strategy: StaleWhileRevalidate,
		},
	}
}

// DefaultStrategy applies when no rule matches.
const DefaultStrategy = NetworkFirst

// Validate checks every rule has a predicate and a declared strategy.
func (t Table) Validate() error {
	for i, rule := range t {
		if rule.Match == nil {
			return fmt.Errorf("rule %d: predicate is nil", i)
		}
		if !rule.Strategy.Valid() {
			return fmt.Errorf("rule %d: invalid strategy %d", i, int(rule.Strategy))
		}
	}
	return nil
}
