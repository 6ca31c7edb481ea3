// Package router classifies raw queries into provider routes and fans
// a search out to the matching provider.
package router

import (
	"strings"
)

// Route names the provider a query belongs to.
type Route string

const (
	RouteHistory  Route = "history"
	RouteApp      Route = "app"
	RouteFile     Route = "file"
	RouteVector   Route = "vector"
	RouteVault    Route = "vault"
	RouteSSH      Route = "ssh"
	RouteMath     Route = "math"
	RouteSettings Route = "settings"
	RouteChat     Route = "chat"
	RouteSpecial  Route = "special"
)

// mathProbe reports whether the input evaluates as an arithmetic
// expression. Injected so classification stays in lockstep with the
// math provider's grammar.
type mathProbe func(string) bool

// Classify maps a query to its route. Prefixes are checked in a fixed
// order; the first match wins, and a query that is neither prefixed nor
// arithmetic falls through to app search.
func Classify(query string, isMath mathProbe) Route {
	if query == "" {
		return RouteHistory
	}
	if strings.HasPrefix(query, "#") {
		return RouteSpecial
	}
	if strings.HasPrefix(query, "?") {
		return RouteChat
	}
	if strings.HasPrefix(query, ":") {
		return RouteSettings
	}
	if strings.HasPrefix(query, " ") {
		if strings.HasPrefix(strings.TrimLeft(query, " "), "*") {
			return RouteVector
		}
		return RouteFile
	}
	if strings.HasPrefix(query, "!") {
		return RouteVault
	}
	// "ssh" or "ssh <host>" only; names like "sshfs" stay app queries.
	if query == "ssh" || strings.HasPrefix(query, "ssh ") {
		return RouteSSH
	}
	if isMath != nil && isMath(query) {
		return RouteMath
	}
	return RouteApp
}
