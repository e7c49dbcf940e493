// Package linkedin holds everything that depends on LinkedIn's markup and
// URL scheme: feed addresses, the login form, DOM selectors and profile
// label resolution.
//
// Selectors change whenever LinkedIn ships a redesign, so they are kept
// together in selectors.go and ordered from most to least specific.
package linkedin
