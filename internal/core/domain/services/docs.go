// Package services contains stateless domain services that operate across
// aggregates. The Matcher pairs unassigned orders with nearby agents under
// the class-radius cutoff, freshness, and capacity rules.
package services
