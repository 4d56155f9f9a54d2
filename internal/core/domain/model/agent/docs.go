// Package agent provides the Agent aggregate and the Position value object.
//
// An Agent is a mobile delivery or pickup worker. Matching eligibility is the
// conjunction of availability, verification, and capability class. Position
// is the agent's latest location report with last-write-wins semantics by
// capture timestamp; stale positions are filtered from matching by age but
// never deleted.
package agent
