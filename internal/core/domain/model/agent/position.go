package agent

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

// ErrPositionIsNotConstructed is returned when using an improperly
// initialized Position.
var ErrPositionIsNotConstructed = errors.New("Position must be created via NewPosition constructor")

// Position is the latest known location report of an agent. Positions are
// last-write-wins by capture timestamp: a late report older than the stored
// one must be discarded, not applied. Accuracy, heading, and speed are
// optional device hints.
type Position struct {
	agentID    kernel.UUID
	point      kernel.GeoPoint
	class      kernel.DeliveryClass
	accuracyM  *float64
	heading    *float64
	speedKmh   *float64
	capturedAt time.Time
	guard      guard.ConstructorGuard
}

// NewPosition creates a validated position report.
func NewPosition(
	agentID kernel.UUID,
	point kernel.GeoPoint,
	class kernel.DeliveryClass,
	capturedAt time.Time,
) (Position, error) {
	if err := errors.Join(
		agentID.Validate(),
		point.Validate(),
		class.Validate(),
	); err != nil {
		return Position{}, err
	}

	return Position{
		agentID:    agentID,
		point:      point,
		class:      class,
		capturedAt: capturedAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// WithTelemetry returns a copy carrying the optional device hints.
func (p Position) WithTelemetry(accuracyM, heading, speedKmh *float64) Position {
	p.accuracyM = accuracyM
	p.heading = heading
	p.speedKmh = speedKmh
	return p
}

// Validate ensures the position was built through the constructor.
func (p Position) Validate() error {
	return p.guard.Validate(ErrPositionIsNotConstructed)
}

// AgentID returns the reporting agent's identifier.
func (p Position) AgentID() kernel.UUID { return p.agentID }

// Point returns the reported coordinates.
func (p Position) Point() kernel.GeoPoint { return p.point }

// Class returns the agent's capability class at report time.
func (p Position) Class() kernel.DeliveryClass { return p.class }

// AccuracyM returns the reported accuracy in meters, nil when not reported.
func (p Position) AccuracyM() *float64 { return p.accuracyM }

// Heading returns the reported heading in degrees, nil when not reported.
func (p Position) Heading() *float64 { return p.heading }

// SpeedKmh returns the reported speed, nil when not reported.
func (p Position) SpeedKmh() *float64 { return p.speedKmh }

// CapturedAt returns when the device captured the report.
func (p Position) CapturedAt() time.Time { return p.capturedAt }

// IsNewerThan reports whether p supersedes other under last-write-wins.
func (p Position) IsNewerThan(other Position) bool {
	return p.capturedAt.After(other.capturedAt)
}

// IsStale reports whether the position is older than maxAge at the given
// instant. Stale positions are filtered from matching but never deleted.
func (p Position) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(p.capturedAt) > maxAge
}
