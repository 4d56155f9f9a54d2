package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand carries one agent position report from a live
// connection. Coordinates are validated eagerly so a malformed report is
// rejected before it reaches the location store.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	agentID    kernel.UUID
	point      kernel.GeoPoint
	accuracyM  *float64
	heading    *float64
	speedKmh   *float64
	capturedAt time.Time

	guard guard.ConstructorGuard
}

// NewReportLocationCommand creates a validated position report command.
// Optional telemetry hints may be nil.
func NewReportLocationCommand(
	agentID kernel.UUID,
	point kernel.GeoPoint,
	accuracyM, heading, speedKmh *float64,
	capturedAt time.Time,
) (ReportLocationCommand, error) {
	cmd := ReportLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setAgentID(agentID),
		cmd.setPoint(point),
	); err != nil {
		return ReportLocationCommand{}, err
	}

	cmd.accuracyM = accuracyM
	cmd.heading = heading
	cmd.speedKmh = speedKmh
	cmd.capturedAt = capturedAt
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

// AgentID returns the reporting agent's identifier.
func (c ReportLocationCommand) AgentID() kernel.UUID { return c.agentID }

// Point returns the reported coordinates.
func (c ReportLocationCommand) Point() kernel.GeoPoint { return c.point }

// AccuracyM returns the reported accuracy in meters, nil when absent.
func (c ReportLocationCommand) AccuracyM() *float64 { return c.accuracyM }

// Heading returns the reported heading in degrees, nil when absent.
func (c ReportLocationCommand) Heading() *float64 { return c.heading }

// SpeedKmh returns the reported speed, nil when absent.
func (c ReportLocationCommand) SpeedKmh() *float64 { return c.speedKmh }

// CapturedAt returns when the device captured the report.
func (c ReportLocationCommand) CapturedAt() time.Time { return c.capturedAt }

func (c *ReportLocationCommand) setAgentID(agentID kernel.UUID) error {
	if err := agentID.Validate(); err != nil {
		return err
	}

	c.agentID = agentID
	return nil
}

func (c *ReportLocationCommand) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}

	c.point = point
	return nil
}
