package commands

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/ports"
)

// ReportLocationCommandHandler applies agent position reports to the location
// store. The agent's capability class is read from the agent record, not from
// the report, so a stale client cannot change its own matching class.
type ReportLocationCommandHandler struct {
	agentRepo ports.AgentRepository
	store     ports.LocationStore
}

// NewReportLocationCommandHandler creates a handler for position reports.
func NewReportLocationCommandHandler(
	agentRepo ports.AgentRepository,
	store ports.LocationStore,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		agentRepo: agentRepo,
		store:     store,
	}
}

// Handle applies the report under last-write-wins. It reports whether the
// position was applied; a report older than the stored one returns false
// without an error.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, command ReportLocationCommand) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}

	reporter, err := h.agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return false, err
	}

	pos, err := agent.NewPosition(command.AgentID(), command.Point(), reporter.Class(), command.CapturedAt())
	if err != nil {
		return false, err
	}
	pos = pos.WithTelemetry(command.AccuracyM(), command.Heading(), command.SpeedKmh())

	return h.store.Upsert(ctx, pos)
}
