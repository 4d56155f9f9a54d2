// Package locations implements the Agent Location Store: an in-memory map of
// latest agent positions serving the matching hot path, backed by a durable
// tier for recovery after restart.
//
// Writers are agents (one writer per key under the store lock), readers are
// the Matching Engine, which always receives a copied snapshot. Positions are
// last-write-wins by capture timestamp. When the durable tier is down the
// store degrades to memory-only, logs the failure, and the sync job retries
// the dirty entries later.
package locations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// Store keeps the latest known position per agent.
type Store struct {
	mu      sync.RWMutex
	byAgent map[kernel.UUID]agent.Position
	dirty   map[kernel.UUID]struct{}

	durable ports.DurableLocationStore // nil disables the durable tier
	logger  *slog.Logger
}

// NewStore creates a Store. A nil durable tier keeps the store memory-only.
func NewStore(durable ports.DurableLocationStore, logger *slog.Logger) *Store {
	return &Store{
		byAgent: make(map[kernel.UUID]agent.Position),
		dirty:   make(map[kernel.UUID]struct{}),
		durable: durable,
		logger:  logger.With("component", "location_store"),
	}
}

// Upsert applies a position report under last-write-wins. Reports older than
// the stored position are discarded and reported as not applied. The durable
// write is best-effort; on failure the entry is marked dirty for the sync job.
func (s *Store) Upsert(ctx context.Context, pos agent.Position) (bool, error) {
	if err := pos.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	existing, ok := s.byAgent[pos.AgentID()]
	if ok && !pos.IsNewerThan(existing) {
		s.mu.Unlock()
		return false, nil
	}
	s.byAgent[pos.AgentID()] = pos
	s.mu.Unlock()

	if s.durable != nil {
		if err := s.durable.Save(ctx, pos); err != nil {
			s.logger.WarnContext(ctx, "durable location write failed, tracking degraded to in-memory",
				"agent_id", pos.AgentID().String(), "error", err)
			s.markDirty(pos.AgentID())
		} else {
			s.clearDirty(pos.AgentID())
		}
	}

	return true, nil
}

// Get returns the latest known position of the agent.
func (s *Store) Get(_ context.Context, agentID kernel.UUID) (agent.Position, error) {
	if err := agentID.Validate(); err != nil {
		return agent.Position{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byAgent[agentID]
	if !ok {
		return agent.Position{}, errs.NewObjectNotFoundError("agentId", agentID.String())
	}
	return pos, nil
}

// Snapshot returns a copy of all positions of the class no older than maxAge.
func (s *Store) Snapshot(_ context.Context, class kernel.DeliveryClass, maxAge time.Duration) ([]agent.Position, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agent.Position, 0, len(s.byAgent))
	for _, pos := range s.byAgent {
		if pos.Class() != class {
			continue
		}
		if maxAge > 0 && pos.IsStale(now, maxAge) {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

// Forget drops the agent's cached position. The durable tier keeps its copy
// so the position survives for recovery.
func (s *Store) Forget(_ context.Context, agentID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byAgent, agentID)
	delete(s.dirty, agentID)
}

// Reload re-populates the cache from the durable tier, applying
// last-write-wins against anything already reported since startup.
func (s *Store) Reload(ctx context.Context) (int, error) {
	if s.durable == nil {
		return 0, nil
	}

	positions, err := s.durable.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, pos := range positions {
		existing, ok := s.byAgent[pos.AgentID()]
		if ok && !pos.IsNewerThan(existing) {
			continue
		}
		s.byAgent[pos.AgentID()] = pos
		loaded++
	}
	return loaded, nil
}

// FlushDirty retries durable writes for entries whose last durable write
// failed. Returns how many entries were flushed.
func (s *Store) FlushDirty(ctx context.Context) int {
	if s.durable == nil {
		return 0
	}

	s.mu.RLock()
	pending := make([]agent.Position, 0, len(s.dirty))
	for id := range s.dirty {
		if pos, ok := s.byAgent[id]; ok {
			pending = append(pending, pos)
		}
	}
	s.mu.RUnlock()

	flushed := 0
	for _, pos := range pending {
		if err := s.durable.Save(ctx, pos); err != nil {
			s.logger.WarnContext(ctx, "durable location retry failed",
				"agent_id", pos.AgentID().String(), "error", err)
			continue
		}
		s.clearDirty(pos.AgentID())
		flushed++
	}
	return flushed
}

func (s *Store) markDirty(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[id] = struct{}{}
}

func (s *Store) clearDirty(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, id)
}
