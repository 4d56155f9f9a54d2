// Package redislocation is the durable tier behind the in-memory agent
// location cache. Each agent's latest position lives in a Redis hash, with a
// GEO set kept alongside for radius queries from operational tooling. Writes
// are best-effort from the cache's point of view; LoadAll re-populates the
// cache after a restart.
package redislocation

import (
	"context"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/redis/go-redis/v9"
)

const (
	positionKeyPrefix = "dispatch:agent:pos:"
	indexKey          = "dispatch:agent:pos:index"
	geoKey            = "dispatch:agent:geo"
)

// Store implements ports.DurableLocationStore on Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed location store. Entries expire after ttl so
// agents that stop reporting age out; a non-positive ttl keeps them forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Save persists the latest position of an agent.
func (s *Store) Save(ctx context.Context, pos agent.Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	id := pos.AgentID().String()
	key := positionKeyPrefix + id

	fields := map[string]any{
		"lat":         pos.Point().Latitude(),
		"lng":         pos.Point().Longitude(),
		"class":       string(pos.Class()),
		"captured_at": pos.CapturedAt().UnixMilli(),
	}
	if v := pos.AccuracyM(); v != nil {
		fields["accuracy_m"] = *v
	}
	if v := pos.Heading(); v != nil {
		fields["heading"] = *v
	}
	if v := pos.SpeedKmh(); v != nil {
		fields["speed_kmh"] = *v
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.SAdd(ctx, indexKey, id)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      id,
		Latitude:  pos.Point().Latitude(),
		Longitude: pos.Point().Longitude(),
	})
	_, err := pipe.Exec(ctx)
	return err
}

// LoadAll returns every persisted position. Entries whose hash expired are
// dropped from the index as they are encountered.
func (s *Store) LoadAll(ctx context.Context) ([]agent.Position, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	positions := make([]agent.Position, 0, len(ids))
	for _, id := range ids {
		raw, err := s.client.HGetAll(ctx, positionKeyPrefix+id).Result()
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			s.client.SRem(ctx, indexKey, id)
			s.client.ZRem(ctx, geoKey, id)
			continue
		}

		pos, err := parsePosition(id, raw)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func parsePosition(id string, raw map[string]string) (agent.Position, error) {
	agentID, err := kernel.UUIDFromString(id)
	if err != nil {
		return agent.Position{}, err
	}

	lat, err := strconv.ParseFloat(raw["lat"], 64)
	if err != nil {
		return agent.Position{}, err
	}
	lng, err := strconv.ParseFloat(raw["lng"], 64)
	if err != nil {
		return agent.Position{}, err
	}
	point, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		return agent.Position{}, err
	}

	capturedMilli, err := strconv.ParseInt(raw["captured_at"], 10, 64)
	if err != nil {
		return agent.Position{}, err
	}

	pos, err := agent.NewPosition(
		agentID, point, kernel.DeliveryClass(raw["class"]), time.UnixMilli(capturedMilli))
	if err != nil {
		return agent.Position{}, err
	}

	return pos.WithTelemetry(
		optionalFloat(raw, "accuracy_m"),
		optionalFloat(raw, "heading"),
		optionalFloat(raw, "speed_kmh"),
	), nil
}

func optionalFloat(raw map[string]string, field string) *float64 {
	v, ok := raw[field]
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
