// ABOUTME: Memoized simulation runs on top of the distribution engine
// ABOUTME: Results are cached under a SHA-256 of the canonical JSON input

package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/models"
)

// resultNamespace scopes result IDs derived from input hashes
var resultNamespace = uuid.MustParse("3f0c6a52-8d1e-4b7a-9c55-2a6e1d0b7f14")

// Simulator runs the engine and memoizes results by input
type Simulator struct {
	engine *DistributionEngine
	cache  *cache.Cache
	ttl    time.Duration
	now    func() time.Time
}

// NewSimulator creates a simulator. A nil cache disables memoization and a
// zero ttl keeps results for the cache's default TTL.
func NewSimulator(c *cache.Cache, ttl time.Duration) *Simulator {
	return &Simulator{
		engine: NewDistributionEngine(),
		cache:  c,
		ttl:    ttl,
		now:    time.Now,
	}
}

// InputHash returns the hex SHA-256 of the JSON encoding of an input.
// Map keys are encoded in sorted order, so equal inputs hash equally.
func InputHash(input models.DistributionInput) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encoding simulation input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Run returns the distribution for an input and whether it came from the cache.
// The input must already be validated.
func (s *Simulator) Run(input models.DistributionInput) (models.DistributionResult, bool, error) {
	hash, err := InputHash(input)
	if err != nil {
		return models.DistributionResult{}, false, err
	}
	key := "simulate:" + hash

	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			ObserveCachedDistribution()
			return cached.(models.DistributionResult), true, nil
		}
	}

	start := time.Now()
	instances := s.engine.Distribute(input)
	elapsed := time.Since(start)
	ObserveDistribution(elapsed, instances)

	result := models.DistributionResult{
		ID:           uuid.NewSHA1(resultNamespace, []byte(hash)).String(),
		Instances:    instances,
		Summary:      Summarize(instances),
		DiskUsableGB: input.Config.WithDefaults().DiskUsableGB(),
		GeneratedAt:  s.now().UTC(),
	}

	slog.Info("Distribution computed",
		"id", result.ID,
		"databases", result.Summary.DatabaseCount,
		"instances", result.Summary.InstanceCount,
		"critical", result.Summary.CriticalCount,
		"duration", elapsed)

	switch {
	case s.cache == nil:
	case s.ttl > 0:
		s.cache.SetWithTTL(key, result, s.ttl)
	default:
		s.cache.Set(key, result)
	}
	return result, false, nil
}
