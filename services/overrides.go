// ABOUTME: Manual assignment overrides with dependency-based invalidation
// ABOUTME: Clears overrides when selection count, disk limit, strategy, or custom names change

package services

import (
	"log/slog"

	"github.com/sqlnova/migration-planner/models"
)

// OverrideDependencies are the inputs whose change invalidates manual overrides
type OverrideDependencies struct {
	SelectedCount   int
	MaxDataDisks    int
	Strategy        models.DestinationStrategy
	CustomNameCount int
}

// DependenciesFor extracts override dependencies from a selection and config
func DependenciesFor(databases []models.SourceDatabase, cfg models.CapacityConfig) OverrideDependencies {
	return OverrideDependencies{
		SelectedCount:   len(databases),
		MaxDataDisks:    cfg.MaxDataDisksPerNewInstance,
		Strategy:        cfg.DestinationStrategy,
		CustomNameCount: len(cfg.CustomInstanceNames),
	}
}

// OverrideTracker owns the operator's manual assignments between engine runs.
// Not safe for concurrent use; callers serialize access.
type OverrideTracker struct {
	overrides models.ManualAssignments
	deps      OverrideDependencies
	observed  bool
}

// NewOverrideTracker creates an empty tracker
func NewOverrideTracker() *OverrideTracker {
	return &OverrideTracker{overrides: make(models.ManualAssignments)}
}

// Observe records the current dependencies and clears all overrides if any changed.
// It returns true when overrides were invalidated.
func (t *OverrideTracker) Observe(deps OverrideDependencies) bool {
	if !t.observed {
		t.deps = deps
		t.observed = true
		return false
	}
	if deps == t.deps {
		return false
	}

	t.deps = deps
	if len(t.overrides) == 0 {
		return false
	}

	slog.Debug("Manual overrides invalidated", "count", len(t.overrides))
	t.overrides = make(models.ManualAssignments)
	return true
}

// Set assigns a database to a target. An empty target or AssignAuto removes the override.
func (t *OverrideTracker) Set(dbKey, target string) {
	if target == "" || target == models.AssignAuto {
		delete(t.overrides, dbKey)
		return
	}
	t.overrides[dbKey] = target
}

// Clear removes all overrides
func (t *OverrideTracker) Clear() {
	t.overrides = make(models.ManualAssignments)
}

// Overrides returns a copy of the current overrides
func (t *OverrideTracker) Overrides() models.ManualAssignments {
	out := make(models.ManualAssignments, len(t.overrides))
	for k, v := range t.overrides {
		out[k] = v
	}
	return out
}

// Restore replaces the tracker's state, used when rehydrating a stored session
func (t *OverrideTracker) Restore(overrides models.ManualAssignments, deps OverrideDependencies) {
	t.overrides = make(models.ManualAssignments, len(overrides))
	for k, v := range overrides {
		t.overrides[k] = v
	}
	t.deps = deps
	t.observed = true
}
