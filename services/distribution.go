// ABOUTME: Distribution engine packing source databases onto destination instances
// ABOUTME: Honors manual overrides, then first-fit by descending size with per-instance ceilings

package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlnova/migration-planner/models"
)

// DistributionEngine computes destination instance layouts for a migration.
// It is stateless; every call to Distribute is independent and deterministic.
type DistributionEngine struct{}

// NewDistributionEngine creates a new distribution engine
func NewDistributionEngine() *DistributionEngine {
	return &DistributionEngine{}
}

// bin accumulates databases for one destination instance during a run
type bin struct {
	name              string
	isExisting        bool
	databases         []models.SourceDatabase
	dataGB            float64
	logGB             float64
	preDataGB         float64
	preLogGB          float64
	preDBCount        int
	preDBNames        []string
	observedDiskCount int

	// pinned bins were forced by a "__new__" override and take no automatic placements
	pinned bool
}

func (b *bin) add(db models.SourceDatabase) {
	b.databases = append(b.databases, db)
	b.dataGB += db.DataGB()
	b.logGB += db.LogGB()
}

// Distribute assigns every database to exactly one destination instance.
//
// Overrides are applied first. Remaining databases are placed largest first into
// the first instance with room under its data ceiling, and a new instance is
// created when none has room. A database larger than any ceiling is still placed,
// alone, and its instance is flagged critical.
func (e *DistributionEngine) Distribute(input models.DistributionInput) []models.SuggestedInstance {
	cfg := input.Config.WithDefaults()

	sorted := make([]models.SourceDatabase, len(input.Databases))
	copy(sorted, input.Databases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total() > sorted[j].Total()
	})

	var manual, auto []models.SourceDatabase
	for _, db := range sorted {
		if input.Overrides.Target(db.Key()) != "" {
			manual = append(manual, db)
		} else {
			auto = append(auto, db)
		}
	}

	cursor := NewNameCursor(input.Naming, cfg.CustomInstanceNames)
	bins, excluded := e.seedBins(cfg, input.ExistingInstances, cursor)

	index := make(map[string]*bin, len(bins))
	for _, b := range bins {
		index[strings.ToUpper(b.name)] = b
	}

	newBin := func(name string) *bin {
		b := &bin{name: name}
		bins = append(bins, b)
		index[strings.ToUpper(name)] = b
		return b
	}

	// Manual groups, in first-seen order of their targets
	var targets []string
	groups := make(map[string][]models.SourceDatabase)
	for _, db := range manual {
		target := input.Overrides.Target(db.Key())
		if _, seen := groups[target]; !seen {
			targets = append(targets, target)
		}
		groups[target] = append(groups[target], db)
	}

	// Operator-chosen names must never be handed out by the cursor
	for _, target := range targets {
		key := strings.ToUpper(target)
		if target != models.AssignNew && index[key] == nil && !excluded[key] {
			cursor.Reserve(target)
		}
	}

	for _, target := range targets {
		var b *bin
		switch {
		case target == models.AssignNew:
			b = newBin(cursor.Next())
			b.pinned = true
		case index[strings.ToUpper(target)] != nil:
			b = index[strings.ToUpper(target)]
		case excluded[strings.ToUpper(target)]:
			// Existing instance that is unreachable or excluded by strategy
			b = newBin(cursor.Next())
		default:
			b = newBin(target)
		}
		for _, db := range groups[target] {
			b.add(db)
		}
	}

	for _, db := range auto {
		dataGB := db.DataGB()

		var target *bin
		for _, b := range bins {
			if b.pinned {
				continue
			}
			if b.dataGB+dataGB <= e.ceiling(b, cfg) {
				target = b
				break
			}
		}
		if target == nil {
			target = newBin(cursor.Next())
		}
		target.add(db)
	}

	result := make([]models.SuggestedInstance, 0, len(bins))
	for _, b := range bins {
		if len(b.databases) == 0 && !b.isExisting {
			continue
		}
		result = append(result, e.finalize(b, cfg))
	}

	return result
}

// seedBins creates one bin per connected existing instance, sorted by name, when the
// strategy allows existing destinations. It also returns the set of existing names
// that may not receive databases in this run.
func (e *DistributionEngine) seedBins(cfg models.CapacityConfig, existing []models.ExistingInstance, cursor *NameCursor) ([]*bin, map[string]bool) {
	excluded := make(map[string]bool)

	eligible := make([]models.ExistingInstance, 0, len(existing))
	for _, inst := range existing {
		cursor.Reserve(inst.Name)
		if !cfg.DestinationStrategy.UsesExisting() || !inst.ConnectionSuccess {
			excluded[strings.ToUpper(inst.Name)] = true
			continue
		}
		eligible = append(eligible, inst)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Name < eligible[j].Name
	})

	bins := make([]*bin, 0, len(eligible))
	for _, inst := range eligible {
		preData := inst.CurrentDataSizeMB / 1024
		preLog := inst.CurrentLogSizeMB / 1024
		names := make([]string, len(inst.CurrentDatabaseNames))
		copy(names, inst.CurrentDatabaseNames)

		bins = append(bins, &bin{
			name:              inst.Name,
			isExisting:        true,
			dataGB:            preData,
			logGB:             preLog,
			preDataGB:         preData,
			preLogGB:          preLog,
			preDBCount:        inst.CurrentDatabaseCount,
			preDBNames:        names,
			observedDiskCount: inst.CurrentDataDiskCount,
		})
	}

	return bins, excluded
}

// ceiling returns the maximum data load a bin may reach through automatic placement
func (e *DistributionEngine) ceiling(b *bin, cfg models.CapacityConfig) float64 {
	if !b.isExisting {
		return cfg.MaxDataCapacityNew()
	}
	if cfg.ExistingCapacityPolicy == models.PolicyProvisioned {
		usable := cfg.DiskUsableGB()
		return float64(existingDiskCount(b.observedDiskCount, b.preDataGB, usable)) * usable
	}
	return cfg.MaxDataCapacityExisting()
}

// finalize computes the disk layout, placements and status of a bin
func (e *DistributionEngine) finalize(b *bin, cfg models.CapacityConfig) models.SuggestedInstance {
	usable := cfg.DiskUsableGB()
	dataDisks := BuildDataDisks(b.preDataGB, b.dataGB, b.observedDiskCount, usable)
	logDisk := BuildLogDisk(b.preLogGB, b.logGB, b.isExisting)
	status, alerts := ClassifyStatus(dataDisks, logDisk, usable)

	if ceiling := e.ceiling(b, cfg); b.dataGB > ceiling {
		status = models.StatusCritical
		alerts = append(alerts, models.BinAlert{
			Severity: models.StatusCritical,
			Message: fmt.Sprintf("instance data %.1f GB exceeds the %.0f GB data ceiling",
				b.dataGB, ceiling),
		})
	}

	databases := b.databases
	if databases == nil {
		databases = []models.SourceDatabase{}
	}

	return models.SuggestedInstance{
		Name:               b.name,
		IsExisting:         b.isExisting,
		Databases:          databases,
		TotalDataGB:        b.dataGB,
		TotalLogGB:         b.logGB,
		PreExistingDataGB:  b.preDataGB,
		PreExistingLogGB:   b.preLogGB,
		PreExistingDBCount: b.preDBCount,
		PreExistingDBNames: b.preDBNames,
		DataDisks:          dataDisks,
		LogDisk:            logDisk,
		Status:             status,
		Alerts:             alerts,
		Placements:         AssignDatabaseDisks(b.databases, dataDisks, usable),
	}
}

// Summarize aggregates a distribution for reporting
func Summarize(instances []models.SuggestedInstance) models.DistributionSummary {
	var s models.DistributionSummary
	for _, inst := range instances {
		s.InstanceCount++
		if inst.IsExisting {
			s.ExistingInstanceCount++
		} else {
			s.NewInstanceCount++
		}
		s.DatabaseCount += len(inst.Databases)
		s.TotalDataGB += inst.TotalDataGB
		s.TotalLogGB += inst.TotalLogGB
		s.NewDataDiskCount += inst.NewDiskCount()

		switch inst.Status {
		case models.StatusCritical:
			s.CriticalCount++
		case models.StatusWarning:
			s.WarningCount++
		default:
			s.OKCount++
		}
	}
	return s
}
