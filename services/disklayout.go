// ABOUTME: Per-instance disk layout for the distribution engine
// ABOUTME: Spreads data across lettered data disks and assigns each database a target disk

package services

import (
	"math"
	"sort"

	"github.com/sqlnova/migration-planner/models"
)

// existingDiskCount returns the observed data disk count of an existing instance,
// or estimates it from its pre-existing data when no observation is available.
func existingDiskCount(observed int, preExistingDataGB, usableGB float64) int {
	count := observed
	if count <= 0 && usableGB > 0 {
		count = int(math.Ceil(preExistingDataGB / usableGB))
	}
	if count < 1 {
		count = 1
	}
	if count > models.MaxDataDisks {
		count = models.MaxDataDisks
	}
	return count
}

// newDiskCount returns the number of disks needed to hold totalDataGB on a fresh instance
func newDiskCount(totalDataGB, usableGB float64) int {
	if usableGB <= 0 {
		return 1
	}
	count := int(math.Ceil(totalDataGB / usableGB))
	if count < 1 {
		count = 1
	}
	if count > models.MaxDataDisks {
		count = models.MaxDataDisks
	}
	return count
}

// BuildDataDisks lays out an instance's data load across data disks.
//
// Instances with pre-existing data (or observed disks) keep that data spread evenly across their
// existing disks; new data first fills the free space on the last existing disk
// and then takes new letters. Fresh instances fill disks sequentially.
// Load that does not fit once all letters are used stays on the last disk,
// which the status check then reports as over capacity.
func BuildDataDisks(preExistingDataGB, totalDataGB float64, observedDiskCount int, usableGB float64) []models.DiskInfo {
	if preExistingDataGB > 0 || observedDiskCount > 0 {
		return buildExistingDataDisks(preExistingDataGB, totalDataGB, observedDiskCount, usableGB)
	}
	return buildNewDataDisks(totalDataGB, usableGB)
}

func buildNewDataDisks(totalDataGB, usableGB float64) []models.DiskInfo {
	count := newDiskCount(totalDataGB, usableGB)
	disks := make([]models.DiskInfo, 0, count)

	remaining := totalDataGB
	for i := 0; i < count; i++ {
		amount := math.Min(usableGB, remaining)
		if i == count-1 {
			amount = remaining
		}
		if amount < 0 {
			amount = 0
		}
		disks = append(disks, models.DiskInfo{
			Letter: models.DataDiskLetters[i],
			UsedGB: amount,
			NewGB:  amount,
		})
		remaining -= amount
	}

	return disks
}

func buildExistingDataDisks(preExistingDataGB, totalDataGB float64, observedDiskCount int, usableGB float64) []models.DiskInfo {
	count := existingDiskCount(observedDiskCount, preExistingDataGB, usableGB)
	perDisk := preExistingDataGB / float64(count)

	disks := make([]models.DiskInfo, 0, models.MaxDataDisks)
	for i := 0; i < count; i++ {
		disks = append(disks, models.DiskInfo{
			Letter:         models.DataDiskLetters[i],
			UsedGB:         perDisk,
			IsExistingDisk: true,
			PreExistingGB:  perDisk,
		})
	}

	remaining := math.Max(0, totalDataGB-preExistingDataGB)

	// Top up the last existing disk before provisioning new ones
	last := &disks[len(disks)-1]
	if free := usableGB - last.PreExistingGB; free > 0 && remaining > 0 {
		add := math.Min(free, remaining)
		last.NewGB += add
		last.UsedGB += add
		remaining -= add
	}

	for remaining > 0 && len(disks) < models.MaxDataDisks {
		add := math.Min(usableGB, remaining)
		disks = append(disks, models.DiskInfo{
			Letter: models.DataDiskLetters[len(disks)],
			UsedGB: add,
			NewGB:  add,
		})
		remaining -= add
	}

	if remaining > 0 {
		last := &disks[len(disks)-1]
		last.NewGB += remaining
		last.UsedGB += remaining
	}

	return disks
}

// BuildLogDisk returns the H: log disk record for an instance
func BuildLogDisk(preExistingLogGB, totalLogGB float64, isExisting bool) models.DiskInfo {
	return models.DiskInfo{
		Letter:         models.LogDiskLetter,
		UsedGB:         totalLogGB,
		IsExistingDisk: isExisting && preExistingLogGB > 0,
		PreExistingGB:  preExistingLogGB,
		NewGB:          math.Max(0, totalLogGB-preExistingLogGB),
	}
}

// AssignDatabaseDisks picks a target data disk for every database of an instance.
//
// Databases are taken largest first and go to the first disk whose running
// total (seeded with its pre-existing load) still has room. A database that fits
// nowhere is reported on the first disk. This pass is for reporting only and
// runs independently of BuildDataDisks, so per-disk sums of the placements can
// differ from the aggregate layout.
func AssignDatabaseDisks(databases []models.SourceDatabase, disks []models.DiskInfo, usableGB float64) []models.DatabasePlacement {
	sorted := make([]models.SourceDatabase, len(databases))
	copy(sorted, databases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DataSizeMB > sorted[j].DataSizeMB
	})

	running := make([]float64, len(disks))
	for i, d := range disks {
		running[i] = d.PreExistingGB
	}

	placements := make([]models.DatabasePlacement, 0, len(sorted))
	for _, db := range sorted {
		dataGB := db.DataGB()

		target := ""
		if len(disks) > 0 {
			idx := 0
			for i := range disks {
				if running[i]+dataGB <= usableGB {
					idx = i
					break
				}
			}
			running[idx] += dataGB
			target = disks[idx].Letter
		}

		placements = append(placements, models.DatabasePlacement{
			DatabaseKey:    db.Key(),
			SourceInstance: db.InstanceName,
			DatabaseName:   db.Name,
			DataGB:         dataGB,
			LogGB:          db.LogGB(),
			TargetDisk:     target,
			LogDisk:        models.LogDiskLetter,
		})
	}

	return placements
}
