// ABOUTME: Traffic-light status classification for destination instances
// ABOUTME: Flags data and log disks that exceed or approach usable capacity

package services

import (
	"fmt"

	"github.com/sqlnova/migration-planner/models"
)

// ClassifyStatus returns the instance status and one alert per disk that crossed a threshold.
// Any disk over usable capacity makes the instance critical; otherwise any disk above
// the warning threshold makes it a warning. Status never gates placement.
func ClassifyStatus(dataDisks []models.DiskInfo, logDisk models.DiskInfo, usableGB float64) (string, []models.BinAlert) {
	warnAt := models.WarningThreshold * usableGB

	var alerts []models.BinAlert
	critical, warning := false, false

	for _, d := range dataDisks {
		if d.UsedGB > usableGB {
			critical = true
			alerts = append(alerts, overCapacityAlert(d, "data", usableGB))
		}
	}
	for _, d := range dataDisks {
		if d.UsedGB <= usableGB && d.UsedGB > warnAt {
			warning = true
			alerts = append(alerts, nearCapacityAlert(d, "data", usableGB))
		}
	}

	if logDisk.UsedGB > usableGB {
		critical = true
		alerts = append(alerts, overCapacityAlert(logDisk, "log", usableGB))
	} else if logDisk.UsedGB > warnAt {
		warning = true
		alerts = append(alerts, nearCapacityAlert(logDisk, "log", usableGB))
	}

	switch {
	case critical:
		return models.StatusCritical, alerts
	case warning:
		return models.StatusWarning, alerts
	default:
		return models.StatusOK, alerts
	}
}

func overCapacityAlert(d models.DiskInfo, kind string, usableGB float64) models.BinAlert {
	return models.BinAlert{
		Severity: models.StatusCritical,
		Disk:     d.Letter,
		Message: fmt.Sprintf("%s: %s usage %.1f GB exceeds usable capacity %.0f GB",
			d.Letter, kind, d.UsedGB, usableGB),
	}
}

func nearCapacityAlert(d models.DiskInfo, kind string, usableGB float64) models.BinAlert {
	return models.BinAlert{
		Severity: models.StatusWarning,
		Disk:     d.Letter,
		Message: fmt.Sprintf("%s: %s usage %.1f GB is above %.0f%% of usable capacity %.0f GB",
			d.Letter, kind, d.UsedGB, models.WarningThreshold*100, usableGB),
	}
}
